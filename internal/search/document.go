// Package search provides full-text search over poems and books using
// Bleve. The index is a derived structure: local storage stays the source of
// truth, and the index is rebuilt from it whenever a collection changes.
package search

import (
	"strings"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/service"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypePoem DocType = "poem"
	DocTypeBook DocType = "book"
)

// Document is the unified structure for the Bleve index. Both record types
// are indexed as Documents with type discrimination; rich-text markup is
// stripped before indexing so queries match visible text.
type Document struct {
	ID    string  `json:"id"`
	Type  DocType `json:"type"`
	Title string  `json:"title"`

	// Body is the stripped text: poem content, or all chapters joined for
	// books.
	Body string `json:"body,omitempty"`

	Description string   `json:"description,omitempty"` // books only
	Genre       string   `json:"genre,omitempty"`        // books only
	Tags        []string `json:"tags,omitempty"`

	// Unix millis, for recency sorting. Books use LastEdited.
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names matching
// the index mapping. Bleve would otherwise index Go's capitalized struct
// field names.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"type":       string(d.Type),
		"title":      d.Title,
		"updated_at": d.UpdatedAt,
	}
	if d.Body != "" {
		m["body"] = d.Body
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Genre != "" {
		m["genre"] = d.Genre
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}

// PoemDocument converts a poem to its index document.
func PoemDocument(p domain.Poem) *Document {
	return &Document{
		ID:        p.ID,
		Type:      DocTypePoem,
		Title:     p.Title,
		Body:      service.StripMarkup(p.Content),
		Tags:      p.Tags,
		UpdatedAt: p.UpdatedAt,
	}
}

// BookDocument converts a book to its index document. Chapter text is
// denormalized into a single body so one query covers the whole work.
func BookDocument(b domain.Book) *Document {
	var body strings.Builder
	for _, ch := range b.Chapters {
		if text := service.StripMarkup(ch.Content); text != "" {
			if body.Len() > 0 {
				body.WriteByte('\n')
			}
			body.WriteString(text)
		}
	}

	updated := int64(0)
	if t, ok := b.EditedAt(); ok {
		updated = t.UnixMilli()
	}
	return &Document{
		ID:          b.ID,
		Type:        DocTypeBook,
		Title:       b.Title,
		Body:        body.String(),
		Description: b.Description,
		Genre:       b.Genre,
		Tags:        b.Tags,
		UpdatedAt:   updated,
	}
}
