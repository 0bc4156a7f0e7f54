// Package exchange converts record collections to and from portable
// interchange formats: versioned JSON documents, CSV for spreadsheets, and
// Markdown for human-readable export. Imports run every record through the
// normalizer, so a hand-edited or truncated file degrades to defaults
// instead of failing the whole import.
package exchange

import (
	"encoding/json/v2"
	"fmt"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/normalize"
)

// FormatVersion is the current JSON document version.
const FormatVersion = 1

// Document is the versioned JSON interchange envelope.
type Document[T any] struct {
	Version int `json:"version"`
	Records []T `json:"records"`
}

// ExportJSON serializes a collection into a versioned document.
func ExportJSON[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	return json.Marshal(Document[T]{Version: FormatVersion, Records: records})
}

// ImportRaw parses interchange JSON into raw records. Both the versioned
// envelope and a bare top-level array are accepted; the bare form is what
// the earliest releases exported.
func ImportRaw(data []byte) ([]any, error) {
	var doc Document[any]
	if err := json.Unmarshal(data, &doc); err == nil && doc.Records != nil {
		return doc.Records, nil
	}

	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	return nil, fmt.Errorf("unrecognized import document")
}

// ImportPoems parses and normalizes a poem interchange document.
func ImportPoems(data []byte, n *normalize.Normalizer) ([]domain.Poem, error) {
	raws, err := ImportRaw(data)
	if err != nil {
		return nil, err
	}
	if n == nil {
		n = normalize.New()
	}
	out := make([]domain.Poem, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Poem(raw))
	}
	return out, nil
}

// ImportBooks parses and normalizes a book interchange document.
func ImportBooks(data []byte, n *normalize.Normalizer) ([]domain.Book, error) {
	raws, err := ImportRaw(data)
	if err != nil {
		return nil, err
	}
	if n == nil {
		n = normalize.New()
	}
	out := make([]domain.Book, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Book(raw))
	}
	return out, nil
}
