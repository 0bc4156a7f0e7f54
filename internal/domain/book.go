package domain

import (
	"slices"
	"time"
)

// Book is a multi-chapter work.
//
// Content carries the legacy whole-document markup from before chapters
// existed and is retained for backward compatibility. A book with zero
// chapters is invalid; RepairChapters synthesizes "Chapter 1" from the
// legacy content on load.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Cover           string    `json:"cover,omitempty"`
	Content         string    `json:"content"`
	Chapters        []Chapter `json:"chapters"`
	ActiveChapterID string    `json:"activeChapterId,omitempty"`
	CreatedAt       string    `json:"createdAt"`  // RFC 3339
	LastEdited      string    `json:"lastEdited"` // RFC 3339
	Completed       bool      `json:"completed"`  // legacy mirror of Status
	Status          string    `json:"status"`
	Genre           string    `json:"genre"`
	Tags            []string  `json:"tags"`
}

// Chapter is an ordered section of a book.
type Chapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Touch bumps LastEdited to now (RFC 3339).
func (b *Book) Touch(now time.Time) {
	b.LastEdited = now.Format(time.RFC3339)
}

// SetStatus sets the canonical status flag and keeps the legacy Completed
// mirror in sync.
func (b *Book) SetStatus(status string) {
	if status != StatusPublished {
		status = StatusDraft
	}
	b.Status = status
	b.Completed = status == StatusPublished
}

// RepairChapters enforces the at-least-one-chapter invariant. If the book
// has no chapters, a single "Chapter 1" is synthesized from the legacy
// whole-document content and made active. The chapter id is supplied by the
// caller so the repair stays deterministic under test.
// Returns true if a repair happened.
func (b *Book) RepairChapters(newChapterID string) bool {
	if len(b.Chapters) > 0 {
		if b.ActiveChapterID == "" || b.ChapterByID(b.ActiveChapterID) == nil {
			b.ActiveChapterID = b.Chapters[0].ID
		}
		return false
	}
	ch := Chapter{ID: newChapterID, Title: "Chapter 1", Content: b.Content}
	b.Chapters = []Chapter{ch}
	b.ActiveChapterID = ch.ID
	return true
}

// ChapterByID returns the chapter with the given id, or nil.
func (b *Book) ChapterByID(id string) *Chapter {
	for i := range b.Chapters {
		if b.Chapters[i].ID == id {
			return &b.Chapters[i]
		}
	}
	return nil
}

// Clone returns a structural deep copy.
func (b Book) Clone() Book {
	out := b
	out.Tags = slices.Clone(b.Tags)
	out.Chapters = slices.Clone(b.Chapters)
	return out
}

// EditedAt parses LastEdited. ok is false when the timestamp is missing or
// unparsable; the merge engine treats that as "prefer the most recently
// supplied source".
func (b Book) EditedAt() (time.Time, bool) {
	if b.LastEdited == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, DateLayout} {
		if t, err := time.Parse(layout, b.LastEdited); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
