// Package domain contains the core entities of the Quill writing engine:
// poems, multi-chapter books, and their version snapshots.
package domain

// Type discriminates the two record variants.
type Type string

// Record types.
const (
	TypePoem Type = "poem"
	TypeBook Type = "book"
)

// Valid reports whether t is a known record type.
func (t Type) Valid() bool {
	return t == TypePoem || t == TypeBook
}

// Status values for books. Status is canonical; the legacy Completed
// boolean is kept in sync for older clients.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// MaxTagLength is the maximum length of a single tag after normalization.
const MaxTagLength = 30

// DateLayout is the stored form of poem dates (calendar date, not time).
const DateLayout = "2006-01-02"
