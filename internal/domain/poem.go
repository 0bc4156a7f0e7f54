package domain

import (
	"slices"
	"time"
)

// Poem is a single piece of writing with bounded edit history.
//
// Timestamps are unix milliseconds and monotonically non-decreasing: every
// mutation bumps UpdatedAt, which is what makes recency-based merging
// correct. JSON field names are camelCase for compatibility with data
// persisted by older releases.
type Poem struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"` // rich-text markup
	Date      string            `json:"date"`    // YYYY-MM-DD
	Tags      []string          `json:"tags"`
	Favorite  bool              `json:"favorite"`
	Draft     bool              `json:"draft"`
	CreatedAt int64             `json:"createdAt"`
	UpdatedAt int64             `json:"updatedAt"`
	Versions  []VersionSnapshot `json:"versions,omitempty"`
}

// VersionSnapshot is an immutable capture of a poem's tracked fields
// (title, content, date, tags) taken before a change took effect.
// Snapshots are ordered oldest first.
type VersionSnapshot struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"ts"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Date      string   `json:"date"`
	Tags      []string `json:"tags"`
}

// Touch bumps UpdatedAt to now, strictly past the previous value so two
// edits inside the same millisecond still order correctly.
func (p *Poem) Touch(now time.Time) {
	ts := now.UnixMilli()
	if ts <= p.UpdatedAt {
		ts = p.UpdatedAt + 1
	}
	p.UpdatedAt = ts
}

// Clone returns a structural deep copy.
//
// The engine never hands shared slices across the facade boundary; explicit
// copies keep copy-on-write semantics auditable instead of round-tripping
// through JSON.
func (p Poem) Clone() Poem {
	out := p
	out.Tags = slices.Clone(p.Tags)
	if p.Versions != nil {
		out.Versions = make([]VersionSnapshot, len(p.Versions))
		for i, v := range p.Versions {
			out.Versions[i] = v.Clone()
		}
	}
	return out
}

// Clone returns a structural deep copy of the snapshot.
func (v VersionSnapshot) Clone() VersionSnapshot {
	out := v
	out.Tags = slices.Clone(v.Tags)
	return out
}

// TrackedEqual reports whether the snapshot's tracked fields equal the
// poem's current tracked fields. Used for history deduplication.
func (v VersionSnapshot) TrackedEqual(p Poem) bool {
	return v.Title == p.Title &&
		v.Content == p.Content &&
		v.Date == p.Date &&
		slices.Equal(v.Tags, p.Tags)
}
