// Package merge combines two record collections into one, keeping the newer
// copy of each id. It backs local+remote reconciliation, legacy-key
// migration, and anonymous-scope migration at sign-in.
//
// Conflict policy is whole-record last-write-wins by timestamp. When the
// incoming copy's timestamp is later it replaces the stored one; when
// timestamps tie or either is unparsable, the copy from the second operand
// wins ("prefer the most recently supplied source"). Callers choose tie
// preference through argument order: the sync coordinator passes the local
// collection second so local edits survive exact ties, and the sign-in
// migration passes the signed-in scope second.
package merge

import (
	"github.com/quillapp/quill-engine/internal/domain"
)

// Records merges a then b by id, newest wins. id extracts the record
// identity; modified extracts the recency timestamp in unix milliseconds,
// with ok=false meaning unparsable. Output order is not significant;
// callers re-sort.
func Records[T any](a, b []T, identity func(T) string, modified func(T) (int64, bool)) []T {
	byID := make(map[string]T, len(a)+len(b))
	order := make([]string, 0, len(a)+len(b))

	for _, rec := range a {
		key := identity(rec)
		if _, exists := byID[key]; !exists {
			order = append(order, key)
		}
		byID[key] = rec
	}
	for _, rec := range b {
		key := identity(rec)
		stored, exists := byID[key]
		if !exists {
			order = append(order, key)
			byID[key] = rec
			continue
		}
		if newerOrPreferred(rec, stored, modified) {
			byID[key] = rec
		}
	}

	out := make([]T, 0, len(order))
	for _, key := range order {
		out = append(out, byID[key])
	}
	return out
}

// newerOrPreferred reports whether incoming should replace stored. Incoming
// wins on a strictly later timestamp, and also whenever either timestamp is
// unparsable — dropping a record because its clock field rotted would be
// silent data loss, so the later-supplied copy is kept instead.
func newerOrPreferred[T any](incoming, stored T, modified func(T) (int64, bool)) bool {
	in, inOK := modified(incoming)
	st, stOK := modified(stored)
	if !inOK || !stOK {
		return true
	}
	return in >= st
}

// Poems merges two poem collections, newest UpdatedAt wins, b preferred on
// ties and unparsable timestamps.
func Poems(a, b []domain.Poem) []domain.Poem {
	return Records(a, b,
		func(p domain.Poem) string { return p.ID },
		func(p domain.Poem) (int64, bool) {
			if p.UpdatedAt <= 0 {
				return 0, false
			}
			return p.UpdatedAt, true
		},
	)
}

// Books merges two book collections, newest LastEdited wins, b preferred on
// ties and unparsable timestamps.
func Books(a, b []domain.Book) []domain.Book {
	return Records(a, b,
		func(b domain.Book) string { return b.ID },
		func(b domain.Book) (int64, bool) {
			t, ok := b.EditedAt()
			if !ok {
				return 0, false
			}
			return t.UnixMilli(), true
		},
	)
}
