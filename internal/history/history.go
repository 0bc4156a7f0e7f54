// Package history maintains bounded, deduplicated edit-history snapshots for
// poems. A snapshot captures the tracked fields (title, content, date, tags)
// as they were before a change took effect; history is a sliding window,
// oldest entries dropped first.
package history

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/quillapp/quill-engine/internal/domain"
)

// DefaultMax is the default history length bound.
const DefaultMax = 30

// Patch describes a partial edit. Nil pointer fields (and nil Tags) are
// absent from the patch and leave the record untouched.
type Patch struct {
	Title    *string
	Content  *string
	Date     *string
	Tags     []string
	Favorite *bool
	Draft    *bool
}

// Options controls snapshotting behavior for a single edit.
type Options struct {
	Snapshot bool
	Max      int
}

// DefaultOptions snapshots with the default bound.
func DefaultOptions() Options {
	return Options{Snapshot: true, Max: DefaultMax}
}

// ApplyEdit applies patch to p copy-on-write, always bumping UpdatedAt.
//
// If opts.Snapshot is set and the patch actually changes a tracked field,
// the pre-patch tracked fields are appended to the history first — unless
// they value-equal the last entry already there (two no-op-equivalent edits
// never produce two snapshots). History never exceeds opts.Max.
func ApplyEdit(p domain.Poem, patch Patch, opts Options, now func() time.Time) domain.Poem {
	if opts.Max <= 0 {
		opts.Max = DefaultMax
	}
	if now == nil {
		now = time.Now
	}

	out := p.Clone()

	if opts.Snapshot && willChange(p, patch) {
		last := lastSnapshot(out.Versions)
		if last == nil || !last.TrackedEqual(p) {
			out.Versions = append(out.Versions, snapshot(p, now()))
			if len(out.Versions) > opts.Max {
				out.Versions = slices.Clone(out.Versions[len(out.Versions)-opts.Max:])
			}
		}
	}

	applyPatch(&out, patch)
	out.Touch(now())
	return out
}

// RestoreVersion overwrites p's tracked fields from the snapshot with the
// given id and bumps UpdatedAt. Restoring does not append a snapshot of the
// overwritten state — there is no redo trail. If the version id is unknown
// the poem is returned unchanged and ok is false.
func RestoreVersion(p domain.Poem, versionID string, now func() time.Time) (domain.Poem, bool) {
	if now == nil {
		now = time.Now
	}
	for _, v := range p.Versions {
		if v.ID != versionID {
			continue
		}
		out := p.Clone()
		out.Title = v.Title
		out.Content = v.Content
		out.Date = v.Date
		out.Tags = slices.Clone(v.Tags)
		out.Touch(now())
		return out, true
	}
	return p, false
}

// willChange reports whether the patch differs from the current tracked
// fields by value. Untracked fields (favorite, draft) never trigger a
// snapshot on their own.
func willChange(p domain.Poem, patch Patch) bool {
	if patch.Title != nil && *patch.Title != p.Title {
		return true
	}
	if patch.Content != nil && *patch.Content != p.Content {
		return true
	}
	if patch.Date != nil && *patch.Date != p.Date {
		return true
	}
	if patch.Tags != nil && !slices.Equal(patch.Tags, p.Tags) {
		return true
	}
	return false
}

func applyPatch(p *domain.Poem, patch Patch) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Date != nil {
		p.Date = *patch.Date
	}
	if patch.Tags != nil {
		p.Tags = slices.Clone(patch.Tags)
	}
	if patch.Favorite != nil {
		p.Favorite = *patch.Favorite
	}
	if patch.Draft != nil {
		p.Draft = *patch.Draft
	}
}

func snapshot(p domain.Poem, at time.Time) domain.VersionSnapshot {
	return domain.VersionSnapshot{
		ID:        uuid.NewString(),
		Timestamp: at.UnixMilli(),
		Title:     p.Title,
		Content:   p.Content,
		Date:      p.Date,
		Tags:      slices.Clone(p.Tags),
	}
}

func lastSnapshot(versions []domain.VersionSnapshot) *domain.VersionSnapshot {
	if len(versions) == 0 {
		return nil
	}
	return &versions[len(versions)-1]
}
