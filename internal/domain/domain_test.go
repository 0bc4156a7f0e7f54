package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoemTouch_Monotonic(t *testing.T) {
	p := Poem{UpdatedAt: 1000}

	// A clock that went backwards must not move UpdatedAt backwards.
	p.Touch(time.UnixMilli(500))
	assert.Equal(t, int64(1001), p.UpdatedAt)

	// Same-millisecond edits still strictly increase.
	p.Touch(time.UnixMilli(1001))
	assert.Equal(t, int64(1002), p.UpdatedAt)

	// A genuinely later clock wins.
	p.Touch(time.UnixMilli(5000))
	assert.Equal(t, int64(5000), p.UpdatedAt)
}

func TestPoemClone_Independent(t *testing.T) {
	p := Poem{
		ID:   "poem-1",
		Tags: []string{"love", "nature"},
		Versions: []VersionSnapshot{
			{ID: "v1", Tags: []string{"love"}},
		},
	}

	c := p.Clone()
	c.Tags[0] = "changed"
	c.Versions[0].Tags[0] = "changed"

	assert.Equal(t, "love", p.Tags[0])
	assert.Equal(t, "love", p.Versions[0].Tags[0])
}

func TestSnapshotTrackedEqual(t *testing.T) {
	p := Poem{Title: "Dawn", Content: "<p>light</p>", Date: "2024-01-01", Tags: []string{"morning"}}
	v := VersionSnapshot{Title: "Dawn", Content: "<p>light</p>", Date: "2024-01-01", Tags: []string{"morning"}}
	assert.True(t, v.TrackedEqual(p))

	v.Content = "<p>dark</p>"
	assert.False(t, v.TrackedEqual(p))
}

func TestBookSetStatus(t *testing.T) {
	var b Book

	b.SetStatus(StatusPublished)
	assert.Equal(t, StatusPublished, b.Status)
	assert.True(t, b.Completed)

	b.SetStatus(StatusDraft)
	assert.Equal(t, StatusDraft, b.Status)
	assert.False(t, b.Completed)

	// Unknown values collapse to draft.
	b.SetStatus("published!!")
	assert.Equal(t, StatusDraft, b.Status)
}

func TestBookRepairChapters_Synthesizes(t *testing.T) {
	b := Book{Content: "<p>the old manuscript</p>"}

	repaired := b.RepairChapters("ch-1")
	require.True(t, repaired)
	require.Len(t, b.Chapters, 1)
	assert.Equal(t, "Chapter 1", b.Chapters[0].Title)
	assert.Equal(t, "<p>the old manuscript</p>", b.Chapters[0].Content)
	assert.Equal(t, "ch-1", b.ActiveChapterID)
}

func TestBookRepairChapters_FixesDanglingActive(t *testing.T) {
	b := Book{
		Chapters:        []Chapter{{ID: "ch-a", Title: "One"}},
		ActiveChapterID: "ch-deleted",
	}

	repaired := b.RepairChapters("ch-unused")
	assert.False(t, repaired)
	assert.Equal(t, "ch-a", b.ActiveChapterID)
}

func TestBookEditedAt(t *testing.T) {
	b := Book{LastEdited: "2024-06-01T10:30:00Z"}
	ts, ok := b.EditedAt()
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())

	b.LastEdited = "not a timestamp"
	_, ok = b.EditedAt()
	assert.False(t, ok)

	b.LastEdited = ""
	_, ok = b.EditedAt()
	assert.False(t, ok)
}
