package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill-engine/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// tickingClock returns a clock advancing one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func basePoem() domain.Poem {
	return domain.Poem{
		ID:        "p1",
		Title:     "Dawn",
		Content:   "<p>first</p>",
		Date:      "2024-01-01",
		Tags:      []string{"morning"},
		CreatedAt: 1000,
		UpdatedAt: 1000,
	}
}

func TestApplyEdit_SnapshotsPrePatchState(t *testing.T) {
	clock := tickingClock()
	p := basePoem()

	got := ApplyEdit(p, Patch{Content: ptr("<p>second</p>")}, DefaultOptions(), clock)

	require.Len(t, got.Versions, 1)
	// The snapshot captures the record as it was BEFORE the edit.
	assert.Equal(t, "<p>first</p>", got.Versions[0].Content)
	assert.Equal(t, "Dawn", got.Versions[0].Title)
	assert.NotEmpty(t, got.Versions[0].ID)
	assert.Equal(t, "<p>second</p>", got.Content)
	assert.Greater(t, got.UpdatedAt, p.UpdatedAt)
}

func TestApplyEdit_OriginalNotMutated(t *testing.T) {
	p := basePoem()
	_ = ApplyEdit(p, Patch{Title: ptr("Dusk"), Tags: []string{"evening"}}, DefaultOptions(), tickingClock())

	assert.Equal(t, "Dawn", p.Title)
	assert.Equal(t, []string{"morning"}, p.Tags)
	assert.Empty(t, p.Versions)
}

func TestApplyEdit_NoSnapshotWhenNothingChanges(t *testing.T) {
	p := basePoem()

	got := ApplyEdit(p, Patch{Title: ptr("Dawn")}, DefaultOptions(), tickingClock())
	assert.Empty(t, got.Versions)
	// UpdatedAt is still bumped: no mutation without a timestamp bump.
	assert.Greater(t, got.UpdatedAt, p.UpdatedAt)
}

func TestApplyEdit_UntrackedFieldsDontSnapshot(t *testing.T) {
	p := basePoem()

	got := ApplyEdit(p, Patch{Favorite: ptr(true)}, DefaultOptions(), tickingClock())
	assert.Empty(t, got.Versions)
	assert.True(t, got.Favorite)
}

func TestApplyEdit_SnapshotDisabled(t *testing.T) {
	p := basePoem()

	got := ApplyEdit(p, Patch{Content: ptr("x")}, Options{Snapshot: false, Max: DefaultMax}, tickingClock())
	assert.Empty(t, got.Versions)
	assert.Equal(t, "x", got.Content)
}

func TestApplyEdit_DedupAgainstLastEntry(t *testing.T) {
	clock := tickingClock()
	p := basePoem()

	p2 := ApplyEdit(p, Patch{Content: ptr("<p>second</p>")}, DefaultOptions(), clock)
	require.Len(t, p2.Versions, 1)

	// Restore back to the snapshotted state, then edit again: the pre-patch
	// state value-equals the last history entry, so no duplicate snapshot.
	p3, ok := RestoreVersion(p2, p2.Versions[0].ID, clock)
	require.True(t, ok)
	p4 := ApplyEdit(p3, Patch{Content: ptr("<p>third</p>")}, DefaultOptions(), clock)
	assert.Len(t, p4.Versions, 1)
}

func TestApplyEdit_HistoryBounded(t *testing.T) {
	clock := tickingClock()
	p := basePoem()

	for i := range 50 {
		p = ApplyEdit(p, Patch{Content: ptr(fmt.Sprintf("<p>rev %d</p>", i))}, DefaultOptions(), clock)
	}

	assert.Len(t, p.Versions, DefaultMax)
	// Oldest entries dropped first: the newest snapshot is rev 48's pre-state.
	assert.Equal(t, "<p>rev 48</p>", p.Versions[len(p.Versions)-1].Content)
}

func TestApplyEdit_SequentialEditsProperty(t *testing.T) {
	// Scenario: create, edit content twice with different text. Two distinct
	// versions, updatedAt strictly increasing.
	clock := tickingClock()
	p := domain.Poem{ID: "p1", Title: "Dawn", Date: "2024-01-01", CreatedAt: 1, UpdatedAt: 1}

	p1 := ApplyEdit(p, Patch{Content: ptr("<p>one</p>")}, DefaultOptions(), clock)
	p2 := ApplyEdit(p1, Patch{Content: ptr("<p>two</p>")}, DefaultOptions(), clock)

	require.Len(t, p2.Versions, 2)
	assert.NotEqual(t, p2.Versions[0], p2.Versions[1])
	assert.Greater(t, p1.UpdatedAt, p.UpdatedAt)
	assert.Greater(t, p2.UpdatedAt, p1.UpdatedAt)
}

func TestRestoreVersion(t *testing.T) {
	clock := tickingClock()
	p := basePoem()
	p = ApplyEdit(p, Patch{Content: ptr("<p>second</p>"), Title: ptr("Noon")}, DefaultOptions(), clock)
	p = ApplyEdit(p, Patch{Content: ptr("<p>third</p>")}, DefaultOptions(), clock)
	require.Len(t, p.Versions, 2)

	target := p.Versions[0] // the original state
	before := p.UpdatedAt

	got, ok := RestoreVersion(p, target.ID, clock)
	require.True(t, ok)
	assert.Equal(t, target.Title, got.Title)
	assert.Equal(t, target.Content, got.Content)
	assert.Equal(t, target.Date, got.Date)
	assert.Equal(t, target.Tags, got.Tags)
	assert.Greater(t, got.UpdatedAt, before)
	// No redo trail: the versions array itself is unchanged.
	assert.Equal(t, p.Versions, got.Versions)
}

func TestRestoreVersion_UnknownID(t *testing.T) {
	p := basePoem()

	got, ok := RestoreVersion(p, "nope", tickingClock())
	assert.False(t, ok)
	assert.Equal(t, p, got)
}
