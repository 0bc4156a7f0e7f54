package service

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill-engine/internal/domain"
	domainerrors "github.com/quillapp/quill-engine/internal/errors"
	"github.com/quillapp/quill-engine/internal/scope"
	"github.com/quillapp/quill-engine/internal/store"
)

func newTestBooks(t *testing.T) (*Books, *store.Adapter) {
	t.Helper()
	adapter := store.NewAdapter(store.NewMemory(), nil, nil)

	s := NewBooks(adapter, nil, nil, nil)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	s.newID = func(prefix string) string {
		seq++
		return prefix + "-" + strconv.Itoa(seq)
	}
	return s, adapter
}

func TestBooksCreate_StartsWithOneChapter(t *testing.T) {
	s, adapter := newTestBooks(t)

	b, err := s.Create(CreateBookInput{Title: "Novel", Genre: "fiction"})
	require.NoError(t, err)

	require.Len(t, b.Chapters, 1)
	assert.Equal(t, "Chapter 1", b.Chapters[0].Title)
	assert.Equal(t, b.Chapters[0].ID, b.ActiveChapterID)
	assert.Equal(t, domain.StatusDraft, b.Status)
	assert.False(t, b.Completed)
	assert.Equal(t, b.CreatedAt, b.LastEdited)

	require.Len(t, adapter.ReadBooks(scope.Anonymous), 1)
}

func TestBooksCreate_RequiresTitle(t *testing.T) {
	s, _ := newTestBooks(t)
	_, err := s.Create(CreateBookInput{})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestBooksUpdate_RepairsAndBumps(t *testing.T) {
	s, _ := newTestBooks(t)
	b, _ := s.Create(CreateBookInput{Title: "Novel"})

	b.Title = "Novel, revised"
	b.Chapters = nil // a broken caller payload must not strip the invariant
	got := s.Update(b)
	require.Len(t, got, 1)
	assert.Equal(t, "Novel, revised", got[0].Title)
	require.Len(t, got[0].Chapters, 1)
	assert.Greater(t, got[0].LastEdited, b.CreatedAt)
}

func TestBooksSetStatus_SyncsLegacyFlag(t *testing.T) {
	s, _ := newTestBooks(t)
	b, _ := s.Create(CreateBookInput{Title: "Novel"})

	got := s.SetStatus(b.ID, domain.StatusPublished)
	assert.Equal(t, domain.StatusPublished, got[0].Status)
	assert.True(t, got[0].Completed)

	got = s.SetStatus(b.ID, "bogus")
	assert.Equal(t, domain.StatusDraft, got[0].Status)
	assert.False(t, got[0].Completed)
}

func TestBooksDelete(t *testing.T) {
	s, _ := newTestBooks(t)
	b1, _ := s.Create(CreateBookInput{Title: "one"})
	_, err := s.Create(CreateBookInput{Title: "two"})
	require.NoError(t, err)

	got := s.Delete(b1.ID)
	require.Len(t, got, 1)
	assert.Equal(t, "two", got[0].Title)
}

func TestBooksDuplicate_FreshChapterIDs(t *testing.T) {
	s, _ := newTestBooks(t)
	b, _ := s.Create(CreateBookInput{Title: "Novel"})

	got := s.Duplicate(b.ID)
	require.Len(t, got, 2)
	dup := got[1]
	assert.Equal(t, "Novel (Copy)", dup.Title)
	assert.NotEqual(t, b.ID, dup.ID)
	require.Len(t, dup.Chapters, 1)
	assert.NotEqual(t, b.Chapters[0].ID, dup.Chapters[0].ID)
	assert.Equal(t, dup.Chapters[0].ID, dup.ActiveChapterID)
}

func TestBooksAddChapter(t *testing.T) {
	s, _ := newTestBooks(t)
	b, _ := s.Create(CreateBookInput{Title: "Novel"})

	got := s.AddChapter(b.ID, "")
	require.Len(t, got[0].Chapters, 2)
	assert.Equal(t, "Chapter 2", got[0].Chapters[1].Title)
	assert.Equal(t, got[0].Chapters[1].ID, got[0].ActiveChapterID)

	got = s.AddChapter(b.ID, "Epilogue")
	assert.Equal(t, "Epilogue", got[0].Chapters[2].Title)
}

func TestBooksUpdateChapter(t *testing.T) {
	s, _ := newTestBooks(t)
	b, _ := s.Create(CreateBookInput{Title: "Novel"})
	chID := b.Chapters[0].ID

	got := s.UpdateChapter(b.ID, domain.Chapter{ID: chID, Title: "Opening", Content: "words"})
	assert.Equal(t, "Opening", got[0].Chapters[0].Title)
	assert.Equal(t, "words", got[0].Chapters[0].Content)

	before := got[0].LastEdited
	got = s.UpdateChapter(b.ID, domain.Chapter{ID: "ch-missing", Title: "ghost"})
	assert.Equal(t, before, got[0].LastEdited)
}

func TestBooksDeleteChapter_KeepsAtLeastOne(t *testing.T) {
	s, _ := newTestBooks(t)
	b, _ := s.Create(CreateBookInput{Title: "Novel"})
	first := b.Chapters[0].ID

	// Refuses to delete the only chapter.
	got := s.DeleteChapter(b.ID, first)
	require.Len(t, got[0].Chapters, 1)

	got = s.AddChapter(b.ID, "Two")
	second := got[0].Chapters[1].ID

	// Deleting the active chapter moves the pointer.
	got = s.SetActiveChapter(b.ID, second)
	got = s.DeleteChapter(b.ID, second)
	require.Len(t, got[0].Chapters, 1)
	assert.Equal(t, first, got[0].ActiveChapterID)
}

func TestBooksSetActiveChapter_UnknownIDNoop(t *testing.T) {
	s, _ := newTestBooks(t)
	b, _ := s.Create(CreateBookInput{Title: "Novel"})

	got := s.SetActiveChapter(b.ID, "ch-missing")
	assert.Equal(t, b.ActiveChapterID, got[0].ActiveChapterID)
}

func TestBooksImportJSON_MergesByLastEdited(t *testing.T) {
	s, adapter := newTestBooks(t)
	adapter.WriteBooks(scope.Anonymous, []domain.Book{{
		ID: "book-1", Title: "older local",
		CreatedAt: "2024-01-01T00:00:00Z", LastEdited: "2024-02-01T00:00:00Z",
		Chapters: []domain.Chapter{{ID: "ch-1", Title: "Chapter 1"}},
	}})

	doc := []byte(`{"version":1,"records":[
		{"id":"book-1","title":"newer import","createdAt":"2024-01-01T00:00:00Z","lastEdited":"2024-06-01T00:00:00Z","chapters":[{"id":"ch-1","title":"Chapter 1"}]}
	]}`)
	got, err := s.ImportJSON(doc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "newer import", got[0].Title)
}
