package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill-engine/internal/domain"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func seedIndex(t *testing.T, ix *Index) {
	t.Helper()
	require.NoError(t, ix.IndexPoems([]domain.Poem{
		{ID: "poem-1", Title: "Winter Morning", Content: "<p>frost on the window</p>", Tags: []string{"nature"}, UpdatedAt: 100},
		{ID: "poem-2", Title: "Harbor Lights", Content: "ships at anchor", Tags: []string{"sea"}, UpdatedAt: 200},
	}))
	require.NoError(t, ix.IndexBooks([]domain.Book{
		{
			ID: "book-1", Title: "The Long Voyage", Genre: "fiction",
			Chapters:   []domain.Chapter{{ID: "ch-1", Title: "Chapter 1", Content: "<p>the harbor at dawn</p>"}},
			LastEdited: "2024-06-01T00:00:00Z",
		},
	}))
}

func TestSearch_TitleMatch(t *testing.T) {
	ix := newTestIndex(t)
	seedIndex(t, ix)

	res, err := ix.Search(context.Background(), Params{Query: "winter", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "poem-1", res.Hits[0].ID)
	assert.Equal(t, DocTypePoem, res.Hits[0].Type)
}

func TestSearch_BodyMatchesStrippedText(t *testing.T) {
	ix := newTestIndex(t)
	seedIndex(t, ix)

	res, err := ix.Search(context.Background(), Params{Query: "frost", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "poem-1", res.Hits[0].ID)
}

func TestSearch_CrossTypeWithFilter(t *testing.T) {
	ix := newTestIndex(t)
	seedIndex(t, ix)

	// "harbor" appears in a poem title and a book chapter.
	res, err := ix.Search(context.Background(), Params{Query: "harbor", Limit: 10})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(res.Hits), 2)

	res, err = ix.Search(context.Background(), Params{Query: "harbor", Types: []DocType{DocTypeBook}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "book-1", res.Hits[0].ID)
}

func TestSearch_TagFilter(t *testing.T) {
	ix := newTestIndex(t)
	seedIndex(t, ix)

	res, err := ix.Search(context.Background(), Params{Tags: []string{"sea"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "poem-2", res.Hits[0].ID)
}

func TestIndexPoems_ReplaceDropsRemoved(t *testing.T) {
	ix := newTestIndex(t)
	seedIndex(t, ix)

	require.NoError(t, ix.IndexPoems([]domain.Poem{
		{ID: "poem-2", Title: "Harbor Lights", UpdatedAt: 300},
	}))

	res, err := ix.Search(context.Background(), Params{Query: "winter", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	// The book documents are untouched by a poem replace.
	count, err := ix.DocumentCount()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestSearch_Highlighting(t *testing.T) {
	ix := newTestIndex(t)
	seedIndex(t, ix)

	res, err := ix.Search(context.Background(), Params{Query: "winter", Limit: 10, Highlight: true})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Contains(t, res.Hits[0].Highlights["title"], "<mark>")
}
