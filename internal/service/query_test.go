package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill-engine/internal/domain"
)

func queryPoems() []domain.Poem {
	return []domain.Poem{
		{ID: "p1", Title: "Winter Morning", Content: "<p>Frost on the window</p>", Date: "2024-01-10", Tags: []string{"Nature"}, UpdatedAt: 10},
		{ID: "p2", Title: "summer", Content: "heat and light", Date: "2024-07-01", Tags: []string{"nature", "sun"}, UpdatedAt: 20},
		{ID: "p3", Title: "Aubade", Content: "dawn again", Date: "2024-01-10", Tags: []string{}, UpdatedAt: 30},
	}
}

func TestSearchPoems_CaseInsensitive(t *testing.T) {
	got := SearchPoems(queryPoems(), "WINTER")
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}

func TestSearchPoems_MatchesStrippedContent(t *testing.T) {
	// Query must match the visible text, not the markup around it.
	got := SearchPoems(queryPoems(), "frost")
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)

	assert.Empty(t, SearchPoems(queryPoems(), "<p>"))
}

func TestSearchPoems_MatchesTags(t *testing.T) {
	got := SearchPoems(queryPoems(), "sun")
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)
}

func TestSearchPoems_EmptyQueryReturnsAll(t *testing.T) {
	assert.Len(t, SearchPoems(queryPoems(), "  "), 3)
}

func TestFilterPoemsByTags_CaseInsensitive(t *testing.T) {
	// "Nature" and "nature" are distinct stored tags but match the same
	// filter.
	got := FilterPoemsByTags(queryPoems(), []string{"NATURE"})
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p2", got[1].ID)

	assert.Len(t, FilterPoemsByTags(queryPoems(), nil), 3)
	assert.Empty(t, FilterPoemsByTags(queryPoems(), []string{"city"}))
}

func TestSortPoems(t *testing.T) {
	poems := queryPoems()

	newest := SortPoems(poems, SortNewest)
	assert.Equal(t, []string{"p2", "p3", "p1"}, poemIDs(newest))

	oldest := SortPoems(poems, SortOldest)
	assert.Equal(t, []string{"p1", "p3", "p2"}, poemIDs(oldest))

	az := SortPoems(poems, SortTitleAZ)
	assert.Equal(t, []string{"p3", "p2", "p1"}, poemIDs(az))

	za := SortPoems(poems, SortTitleZA)
	assert.Equal(t, []string{"p1", "p2", "p3"}, poemIDs(za))

	// Input order untouched.
	assert.Equal(t, []string{"p1", "p2", "p3"}, poemIDs(poems))
}

func poemIDs(poems []domain.Poem) []string {
	out := make([]string, len(poems))
	for i, p := range poems {
		out[i] = p.ID
	}
	return out
}

func TestSearchBooks_MatchesChapterContent(t *testing.T) {
	books := []domain.Book{
		{ID: "b1", Title: "Novel", Chapters: []domain.Chapter{{ID: "ch-1", Content: "<p>the harbor at night</p>"}}},
		{ID: "b2", Title: "Memoir", Description: "growing up"},
	}
	got := SearchBooks(books, "harbor")
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].ID)

	got = SearchBooks(books, "GROWING")
	require.Len(t, got, 1)
	assert.Equal(t, "b2", got[0].ID)
}

func TestFilterBooksByGenre_ResolvesSpellingVariants(t *testing.T) {
	books := []domain.Book{
		{ID: "b1", Genre: "Sci-Fi"},
		{ID: "b2", Genre: "Horror"},
		{ID: "b3"},
	}

	got := FilterBooksByGenre(books, "science fiction")
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].ID)

	// Empty filter is a no-op; books without a genre never match.
	assert.Len(t, FilterBooksByGenre(books, ""), 3)
	assert.Empty(t, FilterBooksByGenre(books, "romance"))
}

func TestSortBooks_ByLastEdited(t *testing.T) {
	books := []domain.Book{
		{ID: "b1", Title: "older", LastEdited: "2024-01-01T00:00:00Z"},
		{ID: "b2", Title: "newer", LastEdited: "2024-06-01T00:00:00Z"},
	}
	got := SortBooks(books, SortNewest)
	assert.Equal(t, "b2", got[0].ID)
	got = SortBooks(books, SortOldest)
	assert.Equal(t, "b1", got[0].ID)
}

func TestQueryHelpers_ConcurrentCallersAreSafe(t *testing.T) {
	poems := []domain.Poem{
		{ID: "p1", Title: "Über Nacht", Tags: []string{"Nature"}},
		{ID: "p2", Title: "harbor", Content: "<p>the SEA</p>"},
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				got := SearchPoems(poems, "ÜBER")
				if len(got) != 1 || got[0].ID != "p1" {
					t.Error("concurrent search returned wrong result")
					return
				}
				if len(FilterPoemsByTags(poems, []string{"nature"})) != 1 {
					t.Error("concurrent filter returned wrong result")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "plain text", StripMarkup("plain text"))
	assert.Equal(t, "first light", StripMarkup("<p>first <strong>light</strong></p>"))
	assert.Equal(t, "", StripMarkup(""))
	// Malformed markup degrades to whatever text is recoverable.
	assert.Equal(t, "unclosed", StripMarkup("<p>unclosed"))
}
