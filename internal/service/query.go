package service

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/genre"
)

// SortMode selects a collection ordering. All sorts are stable.
type SortMode string

// Sort modes.
const (
	SortNewest  SortMode = "newest"
	SortOldest  SortMode = "oldest"
	SortTitleAZ SortMode = "title-az"
	SortTitleZA SortMode = "title-za"
)

// fold performs Unicode case folding for caseless matching. Tags like
// "Love" and "love" are distinct in storage but match the same queries.
// The Caser is built per call: a cases.Caser carries state and is not safe
// for concurrent use across goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}

// SearchPoems returns poems whose title, tag-stripped content, or tags
// contain the query, case-insensitively. An empty query returns the input
// unchanged.
func SearchPoems(poems []domain.Poem, query string) []domain.Poem {
	query = fold(strings.TrimSpace(query))
	if query == "" {
		return poems
	}
	var out []domain.Poem
	for _, p := range poems {
		if strings.Contains(fold(p.Title), query) ||
			strings.Contains(fold(StripMarkup(p.Content)), query) ||
			anyTagContains(p.Tags, query) {
			out = append(out, p)
		}
	}
	return out
}

// SearchBooks returns books whose title, description, tag-stripped chapter
// content, or tags contain the query, case-insensitively.
func SearchBooks(books []domain.Book, query string) []domain.Book {
	query = fold(strings.TrimSpace(query))
	if query == "" {
		return books
	}
	var out []domain.Book
	for _, b := range books {
		if strings.Contains(fold(b.Title), query) ||
			strings.Contains(fold(b.Description), query) ||
			anyTagContains(b.Tags, query) ||
			anyChapterContains(b.Chapters, query) {
			out = append(out, b)
		}
	}
	return out
}

func anyTagContains(tags []string, foldedQuery string) bool {
	for _, tag := range tags {
		if strings.Contains(fold(tag), foldedQuery) {
			return true
		}
	}
	return false
}

func anyChapterContains(chapters []domain.Chapter, foldedQuery string) bool {
	for _, ch := range chapters {
		if strings.Contains(fold(StripMarkup(ch.Content)), foldedQuery) {
			return true
		}
	}
	return false
}

// FilterPoemsByTags keeps poems carrying at least one of the wanted tags,
// matched case-insensitively.
func FilterPoemsByTags(poems []domain.Poem, wanted []string) []domain.Poem {
	if len(wanted) == 0 {
		return poems
	}
	want := foldSet(wanted)
	var out []domain.Poem
	for _, p := range poems {
		if tagsIntersect(p.Tags, want) {
			out = append(out, p)
		}
	}
	return out
}

// FilterBooksByTags keeps books carrying at least one of the wanted tags.
func FilterBooksByTags(books []domain.Book, wanted []string) []domain.Book {
	if len(wanted) == 0 {
		return books
	}
	want := foldSet(wanted)
	var out []domain.Book
	for _, b := range books {
		if tagsIntersect(b.Tags, want) {
			out = append(out, b)
		}
	}
	return out
}

// FilterBooksByGenre keeps books whose genre names the wanted genre,
// resolving spelling variations ("Sci-Fi" matches "science fiction"). An
// empty wanted genre returns the input unchanged.
func FilterBooksByGenre(books []domain.Book, wanted string) []domain.Book {
	if strings.TrimSpace(wanted) == "" {
		return books
	}
	var out []domain.Book
	for _, b := range books {
		if genre.Matches(b.Genre, wanted) {
			out = append(out, b)
		}
	}
	return out
}

func foldSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[fold(t)] = true
	}
	return set
}

func tagsIntersect(tags []string, want map[string]bool) bool {
	for _, t := range tags {
		if want[fold(t)] {
			return true
		}
	}
	return false
}

// SortPoems returns a sorted copy. Newest/oldest order by the poem's
// calendar date with UpdatedAt as tiebreaker; title sorts fold case.
func SortPoems(poems []domain.Poem, mode SortMode) []domain.Poem {
	out := slices.Clone(poems)
	switch mode {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b domain.Poem) int {
			if c := strings.Compare(a.Date, b.Date); c != 0 {
				return c
			}
			return cmpInt64(a.UpdatedAt, b.UpdatedAt)
		})
	case SortTitleAZ:
		slices.SortStableFunc(out, func(a, b domain.Poem) int {
			return strings.Compare(fold(a.Title), fold(b.Title))
		})
	case SortTitleZA:
		slices.SortStableFunc(out, func(a, b domain.Poem) int {
			return strings.Compare(fold(b.Title), fold(a.Title))
		})
	default: // SortNewest
		slices.SortStableFunc(out, func(a, b domain.Poem) int {
			if c := strings.Compare(b.Date, a.Date); c != 0 {
				return c
			}
			return cmpInt64(b.UpdatedAt, a.UpdatedAt)
		})
	}
	return out
}

// SortBooks returns a sorted copy; newest/oldest order by LastEdited.
func SortBooks(books []domain.Book, mode SortMode) []domain.Book {
	out := slices.Clone(books)
	switch mode {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b domain.Book) int {
			return strings.Compare(a.LastEdited, b.LastEdited)
		})
	case SortTitleAZ:
		slices.SortStableFunc(out, func(a, b domain.Book) int {
			return strings.Compare(fold(a.Title), fold(b.Title))
		})
	case SortTitleZA:
		slices.SortStableFunc(out, func(a, b domain.Book) int {
			return strings.Compare(fold(b.Title), fold(a.Title))
		})
	default:
		slices.SortStableFunc(out, func(a, b domain.Book) int {
			return strings.Compare(b.LastEdited, a.LastEdited)
		})
	}
	return out
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
