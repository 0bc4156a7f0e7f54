// Package genre provides a canonical taxonomy for book genres. Genre is
// free text on the record itself; this package exists so that filtering and
// suggestions treat "Sci-Fi", "sci fi", and "Science Fiction" as the same
// thing without rewriting what the user typed.
package genre

import (
	"regexp"
	"strings"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// Slug converts user input to a canonical slug: lowercased, separators
// collapsed to single dashes, everything else stripped.
//
// Examples:
//
//	"Sci-Fi"        → "sci-fi"
//	"sci fi"        → "sci-fi"
//	"  Free Verse " → "free-verse"
func Slug(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// aliases maps slug variations to their canonical slug.
var aliases = map[string]string{
	// Science fiction variations
	"sci-fi":      "science-fiction",
	"scifi":       "science-fiction",
	"sf":          "science-fiction",
	"speculative": "science-fiction",

	// Fantasy variations
	"high-fantasy": "epic-fantasy",
	"grimdark":     "dark-fantasy",

	// Young adult variations
	"ya":   "young-adult",
	"teen": "young-adult",

	// Mystery/thriller
	"suspense": "thriller",
	"whodunit": "mystery",
	"crime":    "mystery",

	// Romance
	"love-story": "romance",

	// Literary
	"literary":     "literary-fiction",
	"litfic":       "literary-fiction",
	"contemporary": "literary-fiction",

	// Nonfiction variations
	"memoirs":       "memoir",
	"autobiography": "memoir",
	"non-fiction":   "nonfiction",
	"essay":         "essays",

	// Poetry collection variations
	"poems":      "poetry",
	"verse":      "poetry",
	"free-verse": "poetry",
	"chapbook":   "poetry",
}

// Canonical returns the canonical slug for a genre, resolving known
// aliases. Unknown genres pass through slugged, so two spellings of the
// same unknown genre still compare equal.
func Canonical(input string) string {
	slug := Slug(input)
	if canonical, ok := aliases[slug]; ok {
		return canonical
	}
	return slug
}

// Genre is a suggested genre with a display name and canonical slug.
type Genre struct {
	Name string
	Slug string
}

// Defaults is the suggestion list shown when starting a new book. Users can
// type anything; these are just the common cases.
var Defaults = []Genre{
	{Name: "Poetry", Slug: "poetry"},
	{Name: "Literary Fiction", Slug: "literary-fiction"},
	{Name: "Fantasy", Slug: "fantasy"},
	{Name: "Epic Fantasy", Slug: "epic-fantasy"},
	{Name: "Dark Fantasy", Slug: "dark-fantasy"},
	{Name: "Science Fiction", Slug: "science-fiction"},
	{Name: "Mystery", Slug: "mystery"},
	{Name: "Thriller", Slug: "thriller"},
	{Name: "Horror", Slug: "horror"},
	{Name: "Romance", Slug: "romance"},
	{Name: "Historical Fiction", Slug: "historical-fiction"},
	{Name: "Young Adult", Slug: "young-adult"},
	{Name: "Short Stories", Slug: "short-stories"},
	{Name: "Memoir", Slug: "memoir"},
	{Name: "Essays", Slug: "essays"},
	{Name: "Nonfiction", Slug: "nonfiction"},
}

// Matches reports whether two genre strings name the same genre after
// canonicalization. Empty strings match nothing.
func Matches(a, b string) bool {
	ca, cb := Canonical(a), Canonical(b)
	return ca != "" && ca == cb
}
