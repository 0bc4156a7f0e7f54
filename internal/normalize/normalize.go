// Package normalize coerces arbitrary persisted or imported JSON into valid
// domain records. It is the single required gateway from untyped external
// data (local storage, imports, remote responses) to the Poem|Book union:
// nothing read from outside the engine is trusted without passing through it.
//
// Normalization is idempotent: normalizing an already-normalized record is a
// no-op. It never fails; every rule independently falls back to a default.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/id"
)

// Normalizer converts raw values into domain records. The zero value is not
// usable; construct with New. Clock and ID generation are injectable so
// normalization stays deterministic under test.
type Normalizer struct {
	Now   func() time.Time
	NewID func(prefix string) string
}

// New creates a Normalizer with the production clock and ID generator.
func New() *Normalizer {
	return &Normalizer{
		Now:   time.Now,
		NewID: id.MustGenerate,
	}
}

// Detect infers the record type of a raw value. Legacy releases stored poems
// and books in one table without a discriminant; the historical convention
// was a "genre:*" tag on books. An explicit type field wins, then the
// presence of chapters, then the genre tag. Everything else is a poem.
func (n *Normalizer) Detect(raw any) domain.Type {
	m, ok := asMap(raw)
	if !ok {
		return domain.TypePoem
	}
	if t, ok := asString(m["type"]); ok && domain.Type(t).Valid() {
		return domain.Type(t)
	}
	if chapters, ok := m["chapters"].([]any); ok && len(chapters) > 0 {
		return domain.TypeBook
	}
	for _, tag := range rawStrings(m["tags"]) {
		if strings.HasPrefix(strings.TrimSpace(tag), "genre:") {
			return domain.TypeBook
		}
	}
	return domain.TypePoem
}

// Tag normalizes a single tag: trim, collapse internal whitespace, truncate
// to the maximum length. Case is preserved. Returns "" for blank input.
func Tag(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	tag := strings.Join(fields, " ")
	runes := []rune(tag)
	if len(runes) > domain.MaxTagLength {
		tag = strings.TrimSpace(string(runes[:domain.MaxTagLength]))
	}
	return tag
}

// Tags normalizes a raw tag list: each entry normalized via Tag, empties
// dropped, exact duplicates removed preserving first occurrence.
func Tags(raw any) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range rawStrings(raw) {
		tag := Tag(s)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// dateLayouts are the shapes older releases persisted dates in.
var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// Date coerces a raw value into YYYY-MM-DD. Numbers are treated as unix
// milliseconds. On any failure the current date is used.
func (n *Normalizer) Date(raw any) string {
	if ms, ok := asInt64(raw); ok && ms > 0 {
		return time.UnixMilli(ms).UTC().Format(domain.DateLayout)
	}
	if s, ok := asString(raw); ok {
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(domain.DateLayout)
			}
		}
	}
	return n.Now().UTC().Format(domain.DateLayout)
}

// Coercion helpers. Values arrive from encoding/json/v2 decoding into any,
// so numbers are float64, but imports and tests may hand us native types.

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// rawStrings extracts the string elements of a raw list, skipping anything
// that isn't a string.
func rawStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		// Already-normalized records round-trip through here too.
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// field returns the first present key from m, tolerating the snake_case
// spellings some legacy exports used.
func field(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
