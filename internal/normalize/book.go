package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/quillapp/quill-engine/internal/domain"
)

// Book coerces a raw value into a valid Book. A book with zero chapters is
// repaired on the spot: a single "Chapter 1" is synthesized from the legacy
// whole-document content and made active.
func (n *Normalizer) Book(raw any) domain.Book {
	var b domain.Book
	m, ok := asMap(raw)
	if !ok {
		m = map[string]any{}
	}

	if v, ok := asString(m["id"]); ok && v != "" {
		b.ID = v
	} else {
		b.ID = n.NewID("book")
	}

	if v, ok := asString(m["title"]); ok && v != "" {
		b.Title = v
	} else {
		b.Title = "Untitled"
	}

	b.Description, _ = asString(m["description"])
	b.Cover, _ = asString(m["cover"])
	b.Content, _ = asString(m["content"])
	b.Genre, _ = asString(m["genre"])
	b.Tags = Tags(m["tags"])

	if v, ok := asString(fieldOr(m, "createdAt", "created_at")); ok && parseable(v) {
		b.CreatedAt = v
	} else {
		b.CreatedAt = n.Now().Format(time.RFC3339)
	}
	if v, ok := asString(fieldOr(m, "lastEdited", "last_edited", "updatedAt")); ok && parseable(v) {
		b.LastEdited = v
	} else {
		b.LastEdited = b.CreatedAt
	}

	// Status is canonical; legacy records carried only the completed flag.
	status, _ := asString(m["status"])
	if status == "" {
		if completed, _ := asBool(m["completed"]); completed {
			status = domain.StatusPublished
		}
	}
	b.SetStatus(status)

	b.Chapters = n.chapters(m["chapters"])
	if v, ok := asString(fieldOr(m, "activeChapterId", "active_chapter_id")); ok {
		b.ActiveChapterID = v
	}
	b.RepairChapters(n.NewID("ch"))

	return b
}

// chapters rebuilds the chapter list, dropping entries that aren't objects.
// Chapter ids are backfilled; titles default positionally.
func (n *Normalizer) chapters(raw any) []domain.Chapter {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []domain.Chapter
	for _, item := range list {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		var ch domain.Chapter
		if ch.ID, ok = asString(m["id"]); !ok || ch.ID == "" {
			ch.ID = n.NewID("ch")
		}
		ch.Title, _ = asString(m["title"])
		ch.Content, _ = asString(m["content"])
		if strings.TrimSpace(ch.Title) == "" {
			ch.Title = chapterTitle(len(out) + 1)
		}
		out = append(out, ch)
	}
	return out
}

func chapterTitle(position int) string {
	return "Chapter " + strconv.Itoa(position)
}

// parseable reports whether v looks like a timestamp any of our layouts can
// read. Unparsable stored timestamps are replaced rather than propagated so
// the merge engine sees as few NaN-equivalents as possible.
func parseable(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
