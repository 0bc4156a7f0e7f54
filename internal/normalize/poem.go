package normalize

import (
	"github.com/quillapp/quill-engine/internal/domain"
)

// Poem coerces a raw value into a valid Poem. Every rule falls back
// independently:
//
//   - missing/invalid id        -> fresh NanoID
//   - missing/invalid title     -> "Untitled"
//   - missing/invalid content   -> ""
//   - missing/invalid date      -> current date, stored as YYYY-MM-DD
//   - missing/invalid tags      -> empty set (trimmed, collapsed, truncated)
//   - missing createdAt         -> now; missing updatedAt -> createdAt
//   - malformed versions        -> dropped entry by entry
func (n *Normalizer) Poem(raw any) domain.Poem {
	var p domain.Poem
	m, ok := asMap(raw)
	if !ok {
		m = map[string]any{}
	}

	if v, ok := asString(m["id"]); ok && v != "" {
		p.ID = v
	} else {
		p.ID = n.NewID("poem")
	}

	if v, ok := asString(m["title"]); ok && v != "" {
		p.Title = v
	} else {
		p.Title = "Untitled"
	}

	p.Content, _ = asString(m["content"])
	p.Date = n.Date(m["date"])
	p.Tags = Tags(m["tags"])
	p.Favorite, _ = asBool(m["favorite"])
	p.Draft, _ = asBool(m["draft"])

	if v, ok := asInt64(fieldOr(m, "createdAt", "created_at")); ok && v > 0 {
		p.CreatedAt = v
	} else {
		p.CreatedAt = n.Now().UnixMilli()
	}
	if v, ok := asInt64(fieldOr(m, "updatedAt", "updated_at")); ok && v > 0 {
		p.UpdatedAt = v
	} else {
		p.UpdatedAt = p.CreatedAt
	}

	p.Versions = n.versions(m["versions"])
	return p
}

// versions rebuilds the snapshot history, skipping entries too malformed to
// carry any tracked state.
func (n *Normalizer) versions(raw any) []domain.VersionSnapshot {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []domain.VersionSnapshot
	for _, item := range list {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		var v domain.VersionSnapshot
		if v.ID, ok = asString(m["id"]); !ok || v.ID == "" {
			continue
		}
		v.Timestamp, _ = asInt64(m["ts"])
		v.Title, _ = asString(m["title"])
		v.Content, _ = asString(m["content"])
		v.Date, _ = asString(m["date"])
		v.Tags = Tags(m["tags"])
		out = append(out, v)
	}
	return out
}

func fieldOr(m map[string]any, keys ...string) any {
	v, _ := field(m, keys...)
	return v
}
