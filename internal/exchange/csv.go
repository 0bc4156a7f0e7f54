package exchange

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/normalize"
)

// tagSeparator joins tags inside a single CSV cell. Normalization does not
// forbid "|" in a tag, so a tag containing the separator splits on import;
// that lossiness is part of the format, matching the documented CSV shape.
const tagSeparator = "|"

var csvHeader = []string{"id", "title", "content", "date", "tags", "favorite", "draft", "createdAt", "updatedAt"}

// ExportPoemsCSV serializes poems as CSV with a fixed header row. Version
// history does not survive the trip; CSV is a flat snapshot format.
func ExportPoemsCSV(poems []domain.Poem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range poems {
		row := []string{
			p.ID,
			p.Title,
			p.Content,
			p.Date,
			strings.Join(p.Tags, tagSeparator),
			strconv.FormatBool(p.Favorite),
			strconv.FormatBool(p.Draft),
			strconv.FormatInt(p.CreatedAt, 10),
			strconv.FormatInt(p.UpdatedAt, 10),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ImportPoemsCSV parses poems from CSV produced by ExportPoemsCSV. Columns
// are matched by header name, so reordered or partial files still import;
// each row is normalized like any other untrusted input.
func ImportPoemsCSV(data []byte, n *normalize.Normalizer) ([]domain.Poem, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv document")
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, fmt.Errorf("csv header missing title column")
	}

	if n == nil {
		n = normalize.New()
	}

	cell := func(row []string, name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	out := make([]domain.Poem, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raw := map[string]any{}
		for _, name := range []string{"id", "title", "content", "date", "createdAt", "updatedAt"} {
			if v, ok := cell(row, name); ok && v != "" {
				raw[name] = v
			}
		}
		if v, ok := cell(row, "tags"); ok && v != "" {
			parts := strings.Split(v, tagSeparator)
			tags := make([]any, len(parts))
			for i, p := range parts {
				tags[i] = p
			}
			raw["tags"] = tags
		}
		for _, name := range []string{"favorite", "draft"} {
			if v, ok := cell(row, name); ok {
				if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
					raw[name] = b
				}
			}
		}
		out = append(out, n.Poem(raw))
	}
	return out, nil
}
