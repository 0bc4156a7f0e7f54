package service

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup extracts the plain text of a rich-text markup string. Search
// matches what the user sees, not the tag soup around it. Input that isn't
// well-formed HTML degrades gracefully: the tokenizer emits whatever text it
// can find.
func StripMarkup(markup string) string {
	if markup == "" || !strings.ContainsRune(markup, '<') {
		return markup
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
	}
	return b.String()
}
