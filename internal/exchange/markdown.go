package exchange

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/quillapp/quill-engine/internal/domain"
)

// markupTagPattern matches common HTML tags to detect rich-text content.
var markupTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// bodyMarkdown converts rich-text markup to Markdown. Plain text passes
// through unchanged, and a failed conversion falls back to the original
// markup rather than losing the body.
func bodyMarkdown(s string) string {
	if s == "" || !markupTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}
	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// PoemMarkdown renders a poem as a standalone Markdown document.
func PoemMarkdown(p domain.Poem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	if p.Date != "" {
		fmt.Fprintf(&b, "*%s*\n\n", p.Date)
	}
	if body := bodyMarkdown(p.Content); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(p.Tags, ", "))
	}
	return b.String()
}

// BookMarkdown renders a book as a Markdown document, one section per
// chapter in order.
func BookMarkdown(bk domain.Book) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", bk.Title)
	if bk.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", bodyMarkdown(bk.Description))
	}
	for _, ch := range bk.Chapters {
		fmt.Fprintf(&b, "## %s\n\n", ch.Title)
		if body := bodyMarkdown(ch.Content); body != "" {
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}
	if len(bk.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(bk.Tags, ", "))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
