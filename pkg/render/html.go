package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// NoContent is rendered for empty input.
const NoContent = `<p class="no-content">No content available</p>`

var (
	boldPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.+?)\*`)

	blockTags      = `(?:table|thead|tbody|tr|ul|ol|li|h[1-6]|pre|blockquote|div)`
	openInsideP    = regexp.MustCompile(`<p>\s*(<` + blockTags + `[\s>])`)
	closeInsideP   = regexp.MustCompile(`(</` + blockTags + `>)\s*</p>`)
	emptyParagraph = regexp.MustCompile(`<p>\s*</p>`)
)

// Render converts report text to an HTML fragment. It never panics; on an
// internal failure it degrades to escaped paragraphs.
func Render(text string) (out string) {
	if strings.TrimSpace(text) == "" {
		return NoContent
	}
	defer func() {
		if r := recover(); r != nil {
			out = plainParagraphs(text)
		}
	}()
	return StripBlockParagraphs(Parse(text).HTML())
}

// HTML renders the document.
func (d *Document) HTML() string {
	if d.Empty() {
		return NoContent
	}
	var b strings.Builder
	for _, blk := range d.Blocks {
		switch blk.Kind {
		case BlockHeading:
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", blk.Level, Inline(blk.Text), blk.Level)
		case BlockList:
			b.WriteString("<ul>\n")
			for _, item := range blk.Items {
				fmt.Fprintf(&b, "<li>%s</li>\n", Inline(item))
			}
			b.WriteString("</ul>\n")
		case BlockTable:
			writeTable(&b, blk)
		default:
			fmt.Fprintf(&b, "<p>%s</p>\n", Inline(blk.Text))
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, blk Block) {
	b.WriteString("<table>\n<thead>\n<tr>")
	for _, h := range blk.Header {
		fmt.Fprintf(b, "<th>%s</th>", html.EscapeString(h))
	}
	b.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range blk.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(cell))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
}

// Inline escapes s and applies **bold** and *italic* markup.
func Inline(s string) string {
	s = html.EscapeString(s)
	s = boldPattern.ReplaceAllString(s, "<strong>$1</strong>")
	return italicPattern.ReplaceAllString(s, "<em>$1</em>")
}

// StripBlockParagraphs removes <p> tags wrapped directly around block-level
// elements, along with paragraphs left empty.
func StripBlockParagraphs(s string) string {
	s = openInsideP.ReplaceAllString(s, "$1")
	s = closeInsideP.ReplaceAllString(s, "$1")
	return emptyParagraph.ReplaceAllString(s, "")
}

func plainParagraphs(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(line))
		}
	}
	if b.Len() == 0 {
		return NoContent
	}
	return b.String()
}
