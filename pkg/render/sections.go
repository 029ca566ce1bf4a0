package render

import (
	"fmt"
	"html"
	"strings"
)

// Section is one named part of an analysis result.
type Section struct {
	Key   string
	Title string
	Text  string
}

// RenderSections renders each section under its own heading, in order.
func RenderSections(sections []Section) string {
	if len(sections) == 0 {
		return NoContent
	}
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "<div class=\"analysis-section\" data-section=\"%s\">\n<h2 class=\"section-title\">%s</h2>\n%s</div>\n",
			html.EscapeString(s.Key), html.EscapeString(s.Title), Render(s.Text))
	}
	return b.String()
}
