package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headingStyles = map[int]lipgloss.Style{
		1: lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("39")),
		2: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		3: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		4: lipgloss.NewStyle().Bold(true),
	}

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("24")).Padding(0, 1)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	italicStyle  = lipgloss.NewStyle().Italic(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "250", Dark: "240"})
)

// Terminal renders the document as styled text for a terminal of the given
// width. A non-positive width disables wrapping.
func (d *Document) Terminal(width int) string {
	if d.Empty() {
		return "No content available\n"
	}
	wrap := lipgloss.NewStyle()
	if width > 0 {
		wrap = wrap.Width(width)
	}

	var b strings.Builder
	for i, blk := range d.Blocks {
		if i > 0 && (blk.Kind == BlockHeading || blk.Kind == BlockTable) {
			b.WriteString("\n")
		}
		switch blk.Kind {
		case BlockHeading:
			style, ok := headingStyles[blk.Level]
			if !ok {
				style = headingStyles[4]
			}
			b.WriteString(style.Render(blk.Text))
		case BlockList:
			for j, item := range blk.Items {
				if j > 0 {
					b.WriteString("\n")
				}
				b.WriteString(wrap.Render("  • " + terminalInline(item)))
			}
		case BlockTable:
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(borderStyle).
				Headers(blk.Header...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			for _, row := range blk.Rows {
				t.Row(row...)
			}
			b.WriteString(t.String())
		default:
			b.WriteString(wrap.Render(terminalInline(blk.Text)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SectionTitle renders a section banner.
func SectionTitle(title string) string {
	return sectionStyle.Render(title)
}

// TerminalSections renders each section under a banner.
func TerminalSections(sections []Section, width int) string {
	if len(sections) == 0 {
		return "No content available\n"
	}
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(SectionTitle(s.Title))
		b.WriteString("\n\n")
		b.WriteString(Parse(s.Text).Terminal(width))
	}
	return b.String()
}

func terminalInline(s string) string {
	s = boldPattern.ReplaceAllStringFunc(s, func(m string) string {
		return boldStyle.Render(m[2 : len(m)-2])
	})
	return italicPattern.ReplaceAllStringFunc(s, func(m string) string {
		return italicStyle.Render(m[1 : len(m)-1])
	})
}
