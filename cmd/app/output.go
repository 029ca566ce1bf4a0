package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/service/filter"
	tracker "IntelliMarket/internal/service/progress"
	"IntelliMarket/internal/usecase"
	xhttp "IntelliMarket/pkg/http"
	"IntelliMarket/pkg/render"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle = lipgloss.NewStyle().Bold(true).Width(10)
)

// progressBar draws tracker snapshots on a single terminal line.
type progressBar struct {
	mu    sync.Mutex
	out   io.Writer
	bar   progress.Model
	shown bool
}

func newProgressBar(out io.Writer) *progressBar {
	return &progressBar{
		out: out,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (p *progressBar) update(s tracker.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !s.Visible {
		if p.shown {
			fmt.Fprint(p.out, "\r\033[K")
			p.shown = false
		}
		return
	}
	fmt.Fprintf(p.out, "\r%s", p.bar.ViewAs(float64(s.Percent)/100))
	p.shown = true
}

// clear removes the bar before other output is written.
func (p *progressBar) clear() {
	p.update(tracker.Snapshot{})
}

// writeResult prints result sections, or the filtered raw backend result
// when expr is set.
func writeResult(w io.Writer, result *models.AnalysisResult, expr string, width int) error {
	if expr != "" {
		out, err := filter.Apply(result.Raw, expr, "")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err
	}
	_, err := fmt.Fprint(w, render.TerminalSections(usecase.Sections(result), width))
	return err
}

func formatValidation(v *models.SymbolValidation, symbol string) string {
	if !v.Valid {
		reason := v.Reason
		if reason == "" {
			reason = "Invalid symbol"
		}
		return fmt.Sprintf("%s %s: %s", errorStyle.Render("✗"), symbol, reason)
	}
	var b strings.Builder
	name := v.Name
	if name == "" {
		name = symbol
	}
	fmt.Fprintf(&b, "%s %s: %s", okStyle.Render("✓"), symbol, name)
	if v.Sector != "" {
		fmt.Fprintf(&b, "\n  %s%s", labelStyle.Render("Sector"), v.Sector)
	}
	if v.Industry != "" {
		fmt.Fprintf(&b, "\n  %s%s", labelStyle.Render("Industry"), v.Industry)
	}
	return b.String()
}

func formatRecent(entries []models.RecentEntry) string {
	if len(entries) == 0 {
		return dimStyle.Render("No recent analyses")
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  %-10s %s",
			dimStyle.Render(e.Timestamp.Local().Format("2006-01-02 15:04")),
			e.Kind, e.Query)
	}
	return b.String()
}

func formatError(err error) string {
	return errorStyle.Render("Error: ") + xhttp.FormatMessage(err)
}
