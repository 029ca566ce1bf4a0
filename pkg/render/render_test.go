package render

import (
	"reflect"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestRenderTable(t *testing.T) {
	got := Render("| A | B |\n|---|---|\n| 1 | 2 |")
	want := "<table>\n<thead>\n<tr><th>A</th><th>B</th></tr>\n</thead>\n<tbody>\n<tr><td>1</td><td>2</td></tr>\n</tbody>\n</table>\n"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTableEscapesCells(t *testing.T) {
	got := Render("| Name | Note |\n|------|------|\n| <b> | a & b |")
	if !strings.Contains(got, "<td>&lt;b&gt;</td>") || !strings.Contains(got, "<td>a &amp; b</td>") {
		t.Fatalf("cells not escaped: %s", got)
	}
	if strings.Contains(got, "<b>") {
		t.Fatalf("raw tag leaked: %s", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t"} {
		if got := Render(in); got != NoContent {
			t.Errorf("Render(%q) = %q", in, got)
		}
	}
}

func TestParseTableShapes(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		header []string
		rows   [][]string
	}{
		{
			name:   "extra cells dropped",
			in:     "| A | B |\n|---|---|\n| 1 | 2 | 3 |",
			header: []string{"A", "B"},
			rows:   [][]string{{"1", "2"}},
		},
		{
			name:   "missing cells absent",
			in:     "| A | B | C |\n|---|---|---|\n| 1 |",
			header: []string{"A", "B", "C"},
			rows:   [][]string{{"1"}},
		},
		{
			name:   "empty rows skipped",
			in:     "| A |\n|---|\n|   |\n| 1 |",
			header: []string{"A"},
			rows:   [][]string{{"1"}},
		},
		{
			name:   "body stops at non-pipe line",
			in:     "| A |\n|---|\n| 1 |\ntrailing text\n| 2 |",
			header: []string{"A"},
			rows:   [][]string{{"1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := Parse(tt.in).Tables()
			if len(tables) != 1 {
				t.Fatalf("expected 1 table, got %d", len(tables))
			}
			if !reflect.DeepEqual(tables[0].Header, tt.header) || !reflect.DeepEqual(tables[0].Rows, tt.rows) {
				t.Fatalf("got header=%v rows=%v", tables[0].Header, tables[0].Rows)
			}
		})
	}
}

func TestParseNotATable(t *testing.T) {
	tests := map[string]string{
		"no separator":     "| A | B |\n| 1 | 2 |",
		"no closing pipe":  "| A | B\n|---|---|",
		"empty header":     "|  |\n|---|",
		"separator at eof": "| A |",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			doc := Parse(in)
			if len(doc.Tables()) != 0 {
				t.Fatalf("unexpected table in %q", in)
			}
			if out := Render(in); strings.Contains(out, "<table>") {
				t.Fatalf("unexpected table markup: %s", out)
			}
		})
	}
}

func TestRenderHeadings(t *testing.T) {
	got := Render("# One\n## Two\n### Three\n#### Four\n##### Five")
	for _, want := range []string{"<h1>One</h1>", "<h2>Two</h2>", "<h3>Three</h3>", "<h4>Four</h4>", "<p>##### Five</p>"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %s", want, got)
		}
	}
}

func TestRenderEmphasis(t *testing.T) {
	got := Render("**Revenue** grew *fast* & <steady>")
	want := "<p><strong>Revenue</strong> grew <em>fast</em> &amp; &lt;steady&gt;</p>\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRenderLists(t *testing.T) {
	got := Render("- one\n- two\n\n- three")
	if strings.Count(got, "<ul>") != 2 || strings.Count(got, "<li>") != 3 {
		t.Fatalf("unexpected list grouping: %s", got)
	}

	got = Render("- one\n- **two**")
	want := "<ul>\n<li>one</li>\n<li><strong>two</strong></li>\n</ul>\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRenderNeverWrapsBlocksInParagraphs(t *testing.T) {
	in := "## Summary\nSome text\n| A |\n|---|\n| 1 |\n- item\nMore"
	got := Render(in)
	for _, bad := range []string{"<p><table", "<p><ul", "<p><h2", "</table></p>", "</ul></p>", "<p></p>"} {
		if strings.Contains(got, bad) {
			t.Errorf("found %q in %s", bad, got)
		}
	}
}

func TestStripBlockParagraphs(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p><table><tr><td>1</td></tr></table></p>", "<table><tr><td>1</td></tr></table>"},
		{"<p>\n<ul><li>x</li></ul>\n</p>", "<ul><li>x</li></ul>"},
		{"<p><h3>T</h3></p>", "<h3>T</h3>"},
		{"<p>plain</p>", "<p>plain</p>"},
		{"<p> </p><p>x</p>", "<p>x</p>"},
	}
	for _, tt := range tests {
		if got := StripBlockParagraphs(tt.in); got != tt.want {
			t.Errorf("StripBlockParagraphs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// cellText collects th/td text per row from rendered HTML.
func cellText(t *testing.T, fragment string) (header []string, rows [][]string) {
	t.Helper()
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			isHeader := false
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || (c.Data != "th" && c.Data != "td") {
					continue
				}
				isHeader = c.Data == "th"
				var sb strings.Builder
				for tx := c.FirstChild; tx != nil; tx = tx.NextSibling {
					if tx.Type == html.TextNode {
						sb.WriteString(tx.Data)
					}
				}
				row = append(row, sb.String())
			}
			if isHeader {
				header = row
			} else {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return header, rows
}

func TestTableRoundTrip(t *testing.T) {
	in := strings.Join([]string{
		"| Metric | AAPL | MSFT |",
		"|:-------|-----:|-----:|",
		"| P/E | 28.5 | 34.1 |",
		"| Margin <net> | 25% & rising | \"24%\" |",
		"| Debt/Equity | 1.8 | 0.4 |",
	}, "\n")

	doc := Parse(in)
	if len(doc.Tables()) != 1 {
		t.Fatalf("expected one table")
	}
	src := doc.Tables()[0]

	header, rows := cellText(t, Render(in))
	if !reflect.DeepEqual(header, src.Header) {
		t.Fatalf("header mismatch: %v vs %v", header, src.Header)
	}
	if !reflect.DeepEqual(rows, src.Rows) {
		t.Fatalf("rows mismatch: %v vs %v", rows, src.Rows)
	}
	if rows[1][1] != "25% & rising" {
		t.Fatalf("unexpected decoded cell %q", rows[1][1])
	}
}

func TestRenderSections(t *testing.T) {
	got := RenderSections([]Section{
		{Key: "final_report", Title: "Final Report", Text: "# Verdict\nBuy"},
		{Key: "news_analysis", Title: "News Analysis", Text: ""},
	})
	if !strings.Contains(got, `data-section="final_report"`) || !strings.Contains(got, "<h1>Verdict</h1>") {
		t.Fatalf("unexpected sections: %s", got)
	}
	if !strings.Contains(got, NoContent) {
		t.Fatalf("empty section should show placeholder: %s", got)
	}
	if RenderSections(nil) != NoContent {
		t.Fatalf("nil sections should render placeholder")
	}
}

func TestTerminalContainsContent(t *testing.T) {
	out := Parse("## Outlook\n- **Bullish** momentum\n| Metric | Value |\n|---|---|\n| RSI | 61 |").Terminal(80)
	for _, want := range []string{"Outlook", "Bullish", "momentum", "Metric", "RSI", "61"} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**") {
		t.Errorf("emphasis markers should be consumed:\n%s", out)
	}
}
