// Package render turns the semi-structured reports produced by the analysis
// backend into a small document model, and that model into HTML or styled
// terminal text. Parsing never fails: anything it does not recognise is a
// paragraph.
package render

import (
	"regexp"
	"strings"
)

// BlockKind identifies a block in a Document.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockList
	BlockTable
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockList:
		return "list"
	case BlockTable:
		return "table"
	default:
		return "paragraph"
	}
}

// Block is one top-level element. Text, Items and cells hold raw source
// text; escaping happens at output time.
type Block struct {
	Kind   BlockKind
	Level  int // heading level, 1-4
	Text   string
	Items  []string
	Header []string
	Rows   [][]string
}

// Document is the parsed form of a report.
type Document struct {
	Blocks []Block
}

// Empty reports whether the document has nothing to show.
func (d *Document) Empty() bool {
	return d == nil || len(d.Blocks) == 0
}

// Tables returns the table blocks in document order.
func (d *Document) Tables() []Block {
	var out []Block
	for _, b := range d.Blocks {
		if b.Kind == BlockTable {
			out = append(out, b)
		}
	}
	return out
}

var headingPattern = regexp.MustCompile(`^(#{1,4})\s+(.*)$`)

// Parse builds a Document from text. Tables are extracted first, then the
// remaining lines are classified one by one.
func Parse(text string) *Document {
	doc := &Document{}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var pending []string
	flush := func() {
		doc.Blocks = append(doc.Blocks, parseLines(pending)...)
		pending = pending[:0]
	}

	for i := 0; i < len(lines); {
		if table, next, ok := parseTable(lines, i); ok {
			flush()
			doc.Blocks = append(doc.Blocks, table)
			i = next
			continue
		}
		pending = append(pending, lines[i])
		i++
	}
	flush()

	return doc
}

func isPipeRow(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) >= 2 && strings.HasPrefix(t, "|") && strings.HasSuffix(t, "|")
}

func isSeparatorRow(line string) bool {
	return strings.Contains(line, "|") && strings.Contains(line, "-")
}

// splitCells returns the non-empty trimmed segments of a pipe row.
func splitCells(line string) []string {
	parts := strings.Split(strings.TrimSpace(line), "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

// parseTable tries to read a table starting at lines[start]. It returns the
// index of the first line after the table.
func parseTable(lines []string, start int) (Block, int, bool) {
	if start+1 >= len(lines) || !isPipeRow(lines[start]) || !isSeparatorRow(lines[start+1]) {
		return Block{}, start, false
	}
	header := splitCells(lines[start])
	if len(header) == 0 {
		return Block{}, start, false
	}

	block := Block{Kind: BlockTable, Header: header}
	i := start + 2
	for ; i < len(lines) && isPipeRow(lines[i]); i++ {
		cells := splitCells(lines[i])
		if len(cells) == 0 {
			continue
		}
		if len(cells) > len(header) {
			cells = cells[:len(header)]
		}
		block.Rows = append(block.Rows, cells)
	}
	return block, i, true
}

func parseLines(lines []string) []Block {
	var blocks []Block
	var items []string
	closeList := func() {
		if len(items) > 0 {
			blocks = append(blocks, Block{Kind: BlockList, Items: items})
			items = nil
		}
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			closeList()
		case strings.HasPrefix(line, "- "):
			items = append(items, strings.TrimSpace(line[2:]))
		default:
			closeList()
			if m := headingPattern.FindStringSubmatch(line); m != nil {
				blocks = append(blocks, Block{Kind: BlockHeading, Level: len(m[1]), Text: strings.TrimSpace(m[2])})
				continue
			}
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: line})
		}
	}
	closeList()
	return blocks
}
