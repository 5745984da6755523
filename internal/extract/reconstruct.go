package extract

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
)

// TableRecord is a reconstructed table candidate
type TableRecord struct {
	Page    int    `json:"page"` // 1-based
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body"`
}

// Artifact renders the record as it appears in the table list and inline in
// the document text
func (t TableRecord) Artifact() string {
	return fmt.Sprintf("--- TABLE FROM PAGE %d ---\n%s", t.Page, strings.TrimSpace(t.Body))
}

// Reconstructor rebuilds column-aligned text from table blocks
type Reconstructor struct {
	config Config
}

// NewReconstructor creates a reconstructor using the thresholds of config
func NewReconstructor(config Config) *Reconstructor {
	return &Reconstructor{config: config}
}

// Heading searches the other blocks of the page for a caption. The last line
// of the first block whose text mentions one of the heading keywords wins.
func (r *Reconstructor) Heading(others []layout.Block) (string, bool) {
	for _, block := range others {
		if len(block.Lines) == 0 {
			continue
		}
		text := block.Lines[len(block.Lines)-1].Text()
		lower := strings.ToLower(text)
		for _, keyword := range r.config.HeadingKeywords {
			if strings.Contains(lower, keyword) {
				return "TABLE HEADING: " + text, true
			}
		}
	}
	return "", false
}

// Reconstruct formats the block as aligned rows. It returns false when the
// result does not look like a table worth keeping.
func (r *Reconstructor) Reconstruct(page int, block layout.Block, others []layout.Block) (TableRecord, bool) {
	var body strings.Builder

	heading, ok := r.Heading(others)
	if ok {
		body.WriteString(heading)
		body.WriteByte('\n')
	}

	for _, line := range block.Lines {
		body.WriteString(r.formatLine(line))
		body.WriteByte('\n')
	}

	text := body.String()
	if !r.accept(text) {
		return TableRecord{}, false
	}

	return TableRecord{Page: page, Heading: heading, Body: text}, true
}

// formatLine sorts spans left to right and pads them by their horizontal gap
func (r *Reconstructor) formatLine(line layout.Line) string {
	spans := make([]layout.Span, len(line.Spans))
	copy(spans, line.Spans)
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i].BBox, spans[j].BBox
		if a.X0 != b.X0 {
			return a.X0 < b.X0
		}
		if a.X1 != b.X1 {
			return a.X1 < b.X1
		}
		return spans[i].Text < spans[j].Text
	})

	var sb strings.Builder
	var prevX1 float64
	hasPrev := false

	for _, span := range spans {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}

		if hasPrev {
			sb.WriteString(r.padding(span.BBox.X0 - prevX1))
		}
		sb.WriteString(text)
		prevX1 = span.BBox.X1
		hasPrev = true
	}

	return sb.String()
}

func (r *Reconstructor) padding(gap float64) string {
	n := int(gap / r.config.SpaceWidth)
	if n < 1 {
		n = 1
	}
	if n > r.config.TabThreshold {
		return "\t"
	}
	return strings.Repeat(" ", n)
}

func (r *Reconstructor) accept(body string) bool {
	rows := 0
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if strings.TrimSpace(line) != "" {
			rows++
		}
	}
	if rows <= r.config.MinTableRows {
		return false
	}

	length := utf8.RuneCountInString(body)
	return length > r.config.MinTableLength && length < r.config.MaxTableLength
}
