package layout

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	defaultRowTolerance    = 3.0
	defaultWordGapFactor   = 0.2
	defaultSpanGapFactor   = 1.0
	defaultBlockGapFactor  = 1.8
	fallbackFontSize       = 10.0
	minimumSpanGapFallback = 3.0

	// average advance of a glyph, in ems, when the font carries no widths
	estimatedAdvanceFactor = 0.5
)

// BuilderConfig controls how glyphs are grouped into spans, lines and blocks.
// Gap factors are multiples of the font size.
type BuilderConfig struct {
	RowTolerance   float64 // max baseline distance for glyphs on the same line
	WordGapFactor  float64 // gap above which a space is inserted inside a span
	SpanGapFactor  float64 // gap above which a new span starts
	BlockGapFactor float64 // baseline distance above which a new block starts
}

// DefaultBuilderConfig returns the grouping thresholds used for body text
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		RowTolerance:   defaultRowTolerance,
		WordGapFactor:  defaultWordGapFactor,
		SpanGapFactor:  defaultSpanGapFactor,
		BlockGapFactor: defaultBlockGapFactor,
	}
}

// Builder turns the glyphs of a page into blocks, lines and spans
type Builder struct {
	config BuilderConfig
}

// NewBuilder creates a builder, filling zero thresholds with defaults
func NewBuilder(config BuilderConfig) *Builder {
	def := DefaultBuilderConfig()
	if config.RowTolerance <= 0 {
		config.RowTolerance = def.RowTolerance
	}
	if config.WordGapFactor <= 0 {
		config.WordGapFactor = def.WordGapFactor
	}
	if config.SpanGapFactor <= 0 {
		config.SpanGapFactor = def.SpanGapFactor
	}
	if config.BlockGapFactor <= 0 {
		config.BlockGapFactor = def.BlockGapFactor
	}
	return &Builder{config: config}
}

type row struct {
	yMin, yMax float64
	glyphs     []Glyph
}

func (r *row) baseline() float64 {
	return (r.yMin + r.yMax) / 2
}

func (r *row) fontSize() float64 {
	size := 0.0
	for _, g := range r.glyphs {
		if g.FontSize > size {
			size = g.FontSize
		}
	}
	if size == 0 {
		return fallbackFontSize
	}
	return size
}

// Build groups glyphs into the page layout in reading order
func (b *Builder) Build(index int, glyphs []Glyph) Page {
	page := Page{Index: index}

	rows := b.groupIntoRows(glyphs)
	if len(rows) == 0 {
		return page
	}

	var current *Block
	var prev *row
	for i := range rows {
		r := &rows[i]
		line := b.rowToLine(r)
		if len(line.Spans) == 0 {
			continue
		}

		if current != nil && prev != nil {
			gap := prev.baseline() - r.baseline()
			limit := b.config.BlockGapFactor * math.Max(prev.fontSize(), r.fontSize())
			if gap > limit {
				page.Blocks = append(page.Blocks, *current)
				current = nil
			}
		}
		if current == nil {
			current = &Block{}
		}
		current.Lines = append(current.Lines, line)
		prev = r
	}
	if current != nil {
		page.Blocks = append(page.Blocks, *current)
	}

	return page
}

// groupIntoRows buckets glyphs by baseline and orders rows top to bottom
func (b *Builder) groupIntoRows(glyphs []Glyph) []row {
	var rows []row

	for _, g := range glyphs {
		g.Text = stripControl(g.Text)
		if g.Text == "" {
			continue
		}
		found := false
		for i := range rows {
			if g.Y >= rows[i].yMin-b.config.RowTolerance && g.Y <= rows[i].yMax+b.config.RowTolerance {
				rows[i].glyphs = append(rows[i].glyphs, g)
				rows[i].yMin = math.Min(rows[i].yMin, g.Y)
				rows[i].yMax = math.Max(rows[i].yMax, g.Y)
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, row{yMin: g.Y, yMax: g.Y, glyphs: []Glyph{g}})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].baseline() > rows[j].baseline()
	})

	return rows
}

// rowToLine merges the glyphs of a row into spans
func (b *Builder) rowToLine(r *row) Line {
	glyphs := make([]Glyph, len(r.glyphs))
	copy(glyphs, r.glyphs)
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].X < glyphs[j].X
	})

	var line Line
	var text strings.Builder
	var span *Span
	var last Glyph

	flush := func() {
		if span == nil {
			return
		}
		span.Text = strings.TrimSpace(text.String())
		if span.Text != "" {
			line.Spans = append(line.Spans, *span)
		}
		span = nil
		text.Reset()
	}

	for _, g := range glyphs {
		if span != nil {
			size := last.FontSize
			if size <= 0 {
				size = fallbackFontSize
			}
			gap := g.X - span.BBox.X1
			spanGap := math.Max(b.config.SpanGapFactor*size, minimumSpanGapFallback)

			if g.Font != last.Font || g.FontSize != last.FontSize || gap > spanGap {
				flush()
			} else {
				if gap > b.config.WordGapFactor*size && !strings.HasSuffix(text.String(), " ") &&
					!strings.HasPrefix(g.Text, " ") {
					text.WriteByte(' ')
				}
				text.WriteString(g.Text)
				span.BBox.X1 = math.Max(span.BBox.X1, glyphEnd(g, span.BBox.X1))
				span.BBox.Y1 = math.Max(span.BBox.Y1, g.Y+g.FontSize)
				span.BBox.Y0 = math.Min(span.BBox.Y0, g.Y)
				last = g
				continue
			}
		}

		span = &Span{BBox: BBox{X0: g.X, Y0: g.Y, X1: glyphEnd(g, g.X), Y1: g.Y + g.FontSize}}
		text.WriteString(g.Text)
		last = g
	}
	flush()

	return line
}

// stripControl removes control characters such as the line breaks some
// content readers emit between text-showing operators.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// glyphEnd returns the right edge of g. Glyphs of fonts without a width table
// arrive with W == 0 and an X that does not advance, so their advance is
// estimated from the font size and laid out from cursor, the current span end.
func glyphEnd(g Glyph, cursor float64) float64 {
	if g.W > 0 {
		return g.X + g.W
	}
	size := g.FontSize
	if size <= 0 {
		size = fallbackFontSize
	}
	width := estimatedAdvanceFactor * size * float64(utf8.RuneCountInString(g.Text))
	return math.Max(g.X, cursor) + width
}
