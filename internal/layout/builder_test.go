package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word lays out a string as one glyph per character, 5 points wide
func word(s string, x, y, size float64) []Glyph {
	var glyphs []Glyph
	for i, r := range s {
		glyphs = append(glyphs, Glyph{
			Text:     string(r),
			Font:     "Helvetica",
			FontSize: size,
			X:        x + float64(i)*5,
			Y:        y,
			W:        5,
		})
	}
	return glyphs
}

func concat(parts ...[]Glyph) []Glyph {
	var all []Glyph
	for _, p := range parts {
		all = append(all, p...)
	}
	return all
}

func TestBuildEmpty(t *testing.T) {
	page := NewBuilder(DefaultBuilderConfig()).Build(2, nil)
	assert.Equal(t, 2, page.Index)
	assert.Empty(t, page.Blocks)
}

func TestBuildSingleSpan(t *testing.T) {
	page := NewBuilder(DefaultBuilderConfig()).Build(0, word("Revenue", 50, 700, 10))

	require.Len(t, page.Blocks, 1)
	require.Len(t, page.Blocks[0].Lines, 1)
	spans := page.Blocks[0].Lines[0].Spans
	require.Len(t, spans, 1)
	assert.Equal(t, "Revenue", spans[0].Text)
	assert.Equal(t, 50.0, spans[0].BBox.X0)
	assert.Equal(t, 85.0, spans[0].BBox.X1)
}

func TestBuildWordGapInsertsSpace(t *testing.T) {
	// 4 points between words: above the word gap, below the span gap
	glyphs := concat(word("Net", 50, 700, 10), word("profit", 69, 700, 10))
	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)

	require.Len(t, page.Blocks, 1)
	spans := page.Blocks[0].Lines[0].Spans
	require.Len(t, spans, 1)
	assert.Equal(t, "Net profit", spans[0].Text)
}

func TestBuildColumnsBecomeSpans(t *testing.T) {
	glyphs := concat(word("Name", 50, 700, 10), word("Age", 150, 700, 10), word("City", 250, 701, 10))
	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)

	require.Len(t, page.Blocks, 1)
	require.Len(t, page.Blocks[0].Lines, 1)
	l := page.Blocks[0].Lines[0]
	require.Len(t, l.Spans, 3)
	assert.Equal(t, "Name Age City", l.Text())
	assert.Equal(t, 150.0, l.Spans[1].BBox.X0)
}

func TestBuildUnorderedGlyphs(t *testing.T) {
	glyphs := word("Total", 50, 700, 10)
	glyphs[0], glyphs[4] = glyphs[4], glyphs[0]

	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)
	require.Len(t, page.Blocks, 1)
	assert.Equal(t, "Total", page.Blocks[0].Lines[0].Spans[0].Text)
}

func TestBuildRowsTopToBottom(t *testing.T) {
	glyphs := concat(word("second", 50, 688, 10), word("first", 50, 700, 10), word("third", 50, 676, 10))
	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)

	require.Len(t, page.Blocks, 1)
	assert.Equal(t, "first\nsecond\nthird\n", page.Blocks[0].Text())
}

func TestBuildLargeGapStartsBlock(t *testing.T) {
	glyphs := concat(
		word("Heading", 50, 700, 10),
		word("Body", 50, 650, 10),
		word("more", 50, 638, 10),
	)
	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)

	require.Len(t, page.Blocks, 2)
	assert.Equal(t, "Heading\n", page.Blocks[0].Text())
	assert.Equal(t, "Body\nmore\n", page.Blocks[1].Text())
}

func TestBuildFontChangeSplitsSpan(t *testing.T) {
	bold := word("Total", 50, 700, 10)
	for i := range bold {
		bold[i].Font = "Helvetica-Bold"
	}
	glyphs := concat(bold, word("42", 75, 700, 10))

	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)
	require.Len(t, page.Blocks, 1)
	assert.Len(t, page.Blocks[0].Lines[0].Spans, 2)
}

func TestBuildSkipsBlankGlyphs(t *testing.T) {
	glyphs := []Glyph{
		{Text: "", X: 10, Y: 700, W: 5, FontSize: 10},
		{Text: " ", X: 10, Y: 600, W: 5, FontSize: 10},
	}
	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)
	assert.Empty(t, page.Blocks)
}

func TestNewBuilderDefaults(t *testing.T) {
	b := NewBuilder(BuilderConfig{})
	assert.Equal(t, DefaultBuilderConfig(), b.config)
}

func TestLineAndBlockText(t *testing.T) {
	block := Block{Lines: []Line{
		{Spans: []Span{{Text: "S.No."}, {Text: "Name"}}},
		{Spans: []Span{{Text: "1"}, {Text: "Alice"}}},
	}}
	assert.Equal(t, "S.No. Name", block.Lines[0].Text())
	assert.Equal(t, "S.No. Name\n1 Alice\n", block.Text())
	assert.Equal(t, 5.0, BBox{X0: 10, X1: 15}.Width())
}

// unmeasured lays out a string the way fonts without a width table arrive:
// every glyph at the same x with no width
func unmeasured(s string, x, y, size float64) []Glyph {
	var glyphs []Glyph
	for _, r := range s {
		glyphs = append(glyphs, Glyph{Text: string(r), Font: "F1", FontSize: size, X: x, Y: y})
	}
	return glyphs
}

func lineBreak(x, y float64) []Glyph {
	return []Glyph{{Text: "\n", Font: "Helvetica", FontSize: 10, X: x, Y: y}}
}

func TestBuildDropsLineBreakGlyphs(t *testing.T) {
	var glyphs []Glyph
	for i, cells := range [][3]string{{"S.No.", "Net", "Total"}, {"1", "Alpha", "500"}, {"2", "Beta", "700"}} {
		y := 700 - float64(i)*14
		glyphs = concat(glyphs,
			word(cells[0], 50, y, 10), lineBreak(50+5*float64(len(cells[0])), y),
			word(cells[1], 90, y, 10), lineBreak(90+5*float64(len(cells[1])), y),
			word(cells[2], 200, y, 10), lineBreak(200+5*float64(len(cells[2])), y),
		)
	}

	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)

	require.Len(t, page.Blocks, 1)
	lines := page.Blocks[0].Lines
	require.Len(t, lines, 3)
	for _, line := range lines {
		for _, span := range line.Spans {
			assert.NotContains(t, span.Text, "\n")
		}
	}
	require.Len(t, lines[0].Spans, 3)
	assert.Equal(t, "Net", lines[0].Spans[1].Text)
	assert.Equal(t, "1 Alpha 500", lines[1].Text())
	assert.Equal(t, "2 Beta 700", lines[2].Text())
}

func TestBuildLineBreakOnlyRowIsDropped(t *testing.T) {
	glyphs := concat(word("Revenue", 50, 700, 10), lineBreak(50, 650), []Glyph{{Text: "\r\t", X: 50, Y: 600}})
	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)

	require.Len(t, page.Blocks, 1)
	require.Len(t, page.Blocks[0].Lines, 1)
	assert.Equal(t, "Revenue", page.Blocks[0].Lines[0].Text())
}

func TestBuildEstimatesWidthOfUnmeasuredGlyphs(t *testing.T) {
	page := NewBuilder(DefaultBuilderConfig()).Build(0, unmeasured("Gender distribution of employees", 72, 700, 12))

	require.Len(t, page.Blocks, 1)
	spans := page.Blocks[0].Lines[0].Spans
	require.Len(t, spans, 1)
	assert.Equal(t, "Gender distribution of employees", spans[0].Text)
	assert.Equal(t, 72.0, spans[0].BBox.X0)
	assert.InDelta(t, 72+0.5*12*32, spans[0].BBox.X1, 0.001)
}

func TestBuildUnmeasuredColumnsKeepTheirExtent(t *testing.T) {
	glyphs := concat(
		unmeasured("S.No.", 72, 700, 10),
		unmeasured("Name", 192, 700, 10),
		unmeasured("Total", 312, 700, 10),
	)
	page := NewBuilder(DefaultBuilderConfig()).Build(0, glyphs)

	require.Len(t, page.Blocks, 1)
	spans := page.Blocks[0].Lines[0].Spans
	require.Len(t, spans, 3)
	assert.Equal(t, []string{"S.No.", "Name", "Total"}, []string{spans[0].Text, spans[1].Text, spans[2].Text})
	for _, span := range spans {
		assert.Greater(t, span.BBox.X1, span.BBox.X0, span.Text)
	}
	assert.InDelta(t, 97.0, spans[0].BBox.X1, 0.001)
	assert.InDelta(t, 212.0, spans[1].BBox.X1, 0.001)
}
