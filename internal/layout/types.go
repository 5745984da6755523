// Package layout holds the positioned text model of a rendered PDF page:
// blocks made of lines made of spans, each span carrying its bounding box.
//
// Coordinates are PDF user space as reported by the renderer. X grows to the
// right; Y grows upwards, so reading order is Y descending.
package layout

import "strings"

// BBox is a span bounding box. X0 is the x-start and X1 the x-end.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the box
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Span is the smallest positioned text run on a page
type Span struct {
	Text string `json:"text"`
	BBox BBox   `json:"bbox"`
}

// Line is a sequence of spans sharing approximately the same baseline.
// Spans are not guaranteed to be sorted by X.
type Line struct {
	Spans []Span `json:"spans"`
}

// Text joins the span texts of the line with single spaces
func (l Line) Text() string {
	parts := make([]string, len(l.Spans))
	for i, s := range l.Spans {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// Block is a region of a page grouping related lines
type Block struct {
	Lines []Line `json:"lines"`
}

// Text returns every line's text followed by a newline
func (b Block) Text() string {
	var sb strings.Builder
	for _, line := range b.Lines {
		sb.WriteString(line.Text())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ImageRef identifies an embedded image on a page. The image bytes are
// fetched separately by reference.
type ImageRef struct {
	Page   int    `json:"page"`   // 0-based page index
	ObjNr  int    `json:"obj_nr"` // PDF object number
	Name   string `json:"name"`   // resource name
	Format string `json:"format"` // file type reported by the renderer
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Page is the layout of one rendered page
type Page struct {
	Index  int     `json:"index"` // 0-based
	Blocks []Block `json:"blocks"`
}

// Glyph is a positioned text run as produced by the PDF text layer,
// usually one character. X and Y are the origin on the baseline.
type Glyph struct {
	Text     string
	Font     string
	FontSize float64
	X        float64
	Y        float64
	W        float64
}
