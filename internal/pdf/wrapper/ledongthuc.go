package wrapper

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
)

// PageCount returns the number of pages in the document
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0
	}
	return d.text.NumPage()
}

// PageText returns the plain text of a page
func (d *Document) PageText(index int) (text string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkPage(LibraryLedongthuc, "page_text", index); err != nil {
		return "", err
	}

	// Add panic recovery for malformed PDF streams
	defer func() {
		if r := recover(); r != nil {
			text, err = "", recovered(LibraryLedongthuc, "page_text", r)
		}
	}()

	page := d.text.Page(index + 1)
	if page.V.IsNull() {
		return "", &WrapperError{Library: LibraryLedongthuc, Op: "page_text", Err: fmt.Errorf("%w: %d", ErrInvalidPage, index+1)}
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", &WrapperError{Library: LibraryLedongthuc, Op: "page_text", Err: fmt.Errorf("failed to extract text: %w", err)}
	}
	return text, nil
}

// PageLayout returns the positioned text blocks of a page
func (d *Document) PageLayout(index int) (page layout.Page, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkPage(LibraryLedongthuc, "page_layout", index); err != nil {
		return layout.Page{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			page, err = layout.Page{}, recovered(LibraryLedongthuc, "page_layout", r)
		}
	}()

	p := d.text.Page(index + 1)
	if p.V.IsNull() {
		return layout.Page{}, &WrapperError{Library: LibraryLedongthuc, Op: "page_layout", Err: fmt.Errorf("%w: %d", ErrInvalidPage, index+1)}
	}

	return d.builder.Build(index, glyphs(p.Content().Text)), nil
}

// glyphs converts ledongthuc text runs to layout glyphs
func glyphs(texts []pdf.Text) []layout.Glyph {
	out := make([]layout.Glyph, 0, len(texts))
	for _, t := range texts {
		out = append(out, layout.Glyph{
			Text:     t.S,
			Font:     t.Font,
			FontSize: t.FontSize,
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
		})
	}
	return out
}
