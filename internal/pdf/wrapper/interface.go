// Package wrapper exposes a PDF as pages of text, positioned glyph layout and
// embedded images. Text and layout come from ledongthuc/pdf; images come from
// pdfcpu.
package wrapper

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
)

// Renderer is the read-only page view of an open PDF. Page indexes are
// 0-based.
type Renderer interface {
	PageCount() int
	PageText(index int) (string, error)
	PageLayout(index int) (layout.Page, error)
	PageImages(index int) ([]layout.ImageRef, error)
	ImageData(ref layout.ImageRef) ([]byte, error)
	Close() error
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// Error types for wrapper operations
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrDocumentClosed = fmt.Errorf("document is closed")
	ErrInvalidPage    = fmt.Errorf("invalid page number")
	ErrImageNotFound  = fmt.Errorf("image not found on page")
	ErrFileTooLarge   = fmt.Errorf("file exceeds maximum size")
)

// recovered converts a panic raised inside a PDF library into an error
func recovered(library LibraryType, op string, r interface{}) error {
	return &WrapperError{Library: library, Op: op, Err: fmt.Errorf("panic: %v", r)}
}
