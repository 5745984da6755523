//go:build !ocr

package ocr

import "context"

// Tesseract is a stub that fails every call
type Tesseract struct{}

// NewTesseract returns ErrOCRNotEnabled
func NewTesseract(languages ...string) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Recognize returns ErrOCRNotEnabled
func (t *Tesseract) Recognize(ctx context.Context, img Image) (string, error) {
	return "", ErrOCRNotEnabled
}
