//go:build ocr

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with a local Tesseract installation.
// A fresh gosseract client is opened per call, since a client is not safe
// for concurrent use.
type Tesseract struct {
	languages []string
}

// NewTesseract creates a Tesseract recognizer for the given languages
func NewTesseract(languages ...string) (*Tesseract, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("failed to set OCR language: %w", err)
		}
	}

	return &Tesseract{languages: languages}, nil
}

// Recognize runs Tesseract over the image bytes
func (t *Tesseract) Recognize(ctx context.Context, img Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("failed to set OCR language: %w", err)
		}
	}

	if err := client.SetImageFromBytes(img.Data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return Clean(text), nil
}
