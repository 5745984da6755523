// Package ocr provides the text recognizers used to read embedded images.
//
// Two engines are available: Tesseract through gosseract, which is only
// compiled with the "ocr" build tag, and Google Document AI.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrOCRNotEnabled is returned when Tesseract support was not compiled in.
// Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Image is one embedded raster handed to a recognizer
type Image struct {
	Data   []byte
	Format string // "png", "jpeg", "tiff", ...
	Page   int    // 1-based
	Index  int    // position among the page's images
}

// Recognizer turns image bytes into text. Implementations must be safe for
// concurrent use.
type Recognizer interface {
	Recognize(ctx context.Context, img Image) (string, error)
}

// Engine names a recognizer backend
type Engine string

const (
	EngineNone       Engine = "none"
	EngineTesseract  Engine = "tesseract"
	EngineDocumentAI Engine = "documentai"
)

// Config selects and configures a recognizer backend
type Config struct {
	Engine    Engine
	Languages []string // Tesseract languages, e.g. "eng"

	// Document AI
	ProjectID       string
	Location        string
	ProcessorID     string
	CredentialsFile string
}

// New creates the recognizer selected by config. EngineNone yields a nil
// recognizer, which disables image text extraction.
func New(ctx context.Context, config Config) (Recognizer, error) {
	switch config.Engine {
	case "", EngineNone:
		return nil, nil
	case EngineTesseract:
		t, err := NewTesseract(config.Languages...)
		if err != nil {
			return nil, err
		}
		return t, nil
	case EngineDocumentAI:
		d, err := NewDocumentAI(ctx, DocumentAIConfig{
			ProjectID:       config.ProjectID,
			Location:        config.Location,
			ProcessorID:     config.ProcessorID,
			CredentialsFile: config.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", config.Engine)
	}
}

// Clean trims recognizer output and composes it to NFC
func Clean(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}
