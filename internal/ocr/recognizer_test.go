package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNoneEngine(t *testing.T) {
	for _, engine := range []Engine{"", EngineNone} {
		r, err := New(context.Background(), Config{Engine: engine})
		require.NoError(t, err)
		assert.Nil(t, r)
	}
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := New(context.Background(), Config{Engine: "abbyy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported OCR engine")
}

func TestNewDocumentAIRequiresProcessor(t *testing.T) {
	_, err := New(context.Background(), Config{Engine: EngineDocumentAI, ProjectID: "p", Location: "us"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor id")
}

func TestClean(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune
	assert.Equal(t, "caf\u00e9 Total", Clean("  cafe\u0301 Total\n\n"))
	assert.Equal(t, "", Clean(" \t\n"))
}

func TestDocumentAIConfig(t *testing.T) {
	cfg := DocumentAIConfig{ProjectID: "acme", Location: "eu", ProcessorID: "abc123"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "projects/acme/locations/eu/processors/abc123", cfg.ProcessorName())

	cfg.ProjectID = ""
	assert.Error(t, cfg.Validate())
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"jpeg": "image/jpeg",
		"jpg":  "image/jpeg",
		"tif":  "image/tiff",
		"gif":  "image/gif",
		"webp": "image/webp",
		"png":  "image/png",
		"":     "image/png",
	}
	for format, want := range tests {
		assert.Equal(t, want, MimeType(format), format)
	}
}
