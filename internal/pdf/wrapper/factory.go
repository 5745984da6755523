package wrapper

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
)

// OpenerConfig contains configuration options for opening documents
type OpenerConfig struct {
	// MaxFileSize limits the accepted document size (in bytes). Zero disables the check.
	MaxFileSize int64 `json:"max_file_size"`

	// Layout controls how glyphs are grouped into blocks
	Layout layout.BuilderConfig `json:"layout"`

	// StrictValidation makes pdfcpu reject documents that only relaxed validation accepts
	StrictValidation bool `json:"strict_validation"`
}

// DefaultOpenerConfig returns the configuration used by the service
func DefaultOpenerConfig() OpenerConfig {
	return OpenerConfig{
		MaxFileSize: 100 * 1024 * 1024, // 100MB
		Layout:      layout.DefaultBuilderConfig(),
	}
}

// Opener opens PDFs as Documents
type Opener struct {
	config  OpenerConfig
	builder *layout.Builder
}

// NewOpener creates an opener with the given configuration
func NewOpener(config OpenerConfig) *Opener {
	return &Opener{
		config:  config,
		builder: layout.NewBuilder(config.Layout),
	}
}

// GetConfig returns the current opener configuration
func (o *Opener) GetConfig() OpenerConfig {
	return o.config
}

// Open reads the whole PDF from reader and opens it
func (o *Opener) Open(reader io.Reader) (*Document, error) {
	var limited io.Reader = reader
	if o.config.MaxFileSize > 0 {
		limited = io.LimitReader(reader, o.config.MaxFileSize+1)
	}

	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "open", Err: fmt.Errorf("failed to read PDF: %w", err)}
	}

	return o.OpenBytes(data)
}

// OpenFile opens a PDF from a file path
func (o *Opener) OpenFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "open_file", Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	return o.Open(file)
}

// OpenBytes opens a PDF held in memory
func (o *Opener) OpenBytes(data []byte) (doc *Document, err error) {
	if o.config.MaxFileSize > 0 && int64(len(data)) > o.config.MaxFileSize {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open",
			Err:     fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), o.config.MaxFileSize),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, recovered(LibraryLedongthuc, "open", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "open", Err: fmt.Errorf("failed to open PDF: %w", err)}
	}

	validation := model.ValidationRelaxed
	if o.config.StrictValidation {
		validation = model.ValidationStrict
	}

	return &Document{
		data:       data,
		text:       reader,
		builder:    o.builder,
		validation: validation,
		pageImages: make(map[int]map[int]model.Image),
	}, nil
}

// Document is an open PDF. It is not safe for concurrent use by multiple
// extractions; each extraction opens its own Document.
type Document struct {
	mu         sync.Mutex
	data       []byte
	text       *pdf.Reader
	builder    *layout.Builder
	validation int
	closed     bool

	// pdfcpu context and per-page image cache, loaded on first image access
	images     *model.Context
	pageImages map[int]map[int]model.Image
}

// Close releases the document and every cached image
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.data = nil
	d.text = nil
	d.images = nil
	d.pageImages = nil
	return nil
}

// Size returns the document size in bytes, or zero once closed
func (d *Document) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return int64(len(d.data))
}

func (d *Document) checkPage(library LibraryType, op string, index int) error {
	if d.closed {
		return &WrapperError{Library: library, Op: op, Err: ErrDocumentClosed}
	}
	if index < 0 || index >= d.text.NumPage() {
		return &WrapperError{
			Library: library,
			Op:      op,
			Err:     fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, index+1, d.text.NumPage()),
		}
	}
	return nil
}

var _ Renderer = (*Document)(nil)
