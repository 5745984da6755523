// Package pdf is the service facade of the server: it resolves paths inside
// the configured directory, opens documents, runs the extraction pipeline
// and hands extracted text to the question answering assistant.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-pdf-qa/internal/extract"
	"github.com/a3tai/mcp-pdf-qa/internal/layout"
	"github.com/a3tai/mcp-pdf-qa/internal/ocr"
	"github.com/a3tai/mcp-pdf-qa/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-qa/internal/pdf/wrapper"
	"github.com/a3tai/mcp-pdf-qa/internal/qa"
)

// ErrEmptyQuestion is returned when a question is blank
var ErrEmptyQuestion = errors.New("question cannot be empty")

// Asker answers a question from document text
type Asker interface {
	Ask(ctx context.Context, text, question string, history []qa.Turn) string
}

// Options configures a Service
type Options struct {
	Directory   string
	MaxFileSize int64
	Workers     int // concurrent documents in directory extraction

	Extract extract.Config
	Layout  layout.BuilderConfig

	// Recognizer reads text from images; nil disables image text
	Recognizer ocr.Recognizer
	// Assistant answers questions; nil answers every question with an apology
	Assistant Asker
	Logger    logrus.FieldLogger
}

// DefaultOptions returns the options used when serving directory
func DefaultOptions(directory string) Options {
	return Options{
		Directory:   directory,
		MaxFileSize: 100 * 1024 * 1024, // 100MB
		Workers:     runtime.NumCPU(),
		Extract:     extract.DefaultConfig(),
		Layout:      layout.DefaultBuilderConfig(),
	}
}

// Service handles PDF file operations by orchestrating various PDF components
type Service struct {
	maxFileSize   int64
	workers       int
	ocrEnabled    bool
	opener        *wrapper.Opener
	extractor     *extract.Extractor
	assistant     Asker
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
	logger        logrus.FieldLogger
}

// NewService creates a new PDF service with all components
func NewService(opts Options) (*Service, error) {
	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	if opts.MaxFileSize <= 0 {
		return nil, errors.New("maximum file size must be positive")
	}
	if err := opts.Extract.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction config: %w", err)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	assistant := opts.Assistant
	if assistant == nil {
		assistant = qa.NewWithModels(qa.DefaultConfig(), nil, nil, logger)
	}

	opener := wrapper.NewOpener(wrapper.OpenerConfig{
		MaxFileSize: opts.MaxFileSize,
		Layout:      opts.Layout,
	})
	validator := NewValidator(opts.MaxFileSize, opener)

	return &Service{
		maxFileSize:   opts.MaxFileSize,
		workers:       opts.Workers,
		ocrEnabled:    opts.Recognizer != nil,
		opener:        opener,
		extractor:     extract.NewExtractor(opts.Extract, opts.Recognizer, logger),
		assistant:     assistant,
		validator:     validator,
		search:        NewSearch(validator),
		pathValidator: pathValidator,
		logger:        logger,
	}, nil
}

// PDFExtract extracts the text and tables of a PDF file
func (s *Service) PDFExtract(ctx context.Context, req PDFExtractRequest) (*PDFExtractResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	doc, err := s.opener.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return s.extract(ctx, path, doc)
}

// ExtractReader extracts a PDF read from r. name labels the result.
func (s *Service) ExtractReader(ctx context.Context, name string, r io.Reader) (*PDFExtractResult, error) {
	doc, err := s.opener.Open(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return s.extract(ctx, name, doc)
}

func (s *Service) extract(ctx context.Context, path string, doc *wrapper.Document) (*PDFExtractResult, error) {
	size := doc.Size()

	res, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}

	return &PDFExtractResult{
		ID:             res.ID,
		Path:           path,
		Size:           size,
		Text:           res.Text,
		Tables:         res.Tables,
		PagesTotal:     res.PagesTotal,
		PagesProcessed: res.PagesProcessed,
		ImagesOCRed:    res.ImagesOCRed,
		ImagesSkipped:  res.ImagesSkipped,
		Truncated:      res.Truncated,
	}, nil
}

// PDFExtractTables returns only the table artifacts of a PDF file
func (s *Service) PDFExtractTables(ctx context.Context, req PDFExtractTablesRequest) (*PDFTablesResult, error) {
	res, err := s.PDFExtract(ctx, PDFExtractRequest(req))
	if err != nil {
		return nil, err
	}

	return &PDFTablesResult{
		Path:       res.Path,
		Tables:     res.Tables,
		TotalCount: len(res.Tables),
		PagesTotal: res.PagesTotal,
	}, nil
}

// PDFAsk answers a question about a PDF file
func (s *Service) PDFAsk(ctx context.Context, req PDFAskRequest) (*PDFAskResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	res, err := s.PDFExtract(ctx, PDFExtractRequest{Path: req.Path})
	if err != nil {
		return nil, err
	}

	return &PDFAskResult{
		Path:     res.Path,
		Question: req.Question,
		Answer:   s.assistant.Ask(ctx, res.Text, req.Question, req.History),
	}, nil
}

// AskReader answers a question about a PDF read from r
func (s *Service) AskReader(ctx context.Context, name string, r io.Reader, question string, history []qa.Turn) (*PDFAskResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	res, err := s.ExtractReader(ctx, name, r)
	if err != nil {
		return nil, err
	}

	return &PDFAskResult{
		Path:     name,
		Question: question,
		Answer:   s.assistant.Ask(ctx, res.Text, question, history),
	}, nil
}

// PDFExtractDirectory extracts every matching PDF of a directory with up to
// the configured number of workers. A failing file is reported in its entry
// and does not stop the batch; cancellation does.
func (s *Service) PDFExtractDirectory(ctx context.Context, req PDFExtractDirectoryRequest) (*PDFExtractDirectoryResult, error) {
	directory, err := s.resolveDirectory(req.Directory)
	if err != nil {
		return nil, err
	}

	absDirectory, files, err := s.search.find(ctx, directory, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}

	entries := make([]DirectoryFileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			entries[i] = s.extractEntry(gctx, file)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("directory extraction interrupted: %w", err)
	}

	result := &PDFExtractDirectoryResult{
		Directory:   absDirectory,
		SearchQuery: req.Query,
		Files:       entries,
	}
	for _, e := range entries {
		if e.Error != "" {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"directory": absDirectory,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("Directory extracted")

	return result, nil
}

func (s *Service) extractEntry(ctx context.Context, file FileInfo) DirectoryFileResult {
	entry := DirectoryFileResult{File: file}

	res, err := s.PDFExtract(ctx, PDFExtractRequest{Path: file.Path})
	if err != nil {
		s.logger.WithError(err).WithField("file", file.Path).Warn("Failed to extract PDF")
		entry.Error = err.Error()
		return entry
	}

	entry.PagesTotal = res.PagesTotal
	entry.PagesProcessed = res.PagesProcessed
	entry.Tables = len(res.Tables)
	entry.TextLength = len([]rune(res.Text))
	entry.Truncated = res.Truncated
	return entry
}

// PDFSearchDirectory searches for PDF files in a directory
func (s *Service) PDFSearchDirectory(ctx context.Context, req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	directory, err := s.resolveDirectory(req.Directory)
	if err != nil {
		return nil, err
	}
	req.Directory = directory

	return s.search.SearchDirectory(ctx, req)
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path

	return s.validator.ValidateFile(req)
}

// resolveDirectory defaults to the configured directory and keeps the
// result inside it
func (s *Service) resolveDirectory(directory string) (string, error) {
	if directory == "" {
		return s.pathValidator.GetConfiguredDirectory(), nil
	}

	resolved, err := s.pathValidator.ResolvePath(directory)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.pathValidator.ValidateDirectory(resolved); err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return resolved, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// ConfiguredDirectory returns the directory all paths are resolved against
func (s *Service) ConfiguredDirectory() string {
	return s.pathValidator.GetConfiguredDirectory()
}

// IsValidPDF performs a quick validation check on a file
func (s *Service) IsValidPDF(filePath string) bool {
	path, err := s.pathValidator.ResolvePath(filePath)
	if err != nil {
		return false
	}
	return s.validator.IsValidPDF(path)
}
