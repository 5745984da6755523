// Package extract turns a rendered PDF into flat text suitable for retrieval.
//
// Every page contributes its raw text. Blocks that look tabular are rebuilt
// with column spacing and inlined as table artifacts, and text recognized in
// images of the first pages is appended after normalization.
package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
	"github.com/a3tai/mcp-pdf-qa/internal/ocr"
)

// Document is the rendered view of a PDF the extractor reads from.
// Page indexes are 0-based.
type Document interface {
	PageCount() int
	PageText(index int) (string, error)
	PageLayout(index int) (layout.Page, error)
	PageImages(index int) ([]layout.ImageRef, error)
	ImageData(ref layout.ImageRef) ([]byte, error)
}

// Result is the outcome of one extraction
type Result struct {
	ID     string   `json:"id"`
	Text   string   `json:"text"`
	Tables []string `json:"tables"`

	PagesTotal     int  `json:"pages_total"`
	PagesProcessed int  `json:"pages_processed"`
	ImagesOCRed    int  `json:"images_ocred"`
	ImagesSkipped  int  `json:"images_skipped"`
	Truncated      bool `json:"truncated"`
}

// Extractor runs the page pipeline. It keeps no state between calls and is
// safe for concurrent use when its recognizer is.
type Extractor struct {
	config        Config
	classifier    *Classifier
	reconstructor *Reconstructor
	recognizer    ocr.Recognizer
	logger        logrus.FieldLogger
}

// NewExtractor creates an extractor. A nil recognizer disables image text;
// a nil logger discards log output.
func NewExtractor(config Config, recognizer ocr.Recognizer, logger logrus.FieldLogger) *Extractor {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	return &Extractor{
		config:        config,
		classifier:    NewClassifier(config),
		reconstructor: NewReconstructor(config),
		recognizer:    recognizer,
		logger:        logger,
	}
}

// Config returns the configuration the extractor was created with
func (e *Extractor) Config() Config {
	return e.config
}

// Extract reads the document and assembles its text and table list.
// Failures to read page text or layout abort the extraction; failures on
// single images are logged and skipped.
func (e *Extractor) Extract(ctx context.Context, doc Document) (*Result, error) {
	result := &Result{ID: uuid.NewString(), Tables: []string{}}
	log := e.logger.WithField("doc", result.ID)

	result.PagesTotal = doc.PageCount()
	pages := result.PagesTotal
	if pages > e.config.MaxPages {
		pages = e.config.MaxPages
	}

	var text strings.Builder
	var imageTexts []string

	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageText, err := doc.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read text of page %d: %w", i+1, err)
		}
		text.WriteString(pageText)

		page, err := doc.PageLayout(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read layout of page %d: %w", i+1, err)
		}

		for _, table := range e.pageTables(i+1, page, log) {
			artifact := table.Artifact()
			result.Tables = append(result.Tables, artifact)
			text.WriteString("\n\n" + artifact + "\n\n")
		}

		if i < e.config.MaxImagePages && e.recognizer != nil {
			items, stats := e.pageImages(ctx, doc, i, log)
			result.ImagesOCRed += stats.recognized
			result.ImagesSkipped += stats.skipped
			for _, item := range items {
				label := item.Label()
				if item.IsTable {
					result.Tables = append(result.Tables, label)
				}
				imageTexts = append(imageTexts, label)
			}
		}

		result.PagesProcessed++
	}

	full := Normalize(text.String())
	if len(imageTexts) > 0 {
		full += "\n\n" + strings.Join(imageTexts, "\n")
	}
	result.Text, result.Truncated = Truncate(full, e.config.MaxTextLength, e.config.TruncationNotice)

	log.WithFields(logrus.Fields{
		"pages":     result.PagesProcessed,
		"tables":    len(result.Tables),
		"images":    result.ImagesOCRed,
		"truncated": result.Truncated,
	}).Info("Document extracted")

	return result, nil
}

// pageTables classifies every block of the page and rebuilds the tables in
// reading order
func (e *Extractor) pageTables(pageNum int, page layout.Page, log logrus.FieldLogger) []TableRecord {
	var tables []TableRecord

	for bi, block := range page.Blocks {
		verdict := e.classifier.Classify(block)
		if !verdict.IsTable() {
			continue
		}

		others := make([]layout.Block, 0, len(page.Blocks)-1)
		others = append(others, page.Blocks[:bi]...)
		others = append(others, page.Blocks[bi+1:]...)

		table, ok := e.reconstructor.Reconstruct(pageNum, block, others)
		log.WithFields(logrus.Fields{
			"page":     pageNum,
			"block":    bi,
			"verdict":  verdict,
			"accepted": ok,
		}).Debug("Table candidate")
		if ok {
			tables = append(tables, table)
		}
	}

	return tables
}
