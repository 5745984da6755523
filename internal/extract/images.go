package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
	"github.com/a3tai/mcp-pdf-qa/internal/ocr"
)

// ImageText is text recognized in an embedded image
type ImageText struct {
	Page    int    `json:"page"` // 1-based
	Text    string `json:"text"`
	IsTable bool   `json:"is_table"`
}

// Label renders the entry as it appears in the document text
func (it ImageText) Label() string {
	if it.IsTable {
		return fmt.Sprintf("--- TABLE FROM IMAGE (PAGE %d) ---\n%s", it.Page, it.Text)
	}
	return fmt.Sprintf("Image text (page %d): %s", it.Page, it.Text)
}

type imageStats struct {
	recognized int
	skipped    int
}

// pageImages recognizes the first few images of a page. Failures of single
// images are logged and never abort the page.
func (e *Extractor) pageImages(ctx context.Context, doc Document, pageIndex int, log logrus.FieldLogger) ([]ImageText, imageStats) {
	var stats imageStats
	page := pageIndex + 1

	refs, err := doc.PageImages(pageIndex)
	if err != nil {
		log.WithField("page", page).WithError(err).Warn("Failed to list page images")
		return nil, stats
	}
	if len(refs) > e.config.MaxImagesPerPage {
		refs = refs[:e.config.MaxImagesPerPage]
	}

	var results []ImageText
	for idx, ref := range refs {
		if ctx.Err() != nil {
			return results, stats
		}

		imgLog := log.WithFields(logrus.Fields{"page": page, "image": idx + 1})

		text, recognized, err := e.recognizeImage(ctx, doc, ref, page, idx)
		if err != nil {
			imgLog.WithError(err).Warn("OCR error")
			stats.skipped++
			continue
		}
		if !recognized {
			imgLog.Debug("Image below minimum size, skipped")
			stats.skipped++
			continue
		}
		stats.recognized++

		item, ok := e.classifyImageText(page, text)
		if !ok {
			imgLog.Debug("Image text too short, dropped")
			continue
		}
		results = append(results, item)
	}

	return results, stats
}

// recognizeImage runs OCR over one image. It reports false without calling
// the recognizer when the image is smaller than the minimum size.
func (e *Extractor) recognizeImage(ctx context.Context, doc Document, ref layout.ImageRef, page, idx int) (string, bool, error) {
	data, err := doc.ImageData(ref)
	if err != nil {
		return "", false, fmt.Errorf("failed to read image data: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width < e.config.MinImageSize || cfg.Height < e.config.MinImageSize {
		return "", false, nil
	}

	text, err := e.recognizer.Recognize(ctx, ocr.Image{
		Data:   data,
		Format: format,
		Page:   page,
		Index:  idx,
	})
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (e *Extractor) classifyImageText(page int, text string) (ImageText, bool) {
	text = ocr.Clean(text)
	if utf8.RuneCountInString(text) <= e.config.MinImageTextLength {
		return ImageText{}, false
	}

	item := ImageText{Page: page, Text: text}
	for _, marker := range e.config.ImageTableMarkers {
		if strings.Contains(text, marker) {
			item.IsTable = true
			break
		}
	}
	return item, true
}
