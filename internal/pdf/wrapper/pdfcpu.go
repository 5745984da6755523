package wrapper

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
)

// PageImages lists the embedded images of a page in object number order
func (d *Document) PageImages(index int) ([]layout.ImageRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkPage(LibraryPDFCPU, "page_images", index); err != nil {
		return nil, err
	}

	images, err := d.loadPageImages(index)
	if err != nil {
		return nil, err
	}

	refs := make([]layout.ImageRef, 0, len(images))
	for objNr, img := range images {
		refs = append(refs, layout.ImageRef{
			Page:   index,
			ObjNr:  objNr,
			Name:   img.Name,
			Format: img.FileType,
			Width:  img.Width,
			Height: img.Height,
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ObjNr < refs[j].ObjNr })

	return refs, nil
}

// ImageData returns the encoded bytes of an image. The image is read once
// and dropped from the cache.
func (d *Document) ImageData(ref layout.ImageRef) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkPage(LibraryPDFCPU, "image_data", ref.Page); err != nil {
		return nil, err
	}

	images, err := d.loadPageImages(ref.Page)
	if err != nil {
		return nil, err
	}

	img, ok := images[ref.ObjNr]
	if !ok || img.Reader == nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "image_data",
			Err:     fmt.Errorf("%w: object %d on page %d", ErrImageNotFound, ref.ObjNr, ref.Page+1),
		}
	}
	delete(images, ref.ObjNr)

	data, err := io.ReadAll(img)
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "image_data", Err: fmt.Errorf("failed to read image: %w", err)}
	}
	return data, nil
}

// loadPageImages extracts and caches the images of a page. Callers hold d.mu.
func (d *Document) loadPageImages(index int) (images map[int]model.Image, err error) {
	if cached, ok := d.pageImages[index]; ok {
		return cached, nil
	}

	defer func() {
		if r := recover(); r != nil {
			images, err = nil, recovered(LibraryPDFCPU, "page_images", r)
		}
	}()

	if err := d.ensureImageContext(); err != nil {
		return nil, err
	}

	images, err = pdfcpu.ExtractPageImages(d.images, index+1, false)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "page_images",
			Err:     fmt.Errorf("failed to extract images of page %d: %w", index+1, err),
		}
	}
	if images == nil {
		images = map[int]model.Image{}
	}

	d.pageImages[index] = images
	return images, nil
}

// ensureImageContext parses the document with pdfcpu on first use.
// Image enumeration needs the optimized context.
func (d *Document) ensureImageContext() error {
	if d.images != nil {
		return nil
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = d.validation

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(d.data), conf)
	if err != nil {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	d.images = ctx
	return nil
}
