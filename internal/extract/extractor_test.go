package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-qa/internal/layout"
	"github.com/a3tai/mcp-pdf-qa/internal/ocr"
)

type fakeImage struct {
	data []byte
	err  error
}

type fakePage struct {
	text   string
	blocks []layout.Block
	images []fakeImage
}

type fakeDocument struct {
	pages      []fakePage
	textErr    map[int]error
	imagesErr  map[int]error
	textCalls  []int
	imageCalls []int
	dataCalls  []layout.ImageRef
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (d *fakeDocument) PageText(i int) (string, error) {
	d.textCalls = append(d.textCalls, i)
	if err := d.textErr[i]; err != nil {
		return "", err
	}
	return d.pages[i].text, nil
}

func (d *fakeDocument) PageLayout(i int) (layout.Page, error) {
	return layout.Page{Index: i, Blocks: d.pages[i].blocks}, nil
}

func (d *fakeDocument) PageImages(i int) ([]layout.ImageRef, error) {
	d.imageCalls = append(d.imageCalls, i)
	if err := d.imagesErr[i]; err != nil {
		return nil, err
	}
	refs := make([]layout.ImageRef, len(d.pages[i].images))
	for j := range refs {
		refs[j] = layout.ImageRef{Page: i, ObjNr: 100*i + j}
	}
	return refs, nil
}

func (d *fakeDocument) ImageData(ref layout.ImageRef) ([]byte, error) {
	d.dataCalls = append(d.dataCalls, ref)
	img := d.pages[ref.Page].images[ref.ObjNr-100*ref.Page]
	return img.data, img.err
}

type fakeRecognizer struct {
	mu    sync.Mutex
	texts map[int]string // by page
	err   error
	calls []ocr.Image
}

func (r *fakeRecognizer) Recognize(ctx context.Context, img ocr.Image) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, img)
	if r.err != nil {
		return "", r.err
	}
	return r.texts[img.Page], nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func pagesOf(n int, text string) []fakePage {
	pages := make([]fakePage, n)
	for i := range pages {
		pages[i] = fakePage{text: text}
	}
	return pages
}

func employeeTableBlock() layout.Block {
	return layout.Block{Lines: []layout.Line{
		line(span("S.No.", 50, 75), span("Name", 100, 130), span("Age", 200, 220)),
		line(span("1", 50, 55), span("Alice", 100, 125), span("30", 200, 210)),
		line(span("2", 50, 55), span("Bob", 100, 118), span("25", 200, 210)),
	}}
}

func TestExtractEmployeeTable(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{
		text: "Annual report\nTable 1: Employees by department\n",
		blocks: []layout.Block{
			textBlock("Annual report", "Table 1: Employees by department"),
			employeeTableBlock(),
		},
	}}}

	result, err := NewExtractor(DefaultConfig(), nil, nil).Extract(context.Background(), doc)
	require.NoError(t, err)

	want := "--- TABLE FROM PAGE 1 ---\n" +
		"TABLE HEADING: Table 1: Employees by department\n" +
		"S.No.      Name\tAge\n" +
		"1\tAlice\t30\n" +
		"2\tBob\t25"
	require.Len(t, result.Tables, 1)
	assert.Equal(t, want, result.Tables[0])
	assert.Equal(t, Normalize(doc.pages[0].text+"\n\n"+want+"\n\n"), result.Text)
	assert.Contains(t, result.Text, "S.No. Name Age 1 Alice 30 2 Bob 25")
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 1, result.PagesTotal)
	assert.Equal(t, 1, result.PagesProcessed)
	assert.False(t, result.Truncated)
}

func TestExtractRejectedTableIsNotInlined(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{
		text:   "Intro",
		blocks: []layout.Block{textBlock("No.", "1", "2")},
	}}}

	result, err := NewExtractor(DefaultConfig(), nil, nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, result.Tables)
	assert.Equal(t, "Intro", result.Text)
}

func TestExtractPageCap(t *testing.T) {
	pages := make([]fakePage, 35)
	for i := range pages {
		pages[i] = fakePage{text: fmt.Sprintf("[page%d] ", i+1)}
	}
	doc := &fakeDocument{pages: pages}

	result, err := NewExtractor(DefaultConfig(), nil, nil).Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.Len(t, doc.textCalls, 30)
	assert.Equal(t, 29, doc.textCalls[len(doc.textCalls)-1])
	assert.Equal(t, 35, result.PagesTotal)
	assert.Equal(t, 30, result.PagesProcessed)
	assert.Equal(t, 30, strings.Count(result.Text, "[page"))
	assert.Contains(t, result.Text, "[page1]")
	assert.Contains(t, result.Text, "[page30]")
	for n := 31; n <= 35; n++ {
		assert.NotContains(t, result.Text, fmt.Sprintf("[page%d]", n))
	}
}

func TestExtractTwoPageDocument(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{
		{
			text: "Annual report\nTable 1: Employees by department\n",
			blocks: []layout.Block{
				textBlock("Annual report", "Table 1: Employees by department"),
				employeeTableBlock(),
			},
		},
		{
			text:   "Workforce overview\n",
			blocks: []layout.Block{textBlock("Workforce overview")},
			images: []fakeImage{{data: pngBytes(t, 200, 200)}},
		},
	}}
	rec := &fakeRecognizer{texts: map[int]string{2: "Total employees 250 Male 150 Female 100"}}

	result, err := NewExtractor(DefaultConfig(), rec, nil).Extract(context.Background(), doc)
	require.NoError(t, err)

	pageTable := "--- TABLE FROM PAGE 1 ---\n" +
		"TABLE HEADING: Table 1: Employees by department\n" +
		"S.No.      Name\tAge\n" +
		"1\tAlice\t30\n" +
		"2\tBob\t25"
	imageTable := "--- TABLE FROM IMAGE (PAGE 2) ---\nTotal employees 250 Male 150 Female 100"

	assert.Equal(t, []string{pageTable, imageTable}, result.Tables)
	assert.Equal(t, Normalize(doc.pages[0].text+"\n\n"+pageTable+"\n\n"+doc.pages[1].text)+"\n\n"+imageTable,
		result.Text)
	assert.Less(t, strings.Index(result.Text, "Alice"), strings.Index(result.Text, "Workforce overview"))
	assert.Equal(t, 2, result.PagesTotal)
	assert.Equal(t, 2, result.PagesProcessed)
	assert.Equal(t, 1, result.ImagesOCRed)
	assert.False(t, result.Truncated)
}

func TestExtractEmptyDocument(t *testing.T) {
	result, err := NewExtractor(DefaultConfig(), &fakeRecognizer{}, nil).Extract(context.Background(), &fakeDocument{})
	require.NoError(t, err)
	assert.Equal(t, "", result.Text)
	assert.Empty(t, result.Tables)
}

func TestExtractImagePageCap(t *testing.T) {
	pages := pagesOf(12, "text")
	big := pngBytes(t, 120, 120)
	for i := range pages {
		pages[i].images = []fakeImage{{data: big}}
	}
	doc := &fakeDocument{pages: pages}
	rec := &fakeRecognizer{}

	_, err := NewExtractor(DefaultConfig(), rec, nil).Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, doc.imageCalls)
	assert.Len(t, rec.calls, 10)
}

func TestExtractImagesPerPageCap(t *testing.T) {
	big := pngBytes(t, 120, 120)
	small := pngBytes(t, 50, 50)
	doc := &fakeDocument{pages: []fakePage{{
		text: "text",
		images: []fakeImage{
			{data: small},
			{data: big},
			{data: big},
			{data: big},
			{data: big},
		},
	}}}
	rec := &fakeRecognizer{}

	result, err := NewExtractor(DefaultConfig(), rec, nil).Extract(context.Background(), doc)
	require.NoError(t, err)

	// the small image still counts toward the three considered
	assert.Len(t, doc.dataCalls, 3)
	assert.Len(t, rec.calls, 2)
	assert.Equal(t, 2, result.ImagesOCRed)
	assert.Equal(t, 1, result.ImagesSkipped)
}

func TestExtractSmallImagesNeverRecognized(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{
		text: "text",
		images: []fakeImage{
			{data: pngBytes(t, 99, 500)},
			{data: pngBytes(t, 500, 99)},
		},
	}}}
	rec := &fakeRecognizer{texts: map[int]string{1: "Total employees 250 Male 150 Female 100"}}

	result, err := NewExtractor(DefaultConfig(), rec, nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, rec.calls)
	assert.Empty(t, result.Tables)
	assert.Equal(t, "text", result.Text)
}

func TestExtractImageMinimumSizeIsInclusive(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{
		images: []fakeImage{{data: pngBytes(t, 100, 100)}},
	}}}
	rec := &fakeRecognizer{}

	_, err := NewExtractor(DefaultConfig(), rec, nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Len(t, rec.calls, 1)
}

func TestExtractImageText(t *testing.T) {
	big := pngBytes(t, 200, 200)
	doc := &fakeDocument{pages: []fakePage{
		{text: "First page", images: []fakeImage{{data: big}}},
		{text: "Second page", images: []fakeImage{{data: big}}},
		{text: "Third page", images: []fakeImage{{data: big}}},
	}}
	rec := &fakeRecognizer{texts: map[int]string{
		1: "Total employees 250 Male 150 Female 100",
		2: "Our new headquarters in Pune",
		3: "logo",
	}}

	result, err := NewExtractor(DefaultConfig(), rec, nil).Extract(context.Background(), doc)
	require.NoError(t, err)

	tableLabel := "--- TABLE FROM IMAGE (PAGE 1) ---\nTotal employees 250 Male 150 Female 100"
	captionLabel := "Image text (page 2): Our new headquarters in Pune"

	assert.Equal(t, []string{tableLabel}, result.Tables)
	assert.Equal(t, "First pageSecond pageThird page\n\n"+tableLabel+"\n"+captionLabel, result.Text)
	assert.NotContains(t, result.Text, "logo")
	assert.Equal(t, 3, result.ImagesOCRed)
}

func TestExtractImageTextIsCleanedBeforeClassification(t *testing.T) {
	big := pngBytes(t, 200, 200)
	doc := &fakeDocument{pages: []fakePage{
		{text: "one", images: []fakeImage{{data: big}}},
		{text: "two", images: []fakeImage{{data: big}}},
	}}
	rec := &fakeRecognizer{texts: map[int]string{
		1: "      logo      \n\n\n\n\n\n",
		2: "\n  Total employees 250 Male 150  \n",
	}}

	result, err := NewExtractor(DefaultConfig(), rec, nil).Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"--- TABLE FROM IMAGE (PAGE 2) ---\nTotal employees 250 Male 150"}, result.Tables)
	assert.NotContains(t, result.Text, "logo")
}

func TestExtractImageFailuresAreSkipped(t *testing.T) {
	big := pngBytes(t, 200, 200)
	doc := &fakeDocument{
		pages: []fakePage{
			{text: "one", images: []fakeImage{{err: errors.New("broken stream")}, {data: []byte("not an image")}}},
			{text: "two", images: []fakeImage{{data: big}}},
			{text: "three", images: []fakeImage{{data: big}}},
		},
		imagesErr: map[int]error{2: errors.New("bad resources")},
	}
	rec := &fakeRecognizer{err: errors.New("tesseract crashed")}

	result, err := NewExtractor(DefaultConfig(), rec, nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "onetwothree", result.Text)
	assert.Equal(t, 3, result.ImagesSkipped)
	assert.Equal(t, 0, result.ImagesOCRed)
	assert.Len(t, rec.calls, 1)
}

func TestExtractWithoutRecognizerSkipsImages(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{text: "text", images: []fakeImage{{data: pngBytes(t, 200, 200)}}}}}

	_, err := NewExtractor(DefaultConfig(), nil, nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, doc.imageCalls)
}

func TestExtractPageTextError(t *testing.T) {
	parseErr := errors.New("malformed content stream")
	doc := &fakeDocument{
		pages:   pagesOf(3, "text"),
		textErr: map[int]error{1: parseErr},
	}

	result, err := NewExtractor(DefaultConfig(), nil, nil).Extract(context.Background(), doc)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, parseErr)
	assert.Contains(t, err.Error(), "page 2")
}

func TestExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(DefaultConfig(), nil, nil).Extract(ctx, &fakeDocument{pages: pagesOf(2, "x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractTruncation(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{text: strings.Repeat("word ", 40000)}}}
	cfg := DefaultConfig()

	result, err := NewExtractor(cfg, nil, nil).Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.True(t, strings.HasSuffix(result.Text, cfg.TruncationNotice))
	assert.Equal(t, 1, strings.Count(result.Text, "[Document truncated due to size limitations]"))
	assert.Len(t, []rune(result.Text), cfg.MaxTextLength+len(cfg.TruncationNotice))
}

func TestExtractAtLengthCapIsNotTruncated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextLength = 10
	doc := &fakeDocument{pages: []fakePage{{text: "0123456789"}}}

	result, err := NewExtractor(cfg, nil, nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, result.Truncated)
	assert.Equal(t, "0123456789", result.Text)
}

func TestExtractTablesKeepPageOrder(t *testing.T) {
	var pages []fakePage
	for i := 0; i < 3; i++ {
		pages = append(pages, fakePage{
			text:   fmt.Sprintf("Page %d", i+1),
			blocks: []layout.Block{employeeTableBlock()},
		})
	}

	result, err := NewExtractor(DefaultConfig(), nil, nil).Extract(context.Background(), &fakeDocument{pages: pages})
	require.NoError(t, err)
	require.Len(t, result.Tables, 3)
	for i, table := range result.Tables {
		assert.True(t, strings.HasPrefix(table, fmt.Sprintf("--- TABLE FROM PAGE %d ---\n", i+1)))
	}
}
