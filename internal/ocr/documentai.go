package ocr

import (
	"context"
	"errors"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocumentAIConfig identifies a Document AI OCR processor
type DocumentAIConfig struct {
	ProjectID       string
	Location        string // e.g. "us" or "eu"
	ProcessorID     string
	CredentialsFile string // empty uses application default credentials
}

// Validate checks that the processor is fully identified
func (c DocumentAIConfig) Validate() error {
	if c.ProjectID == "" {
		return errors.New("document ai project id is required")
	}
	if c.Location == "" {
		return errors.New("document ai location is required")
	}
	if c.ProcessorID == "" {
		return errors.New("document ai processor id is required")
	}
	return nil
}

// ProcessorName returns the fully qualified processor resource name
func (c DocumentAIConfig) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAI recognizes text with a Google Document AI OCR processor
type DocumentAI struct {
	client *documentai.DocumentProcessorClient
	name   string
}

// NewDocumentAI connects to the regional Document AI endpoint
func NewDocumentAI(ctx context.Context, config DocumentAIConfig) (*DocumentAI, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)),
	}
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}

	return &DocumentAI{client: client, name: config.ProcessorName()}, nil
}

// Recognize sends the image to the processor and returns the document text
func (d *DocumentAI) Recognize(ctx context.Context, img Image) (string, error) {
	req := &documentaipb.ProcessRequest{
		Name: d.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  img.Data,
				MimeType: MimeType(img.Format),
			},
		},
		SkipHumanReview: true,
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to process image: %w", err)
	}

	return Clean(resp.GetDocument().GetText()), nil
}

// Close releases the client connection
func (d *DocumentAI) Close() error {
	return d.client.Close()
}

// MimeType maps an image format name to the MIME type Document AI expects
func MimeType(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
