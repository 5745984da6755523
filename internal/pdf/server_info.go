package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/a3tai/mcp-pdf-qa/internal/descriptions"
)

// Directory listing in server info stays small and fast
const (
	serverInfoFileLimit = 100
	serverInfoScanTime  = 3 * time.Second
)

// toolParameters documents the arguments of every tool
var toolParameters = map[string]string{
	"pdf_extract":           "path (required): PDF file, absolute or relative to the default directory",
	"pdf_extract_tables":    "path (required): PDF file, absolute or relative to the default directory",
	"pdf_ask":               "path (required), question (required), history (optional): JSON array of {question, answer}",
	"pdf_extract_directory": "directory (optional): defaults to the default directory, query (optional): filename filter, limit (optional): maximum files",
	"pdf_search_directory":  "directory (optional): defaults to the default directory, query (optional): fuzzy filename search",
	"pdf_validate_file":     "path (required): PDF file, absolute or relative to the default directory",
	"pdf_server_info":       "No parameters required",
}

// PDFServerInfo returns server capabilities and the first PDFs of the
// default directory. The directory scan is bounded in time and size and a
// failed scan yields an empty listing.
func (s *Service) PDFServerInfo(ctx context.Context, serverName, version string) (*PDFServerInfoResult, error) {
	scanCtx, cancel := context.WithTimeout(ctx, serverInfoScanTime)
	defer cancel()

	files, err := s.search.FindPDFsInDirectoryLimited(scanCtx, s.ConfiguredDirectory(), serverInfoFileLimit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.WithError(err).Debug("Directory scan for server info failed")
		files = []FileInfo{}
	}

	config := s.extractor.Config()
	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  s.ConfiguredDirectory(),
		MaxFileSize:       s.maxFileSize,
		MaxPages:          config.MaxPages,
		MaxImagePages:     config.MaxImagePages,
		MaxTextLength:     config.MaxTextLength,
		OCREnabled:        s.ocrEnabled,
		AvailableTools:    availableTools(),
		DirectoryContents: files,
		UsageGuidance:     s.usageGuidance(),
	}, nil
}

func availableTools() []ToolInfo {
	names := descriptions.GetAllToolNames()
	tools := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		tools = append(tools, ToolInfo{
			Name:        name,
			Description: descriptions.GetToolDescription(name),
			Parameters:  toolParameters[name],
		})
	}
	return tools
}

func (s *Service) usageGuidance() string {
	config := s.extractor.Config()
	ocr := "disabled: images are skipped"
	if s.ocrEnabled {
		ocr = fmt.Sprintf("enabled for the first %d pages, %d images per page", config.MaxImagePages, config.MaxImagesPerPage)
	}

	return fmt.Sprintf(`PDF QA Server Usage Guide:

1. FIND DOCUMENTS:
   - Use 'pdf_search_directory' to find available PDF files
   - Use 'pdf_validate_file' to check a file before processing

2. READ CONTENT:
   - Use 'pdf_extract' for the full text with tables inlined
   - Use 'pdf_extract_tables' when only the tables matter
   - Use 'pdf_extract_directory' to process a whole folder

3. ASK QUESTIONS:
   - Use 'pdf_ask' with a question; pass earlier turns as history for follow-ups

LIMITS:
- Files up to %dMB
- The first %d pages are read, text is capped at %d characters
- Image OCR is %s`,
		s.maxFileSize/(1024*1024), config.MaxPages, config.MaxTextLength, ocr)
}
