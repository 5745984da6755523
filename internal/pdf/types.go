package pdf

import "github.com/a3tai/mcp-pdf-qa/internal/qa"

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// PDFExtractRequest represents a request to extract a PDF file
type PDFExtractRequest struct {
	Path string `json:"path"`
}

// PDFExtractTablesRequest represents a request for the tables of a PDF file
type PDFExtractTablesRequest struct {
	Path string `json:"path"`
}

// PDFAskRequest represents a question about a PDF file
type PDFAskRequest struct {
	Path     string    `json:"path"`
	Question string    `json:"question"`
	History  []qa.Turn `json:"history,omitempty"`
}

// PDFExtractDirectoryRequest represents a batch extraction over a directory
type PDFExtractDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// PDFSearchDirectoryRequest represents a request to search for PDF files in a directory
type PDFSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// Response Types

// PDFExtractResult represents the result of extracting one PDF
type PDFExtractResult struct {
	ID             string   `json:"id"`
	Path           string   `json:"path"`
	Size           int64    `json:"size"`
	Text           string   `json:"text"`
	Tables         []string `json:"tables"`
	PagesTotal     int      `json:"pages_total"`
	PagesProcessed int      `json:"pages_processed"`
	ImagesOCRed    int      `json:"images_ocred"`
	ImagesSkipped  int      `json:"images_skipped"`
	Truncated      bool     `json:"truncated"`
}

// PDFTablesResult represents the tables found in a PDF
type PDFTablesResult struct {
	Path       string   `json:"path"`
	Tables     []string `json:"tables"`
	TotalCount int      `json:"total_count"`
	PagesTotal int      `json:"pages_total"`
}

// PDFAskResult represents the answer to a question about a PDF
type PDFAskResult struct {
	Path     string `json:"path"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PDFExtractDirectoryResult represents a batch extraction, files in directory order
type PDFExtractDirectoryResult struct {
	Directory   string                `json:"directory"`
	SearchQuery string                `json:"search_query,omitempty"`
	Files       []DirectoryFileResult `json:"files"`
	Succeeded   int                   `json:"succeeded"`
	Failed      int                   `json:"failed"`
}

// DirectoryFileResult is the outcome for one file of a batch
type DirectoryFileResult struct {
	File           FileInfo `json:"file"`
	PagesTotal     int      `json:"pages_total"`
	PagesProcessed int      `json:"pages_processed"`
	Tables         int      `json:"tables"`
	TextLength     int      `json:"text_length"`
	Truncated      bool     `json:"truncated"`
	Error          string   `json:"error,omitempty"`
}

// PDFSearchDirectoryResult represents the result of a PDF search operation
type PDFSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	MaxPages          int        `json:"max_pages"`
	MaxImagePages     int        `json:"max_image_pages"`
	MaxTextLength     int        `json:"max_text_length"`
	OCREnabled        bool       `json:"ocr_enabled"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}
