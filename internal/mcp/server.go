package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-qa/internal/config"
	"github.com/a3tai/mcp-pdf-qa/internal/pdf"
	"github.com/a3tai/mcp-pdf-qa/internal/qa"
)

const shutdownTimeout = 5 * time.Second

// PDFService is the part of pdf.Service the tools call
type PDFService interface {
	PDFExtract(ctx context.Context, req pdf.PDFExtractRequest) (*pdf.PDFExtractResult, error)
	PDFExtractTables(ctx context.Context, req pdf.PDFExtractTablesRequest) (*pdf.PDFTablesResult, error)
	PDFAsk(ctx context.Context, req pdf.PDFAskRequest) (*pdf.PDFAskResult, error)
	PDFExtractDirectory(ctx context.Context, req pdf.PDFExtractDirectoryRequest) (*pdf.PDFExtractDirectoryResult, error)
	PDFSearchDirectory(ctx context.Context, req pdf.PDFSearchDirectoryRequest) (*pdf.PDFSearchDirectoryResult, error)
	PDFValidateFile(req pdf.PDFValidateFileRequest) (*pdf.PDFValidateFileResult, error)
	PDFServerInfo(ctx context.Context, serverName, version string) (*pdf.PDFServerInfoResult, error)
}

var _ PDFService = (*pdf.Service)(nil)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService PDFService
	mcpServer  *server.MCPServer
	logger     logrus.FieldLogger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService PDFService, logger logrus.FieldLogger) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pdfExtractTool := mcp.NewTool(
		"pdf_extract",
		mcp.WithDescription("Extract the text of a PDF with tables rebuilt and image text recognized"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the PDF directory"),
		),
	)
	s.mcpServer.AddTool(pdfExtractTool, s.handlePDFExtract)

	pdfExtractTablesTool := mcp.NewTool(
		"pdf_extract_tables",
		mcp.WithDescription("List the tables detected in a PDF file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the PDF directory"),
		),
	)
	s.mcpServer.AddTool(pdfExtractTablesTool, s.handlePDFExtractTables)

	pdfAskTool := mcp.NewTool(
		"pdf_ask",
		mcp.WithDescription("Answer a question about a PDF file from its content"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the PDF directory"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question about the document"),
		),
		mcp.WithString("history",
			mcp.Description(`Earlier turns as a JSON array: [{"question": "...", "answer": "..."}]`),
		),
	)
	s.mcpServer.AddTool(pdfAskTool, s.handlePDFAsk)

	pdfExtractDirectoryTool := mcp.NewTool(
		"pdf_extract_directory",
		mcp.WithDescription("Extract every PDF file of a directory concurrently"),
		mcp.WithString("directory",
			mcp.Description("Directory path to process (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional fuzzy filename filter"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of files to process (0 for all)"),
		),
	)
	s.mcpServer.AddTool(pdfExtractDirectoryTool, s.handlePDFExtractDirectory)

	pdfSearchDirectoryTool := mcp.NewTool(
		"pdf_search_directory",
		mcp.WithDescription("Search for PDF files in a directory with optional fuzzy search"),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	)
	s.mcpServer.AddTool(pdfSearchDirectoryTool, s.handlePDFSearchDirectory)

	pdfValidateFileTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription("Validate if a file is a readable PDF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the PDF directory"),
		),
	)
	s.mcpServer.AddTool(pdfValidateFileTool, s.handlePDFValidateFile)

	pdfServerInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription("Get server information, available tools, limits and directory contents"),
	)
	s.mcpServer.AddTool(pdfServerInfoTool, s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handlePDFExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFExtract(ctx, pdf.PDFExtractRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFExtractResult(result)), nil
}

func (s *Server) handlePDFExtractTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFExtractTables(ctx, pdf.PDFExtractTablesRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.TotalCount == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No tables found in %s (%d pages)", result.Path, result.PagesTotal)), nil
	}

	text := fmt.Sprintf("Found %d table(s) in %s\n\n", result.TotalCount, result.Path)
	text += strings.Join(result.Tables, "\n\n")
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePDFAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var history []qa.Turn
	if raw, ok := request.GetArguments()["history"].(string); ok && strings.TrimSpace(raw) != "" {
		history, err = qa.ParseHistory(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result, err := s.pdfService.PDFAsk(ctx, pdf.PDFAskRequest{Path: path, Question: question, History: history})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result.Answer), nil
}

func (s *Server) handlePDFExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := pdf.PDFExtractDirectoryRequest{}
	if dir, ok := args["directory"].(string); ok {
		req.Directory = dir
	}
	if q, ok := args["query"].(string); ok {
		req.Query = q
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		req.Limit = int(limit)
	}

	result, err := s.pdfService.PDFExtractDirectory(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFExtractDirectoryResult(result)), nil
}

func (s *Server) handlePDFSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := pdf.PDFSearchDirectoryRequest{}
	if dir, ok := args["directory"].(string); ok {
		req.Directory = dir
	}
	if q, ok := args["query"].(string); ok {
		req.Query = q
	}

	result, err := s.pdfService.PDFSearchDirectory(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatPDFSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatPDFExtractResult(result *pdf.PDFExtractResult) string {
	text := fmt.Sprintf("Successfully extracted PDF: %s\n", result.Path)
	text += fmt.Sprintf("Pages: %d (processed %d)\n", result.PagesTotal, result.PagesProcessed)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	text += fmt.Sprintf("Tables: %d\n", len(result.Tables))
	if result.ImagesOCRed > 0 || result.ImagesSkipped > 0 {
		text += fmt.Sprintf("Images OCRed: %d, skipped: %d\n", result.ImagesOCRed, result.ImagesSkipped)
	}
	if result.PagesProcessed < result.PagesTotal {
		text += fmt.Sprintf("\n⚠️  Only the first %d pages were read.\n", result.PagesProcessed)
	}
	if result.Truncated {
		text += "\n⚠️  The text was truncated due to size limitations.\n"
	}

	text += "\nContent:\n"
	text += result.Text

	return text
}

func (s *Server) formatPDFExtractDirectoryResult(result *pdf.PDFExtractDirectoryResult) string {
	text := fmt.Sprintf("Extracted %d PDF file(s) in directory: %s\n", len(result.Files), result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += fmt.Sprintf("Succeeded: %d, Failed: %d\n", result.Succeeded, result.Failed)

	for i, entry := range result.Files {
		text += fmt.Sprintf("\n%d. %s\n", i+1, entry.File.Name)
		text += fmt.Sprintf("   Path: %s\n", entry.File.Path)
		if entry.Error != "" {
			text += fmt.Sprintf("   Error: %s\n", entry.Error)
			continue
		}
		text += fmt.Sprintf("   Pages: %d, Tables: %d, Characters: %d\n", entry.PagesTotal, entry.Tables, entry.TextLength)
		if entry.Truncated {
			text += "   Truncated: yes\n"
		}
	}

	return text
}

func (s *Server) formatPDFSearchDirectoryResult(result *pdf.PDFSearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("📄 Pages Read: %d, Text Limit: %d characters\n", result.MaxPages, result.MaxTextLength)
	text += fmt.Sprintf("🖼️  Image OCR: %t\n\n", result.OCREnabled)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.WithField("dir", s.config.PDFDirectory).Debug("Starting PDF MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	s.logger.WithFields(logrus.Fields{
		"addr": addr,
		"dir":  s.config.PDFDirectory,
	}).Info("Starting PDF MCP server over SSE")

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve SSE: %w", err)
	}
}
