package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-qa/internal/config"
	"github.com/a3tai/mcp-pdf-qa/internal/httpapi"
	"github.com/a3tai/mcp-pdf-qa/internal/mcp"
	"github.com/a3tai/mcp-pdf-qa/internal/ocr"
	"github.com/a3tai/mcp-pdf-qa/internal/pdf"
	"github.com/a3tai/mcp-pdf-qa/internal/qa"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger configures logging based on the server mode. Logs always go to
// stderr; in stdio mode they are dropped unless debug is enabled so they
// cannot interfere with the MCP protocol.
func newLogger(cfg *config.Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.IsStdioMode() && !cfg.IsDebug() {
		logger.SetOutput(io.Discard)
	}
	if !cfg.IsStdioMode() {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// newService wires the recognizer and assistant into the PDF service. The
// returned cleanup releases the recognizer's connections.
func newService(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*pdf.Service, func(), error) {
	recognizer, err := ocr.New(ctx, cfg.OCRConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}
	cleanup := func() {
		if c, ok := recognizer.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close OCR engine")
			}
		}
	}

	assistant, err := qa.New(cfg.QAConfig(), logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create assistant: %w", err)
	}
	if !cfg.QAEnabled() {
		logger.Warn("No OpenAI API key configured: questions will be answered with an error message")
	}

	opts := pdf.DefaultOptions(cfg.PDFDirectory)
	opts.MaxFileSize = cfg.MaxFileSize
	opts.Workers = cfg.Workers
	opts.Extract = cfg.ExtractConfig()
	opts.Recognizer = recognizer
	opts.Assistant = assistant
	opts.Logger = logger

	svc, err := pdf.NewService(opts)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create PDF service: %w", err)
	}

	return svc, cleanup, nil
}

// run serves in the configured mode until ctx is cancelled
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	svc, cleanup, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.IsHTTPMode() {
		return httpapi.NewHandler(svc, cfg.MaxFileSize, cfg.Version, logger).Serve(ctx, cfg.Address())
	}

	server, err := mcp.NewServer(cfg, svc, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	// Check for version flag before parsing other flags
	if hasVersionFlag(os.Args[1:]) {
		printVersion()
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	logger.WithField("config", cfg.String()).Debug("Starting with configuration")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		stop()
		os.Exit(1)
	}

	logger.Info("Server stopped successfully")
}

func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP PDF QA\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
