package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-qa/internal/extract"
	"github.com/a3tai/mcp-pdf-qa/internal/ocr"
	"github.com/a3tai/mcp-pdf-qa/internal/qa"
)

const (
	// Mode constants
	ModeStdio  = "stdio"  // MCP over standard I/O
	ModeServer = "server" // MCP over SSE
	ModeHTTP   = "http"   // REST upload API

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultOCRLanguage = "eng"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF QA server
type Config struct {
	// Server configuration
	Mode string // "stdio", "server" or "http"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes

	// Extraction caps
	MaxPages         int
	MaxImagePages    int
	MaxImagesPerPage int
	MaxTextLength    int
	Workers          int // documents extracted concurrently in batch mode

	// OCR
	OCREngine        string // "none", "tesseract" or "documentai"
	OCRLanguages     []string
	DocAIProject     string
	DocAILocation    string
	DocAIProcessor   string
	DocAICredentials string

	// Question answering
	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAIModel    string
	EmbeddingModel string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	ext := extract.DefaultConfig()
	assistant := qa.DefaultConfig()

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		PDFDirectory:     currentDir,
		Version:          "1.0.0",
		ServerName:       "mcp-pdf-qa",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
		MaxPages:         ext.MaxPages,
		MaxImagePages:    ext.MaxImagePages,
		MaxImagesPerPage: ext.MaxImagesPerPage,
		MaxTextLength:    ext.MaxTextLength,
		Workers:          runtime.NumCPU(),
		OCREngine:        string(ocr.EngineNone),
		OCRLanguages:     []string{DefaultOCRLanguage},
		DocAILocation:    "us",
		OpenAIModel:      assistant.Model,
		EmbeddingModel:   assistant.EmbeddingModel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flagKeys lists every key shared by flags, environment and viper
var flagKeys = []string{
	"mode", "host", "port", "dir", "loglevel", "maxfilesize",
	"maxpages", "maximagepages", "maximagesperpage", "maxtextlength", "workers",
	"ocr", "ocrlang", "docai-project", "docai-location", "docai-processor", "docai-credentials",
	"openai-key", "openai-base-url", "openai-model", "embedding-model",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// MCP_PDF_DOCAI_PROJECT and friends
	viper.SetEnvPrefix("MCP_PDF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// The conventional OpenAI variable is honored as a fallback
	_ = viper.BindEnv("openai-key", "MCP_PDF_OPENAI_KEY", "OPENAI_API_KEY")

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("maxpages", cfg.MaxPages)
	viper.SetDefault("maximagepages", cfg.MaxImagePages)
	viper.SetDefault("maximagesperpage", cfg.MaxImagesPerPage)
	viper.SetDefault("maxtextlength", cfg.MaxTextLength)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("ocr", cfg.OCREngine)
	viper.SetDefault("ocrlang", strings.Join(cfg.OCRLanguages, "+"))
	viper.SetDefault("docai-location", cfg.DocAILocation)
	viper.SetDefault("openai-model", cfg.OpenAIModel)
	viper.SetDefault("embedding-model", cfg.EmbeddingModel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for MCP over SSE, 'http' for the upload API")
	pflag.String("host", cfg.Host, "Server host address (server and http modes)")
	pflag.Int("port", cfg.Port, "Server port (server and http modes)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")

	pflag.Int("maxpages", cfg.MaxPages, "Pages read per document")
	pflag.Int("maximagepages", cfg.MaxImagePages, "Leading pages whose images are OCRed")
	pflag.Int("maximagesperpage", cfg.MaxImagesPerPage, "Images considered per page")
	pflag.Int("maxtextlength", cfg.MaxTextLength, "Maximum characters of extracted text")
	pflag.Int("workers", cfg.Workers, "Documents extracted concurrently in directory mode")

	pflag.String("ocr", cfg.OCREngine, "OCR engine: none, tesseract or documentai")
	pflag.String("ocrlang", strings.Join(cfg.OCRLanguages, "+"), "Tesseract languages, e.g. eng+deu")
	pflag.String("docai-project", "", "Google Cloud project of the Document AI processor")
	pflag.String("docai-location", cfg.DocAILocation, "Document AI location (us, eu)")
	pflag.String("docai-processor", "", "Document AI processor ID")
	pflag.String("docai-credentials", "", "Service account credentials file for Document AI")

	pflag.String("openai-key", "", "OpenAI API key used to answer questions")
	pflag.String("openai-base-url", "", "OpenAI compatible API base URL")
	pflag.String("openai-model", cfg.OpenAIModel, "Chat model used to answer questions")
	pflag.String("embedding-model", cfg.EmbeddingModel, "Embedding model used for retrieval")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF QA - extract text and tables from PDF files and answer questions about them\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --ocr=tesseract     "+
			"# stdio mode with image OCR\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/pdfs       # MCP over SSE\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=http --host=0.0.0.0 --port=8081  # upload API on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option can be set as MCP_PDF_<OPTION>, dashes become underscores,\n")
		fmt.Fprintf(os.Stderr, "  e.g. MCP_PDF_MODE, MCP_PDF_DIR, MCP_PDF_DOCAI_PROJECT.\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY is used when MCP_PDF_OPENAI_KEY is not set.\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")

	cfg.MaxPages = viper.GetInt("maxpages")
	cfg.MaxImagePages = viper.GetInt("maximagepages")
	cfg.MaxImagesPerPage = viper.GetInt("maximagesperpage")
	cfg.MaxTextLength = viper.GetInt("maxtextlength")
	cfg.Workers = viper.GetInt("workers")

	cfg.OCREngine = viper.GetString("ocr")
	cfg.OCRLanguages = ParseLanguages(viper.GetString("ocrlang"))
	cfg.DocAIProject = viper.GetString("docai-project")
	cfg.DocAILocation = viper.GetString("docai-location")
	cfg.DocAIProcessor = viper.GetString("docai-processor")
	cfg.DocAICredentials = viper.GetString("docai-credentials")

	cfg.OpenAIKey = viper.GetString("openai-key")
	cfg.OpenAIBaseURL = viper.GetString("openai-base-url")
	cfg.OpenAIModel = viper.GetString("openai-model")
	cfg.EmbeddingModel = viper.GetString("embedding-model")
}

// ParseLanguages splits a Tesseract language list on '+' or ','
func ParseLanguages(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer && c.Mode != ModeHTTP {
		return errors.New("mode must be one of 'stdio', 'server' or 'http'")
	}

	// Validate port range (only for network modes)
	if c.Mode != ModeStdio && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}

	if err := c.ExtractConfig().Validate(); err != nil {
		return err
	}

	// Validate OCR engine
	switch ocr.Engine(c.OCREngine) {
	case ocr.EngineNone:
	case ocr.EngineTesseract:
		if len(c.OCRLanguages) == 0 {
			return errors.New("tesseract needs at least one language")
		}
	case ocr.EngineDocumentAI:
		if c.DocAIProject == "" || c.DocAIProcessor == "" {
			return errors.New("documentai needs --docai-project and --docai-processor")
		}
	default:
		return fmt.Errorf("invalid OCR engine: %s (must be one of: none, tesseract, documentai)", c.OCREngine)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// ExtractConfig returns the extraction thresholds with the configured caps applied
func (c *Config) ExtractConfig() extract.Config {
	ext := extract.DefaultConfig()
	ext.MaxPages = c.MaxPages
	ext.MaxImagePages = c.MaxImagePages
	ext.MaxImagesPerPage = c.MaxImagesPerPage
	ext.MaxTextLength = c.MaxTextLength
	return ext
}

// OCRConfig returns the recognizer configuration
func (c *Config) OCRConfig() ocr.Config {
	return ocr.Config{
		Engine:          ocr.Engine(c.OCREngine),
		Languages:       c.OCRLanguages,
		ProjectID:       c.DocAIProject,
		Location:        c.DocAILocation,
		ProcessorID:     c.DocAIProcessor,
		CredentialsFile: c.DocAICredentials,
	}
}

// QAConfig returns the assistant configuration
func (c *Config) QAConfig() qa.Config {
	assistant := qa.DefaultConfig()
	assistant.APIKey = c.OpenAIKey
	assistant.BaseURL = c.OpenAIBaseURL
	assistant.Model = c.OpenAIModel
	assistant.EmbeddingModel = c.EmbeddingModel
	return assistant
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The API key is never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"MaxPages: %d, Workers: %d, OCR: %s, QA: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.MaxPages, c.Workers, c.OCREngine, c.QAEnabled())
}

// QAEnabled reports whether an API key is configured
func (c *Config) QAEnabled() bool {
	return c.OpenAIKey != ""
}

// IsServerMode returns true if the server is running MCP over SSE
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsHTTPMode returns true if the server is running the upload API
func (c *Config) IsHTTPMode() bool {
	return c.Mode == ModeHTTP
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
