package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"MCP_PDF_MODE", "MCP_PDF_HOST", "MCP_PDF_PORT", "MCP_PDF_DIR", "MCP_PDF_LOGLEVEL",
	"MCP_PDF_MAXFILESIZE", "MCP_PDF_MAXPAGES", "MCP_PDF_WORKERS", "MCP_PDF_OCR", "MCP_PDF_OCRLANG",
	"MCP_PDF_DOCAI_PROJECT", "MCP_PDF_DOCAI_PROCESSOR", "MCP_PDF_OPENAI_KEY", "OPENAI_API_KEY",
}

// loadWithArgs runs LoadFromFlags against a fresh flag set, viper instance
// and environment
func loadWithArgs(t *testing.T, env map[string]string, args ...string) (*Config, error) {
	t.Helper()

	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		pflag.CommandLine = pflag.NewFlagSet(originalArgs[0], pflag.ExitOnError)
		viper.Reset()
	})

	for _, name := range envVars {
		t.Setenv(name, "")
	}
	for name, value := range env {
		t.Setenv(name, value)
	}

	os.Args = append([]string{"mcp-pdf-qa"}, args...)
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()

	return LoadFromFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	tempDir := t.TempDir()
	cfg, err := loadWithArgs(t, nil, "--dir="+tempDir)
	require.NoError(t, err)

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.Equal(t, tempDir, cfg.PDFDirectory)
	assert.Equal(t, 30, cfg.MaxPages)
	assert.Equal(t, "none", cfg.OCREngine)
	assert.Equal(t, []string{"eng"}, cfg.OCRLanguages)
	assert.Empty(t, cfg.OpenAIKey)
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tempDir := t.TempDir()
	cfg, err := loadWithArgs(t, nil,
		"--mode=http",
		"--host=0.0.0.0",
		"--port=9090",
		"--dir="+tempDir,
		"--loglevel=debug",
		"--maxfilesize=1048576",
		"--maxpages=5",
		"--maximagepages=2",
		"--maximagesperpage=1",
		"--maxtextlength=5000",
		"--workers=3",
		"--ocr=tesseract",
		"--ocrlang=eng+hin",
		"--openai-key=sk-flag",
		"--openai-model=gpt-4o-mini",
	)
	require.NoError(t, err)

	assert.Equal(t, ModeHTTP, cfg.Mode)
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.True(t, cfg.IsDebug())
	assert.Equal(t, int64(1048576), cfg.MaxFileSize)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, 2, cfg.MaxImagePages)
	assert.Equal(t, 1, cfg.MaxImagesPerPage)
	assert.Equal(t, 5000, cfg.MaxTextLength)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "tesseract", cfg.OCREngine)
	assert.Equal(t, []string{"eng", "hin"}, cfg.OCRLanguages)
	assert.Equal(t, "sk-flag", cfg.OpenAIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	tempDir := t.TempDir()
	cfg, err := loadWithArgs(t, map[string]string{
		"MCP_PDF_MODE":            "server",
		"MCP_PDF_HOST":            "192.168.1.1",
		"MCP_PDF_PORT":            "3000",
		"MCP_PDF_DIR":             tempDir,
		"MCP_PDF_LOGLEVEL":        "warn",
		"MCP_PDF_MAXFILESIZE":     "200000000",
		"MCP_PDF_MAXPAGES":        "12",
		"MCP_PDF_OCR":             "documentai",
		"MCP_PDF_DOCAI_PROJECT":   "reports-project",
		"MCP_PDF_DOCAI_PROCESSOR": "abc123",
		"OPENAI_API_KEY":          "sk-env",
	})
	require.NoError(t, err)

	assert.Equal(t, ModeServer, cfg.Mode)
	assert.Equal(t, "192.168.1.1", cfg.Host)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, int64(200000000), cfg.MaxFileSize)
	assert.Equal(t, 12, cfg.MaxPages)
	assert.Equal(t, "documentai", cfg.OCREngine)
	assert.Equal(t, "reports-project", cfg.DocAIProject)
	assert.Equal(t, "abc123", cfg.DocAIProcessor)
	assert.Equal(t, "sk-env", cfg.OpenAIKey)
}

func TestLoadFromFlags_PrefixedKeyWins(t *testing.T) {
	cfg, err := loadWithArgs(t, map[string]string{
		"MCP_PDF_OPENAI_KEY": "sk-prefixed",
		"OPENAI_API_KEY":     "sk-plain",
	}, "--dir="+t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "sk-prefixed", cfg.OpenAIKey)
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	cfg, err := loadWithArgs(t, map[string]string{
		"MCP_PDF_MODE": "server",
		"MCP_PDF_HOST": "192.168.1.1",
		"MCP_PDF_PORT": "3000",
	}, "--mode=stdio", "--host=localhost", "--port=8888", "--dir="+t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8888, cfg.Port)
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid mode", []string{"--mode=invalid"}, "mode must be one of"},
		{"invalid port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"invalid log level", []string{"--loglevel=invalid"}, "invalid log level"},
		{"invalid ocr engine", []string{"--ocr=magic"}, "invalid OCR engine"},
		{"zero workers", []string{"--workers=0"}, "workers must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--dir=" + t.TempDir()}, tt.args...)
			_, err := loadWithArgs(t, nil, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	_, err := loadWithArgs(t, nil, "--version")
	require.Error(t, err)
	assert.Equal(t, "version requested", err.Error())
}
