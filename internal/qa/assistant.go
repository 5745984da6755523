// Package qa answers questions about an extracted report with retrieval
// augmented generation: the text is chunked, embedded, the closest chunks are
// stuffed into a prompt and the chat model answers from them.
package qa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/textsplitter"
)

// ErrMissingAPIKey is reported when no model credentials were configured
var ErrMissingAPIKey = errors.New("API key not found. Please set the OpenAI API key in the configuration")

var errNoText = errors.New("the document contains no text")

// Embedder turns texts into vectors
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Config holds the model settings of the assistant
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string

	ChunkSize    int
	ChunkOverlap int
	Separators   []string
	TopK         int
	HistoryTurns int
}

// DefaultConfig returns the retrieval settings tuned for annual reports
func DefaultConfig() Config {
	return Config{
		Model:          "gpt-3.5-turbo",
		EmbeddingModel: "text-embedding-ada-002",
		ChunkSize:      800,
		ChunkOverlap:   100,
		Separators:     []string{"--- TABLE FROM PAGE", "\n\n", "\n", " ", ""},
		TopK:           5,
		HistoryTurns:   3,
	}
}

// Assistant answers questions over document text
type Assistant struct {
	config   Config
	llm      llms.Model
	embedder Embedder
	splitter textsplitter.TextSplitter
	logger   logrus.FieldLogger
}

// New creates an assistant backed by the OpenAI API. Without an API key the
// assistant is still returned and answers every question with an apology.
func New(config Config, logger logrus.FieldLogger) (*Assistant, error) {
	if config.APIKey == "" {
		return NewWithModels(config, nil, nil, logger), nil
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("error creating embedder: %w", err)
	}

	return NewWithModels(config, llm, embedder, logger), nil
}

// NewWithModels creates an assistant from already constructed models.
// Zero retrieval settings fall back to DefaultConfig.
func NewWithModels(config Config, llm llms.Model, embedder Embedder, logger logrus.FieldLogger) *Assistant {
	def := DefaultConfig()
	if config.ChunkSize <= 0 {
		config.ChunkSize = def.ChunkSize
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = def.ChunkOverlap
	}
	if len(config.Separators) == 0 {
		config.Separators = def.Separators
	}
	if config.TopK <= 0 {
		config.TopK = def.TopK
	}
	if config.HistoryTurns <= 0 {
		config.HistoryTurns = def.HistoryTurns
	}

	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	return &Assistant{
		config:   config,
		llm:      llm,
		embedder: embedder,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
			textsplitter.WithSeparators(config.Separators),
			textsplitter.WithKeepSeparator(true),
		),
		logger: logger,
	}
}

// Ask answers question from the document text. It never fails: errors are
// turned into an apology the caller can show as is.
func (a *Assistant) Ask(ctx context.Context, text, question string, history []Turn) string {
	answer, err := a.answer(ctx, text, question, history)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to answer question")
		return Apology(err)
	}
	return answer
}

// Chunks splits the document text and labels every chunk
func (a *Assistant) Chunks(text string) ([]Chunk, error) {
	texts, err := a.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	return tagChunks(texts), nil
}

func (a *Assistant) answer(ctx context.Context, text, question string, history []Turn) (string, error) {
	if a.llm == nil || a.embedder == nil {
		return "", ErrMissingAPIKey
	}

	if strings.TrimSpace(text) == "" {
		return "", errNoText
	}

	query := EnhanceQuery(question, history, a.config.HistoryTurns)

	chunks, err := a.Chunks(text)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", errNoText
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := a.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("failed to embed document: %w", err)
	}
	if len(vectors) != len(chunks) {
		return "", fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	queryVector, err := a.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	var selected []string
	var sources []string
	seen := make(map[string]bool)
	for _, idx := range topK(queryVector, vectors, a.config.TopK) {
		selected = append(selected, chunks[idx].Text)
		if !seen[chunks[idx].Source] {
			seen[chunks[idx].Source] = true
			sources = append(sources, chunks[idx].Source)
		}
	}

	a.logger.WithFields(logrus.Fields{
		"chunks":   len(chunks),
		"selected": len(selected),
	}).Debug("Retrieved context")

	prompt := BuildPrompt(strings.Join(selected, "\n\n"), query)
	answer, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return AppendTags(answer, sources), nil
}
