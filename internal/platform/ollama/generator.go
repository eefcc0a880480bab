// Package ollama implements the generation.Generator interface against
// a local Ollama server, for running article generation on local
// models without any API key.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/scribehq/scribe-api/internal/config"
	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/generation"
)

// defaultBaseURL is the stock Ollama listen address.
const defaultBaseURL = "http://localhost:11434"

// Generator implements generation.Generator using the Ollama chat API.
type Generator struct {
	logger *slog.Logger
	client *api.Client
	model  string
}

// NewGenerator creates a Generator talking to the configured Ollama
// host.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ollama base url %q: %v", generation.ErrInvalidConfig, baseURL, err)
	}

	return &Generator{
		logger: logger,
		client: api.NewClient(parsed, http.DefaultClient),
		model:  cfg.Model,
	}, nil
}

// GenerateArticle composes an article from the conversation in a
// single non-streaming chat request.
func (g *Generator) GenerateArticle(ctx context.Context, messages []domain.Message, languageHint string) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: empty conversation", generation.ErrGenerationFailed)
	}

	stream := false
	req := &api.ChatRequest{
		Model:  g.model,
		Stream: &stream,
		Messages: []api.Message{
			{Role: "system", Content: generation.ArticleSystemPrompt},
			{Role: "user", Content: generation.BuildUserPrompt(messages, languageHint)},
		},
	}

	var content strings.Builder
	err := g.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", generation.ErrTransient, err)
	}

	if content.Len() == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	return content.String(), nil
}

var _ generation.Generator = (*Generator)(nil)
