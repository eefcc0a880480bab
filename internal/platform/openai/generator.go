package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/scribehq/scribe-api/internal/config"
	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/generation"
)

// defaultMaxChunkTokens bounds a single completion request when the
// configuration does not set one.
const defaultMaxChunkTokens = 6000

// Generator implements generation.Generator using the OpenAI
// chat-completions API.
type Generator struct {
	logger         *slog.Logger
	client         openai.Client
	model          string
	counter        tokenCounter
	maxChunkTokens int
}

// NewGenerator creates a Generator from the LLM configuration. The
// base URL may point at any OpenAI-compatible endpoint.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxChunkTokens := cfg.MaxChunkTokens
	if maxChunkTokens <= 0 {
		maxChunkTokens = defaultMaxChunkTokens
	}

	return &Generator{
		logger:         logger,
		client:         openai.NewClient(opts...),
		model:          cfg.Model,
		counter:        newTokenCounter(logger),
		maxChunkTokens: maxChunkTokens,
	}, nil
}

// GenerateArticle composes an article from the conversation. When the
// transcript fits the token budget it is sent in one request;
// otherwise each slice of the conversation is summarized first and the
// final article is written from the combined summaries.
func (g *Generator) GenerateArticle(ctx context.Context, messages []domain.Message, languageHint string) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: empty conversation", generation.ErrGenerationFailed)
	}

	prompt := generation.BuildUserPrompt(messages, languageHint)
	if g.counter.Count(prompt) <= g.maxChunkTokens {
		return g.complete(ctx, generation.ArticleSystemPrompt, prompt)
	}

	chunks := splitMessages(messages, g.counter, g.maxChunkTokens)
	g.logger.InfoContext(ctx, "conversation exceeds token budget, composing via chunked summaries",
		"chunks", len(chunks),
		"budget", g.maxChunkTokens)

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := g.complete(ctx, generation.ChunkSummaryPrompt, generation.BuildUserPrompt(chunk, languageHint))
		if err != nil {
			return "", fmt.Errorf("failed to summarize chunk %d of %d: %w", i+1, len(chunks), err)
		}
		summaries = append(summaries, summary)
	}

	combined := fmt.Sprintf("## Target language: %s\n\n## Condensed conversation, in order\n---\n%s\n---",
		languageHint, strings.Join(summaries, "\n\n"))
	return g.complete(ctx, generation.ArticleSystemPrompt, combined)
}

// complete runs one chat-completion request and returns the model text.
func (g *Generator) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", generation.ErrInvalidResponse)
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%w: empty completion content", generation.ErrInvalidResponse)
	}

	return content, nil
}

// mapError translates OpenAI SDK errors into the generation sentinel
// taxonomy so the scheduler can record them uniformly.
func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401:
			return fmt.Errorf("%w: %v", generation.ErrAuth, err)
		case apiErr.StatusCode == 403 || apiErr.StatusCode == 429:
			return fmt.Errorf("%w: %v", generation.ErrQuota, err)
		case apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: %v", generation.ErrTransient, err)
		}
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	// Anything else is assumed to be a network-level failure.
	return fmt.Errorf("%w: %v", generation.ErrTransient, err)
}

var _ generation.Generator = (*Generator)(nil)
