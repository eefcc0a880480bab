// Package gemini implements the generation.Generator interface using
// Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/scribehq/scribe-api/internal/config"
	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/generation"
)

// Generator implements generation.Generator against the Gemini API.
type Generator struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewGenerator creates a new Generator with the provided dependencies.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: logger,
		client: client,
		model:  cfg.Model,
	}, nil
}

// GenerateArticle composes an article from the conversation in a
// single Gemini request.
func (g *Generator) GenerateArticle(ctx context.Context, messages []domain.Message, languageHint string) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: empty conversation", generation.ErrGenerationFailed)
	}

	prompt := generation.BuildUserPrompt(messages, languageHint)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(generation.ArticleSystemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", mapError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	return text, nil
}

// mapError translates Gemini API errors into the generation sentinel
// taxonomy.
func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401:
			return fmt.Errorf("%w: %v", generation.ErrAuth, err)
		case apiErr.Code == 403 || apiErr.Code == 429:
			return fmt.Errorf("%w: %v", generation.ErrQuota, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %v", generation.ErrTransient, err)
		}
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %v", generation.ErrTransient, err)
}

var _ generation.Generator = (*Generator)(nil)
