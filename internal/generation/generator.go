package generation

import (
	"context"

	"github.com/scribehq/scribe-api/internal/domain"
)

// Generator defines the interface for composing an article from a
// scraped conversation. This interface serves as the boundary between
// the scheduler and external AI/LLM services.
type Generator interface {
	// GenerateArticle composes an article from the ordered conversation
	// messages. languageHint is a BCP 47 tag the article should be
	// written in.
	//
	// Failures are reported through the sentinel errors in errors.go,
	// wrapped with provider detail. The scheduler maps all of them
	// uniformly to the task's terminal error state.
	GenerateArticle(ctx context.Context, messages []domain.Message, languageHint string) (string, error)
}
