package openai

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/scribehq/scribe-api/internal/domain"
)

// tokenCounter measures prompt size. An interface so tests can supply
// a deterministic counter.
type tokenCounter interface {
	Count(text string) int
}

// newTokenCounter returns a cl100k_base tiktoken counter, falling back
// to a rune-based estimate when the encoding cannot be loaded (tiktoken
// fetches encodings lazily and may be offline).
func newTokenCounter(logger *slog.Logger) tokenCounter {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("tiktoken encoding unavailable, falling back to estimated token counts", "error", err)
		return estimateCounter{}
	}
	return tiktokenCounter{encoding: encoding}
}

type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// estimateCounter approximates tokens as runes/3, a middle ground
// between dense CJK text (~1 rune per token) and English (~4 runes per
// token).
type estimateCounter struct{}

func (estimateCounter) Count(text string) int {
	return len([]rune(text))/3 + 1
}

// splitMessages greedily partitions the conversation into contiguous
// slices whose prompt size stays within budget. Message order is
// preserved; a single message larger than the budget still gets its
// own slice, since splitting inside a message would corrupt the turn
// structure.
func splitMessages(messages []domain.Message, counter tokenCounter, budget int) [][]domain.Message {
	var chunks [][]domain.Message
	var current []domain.Message
	currentTokens := 0

	for _, msg := range messages {
		msgTokens := counter.Count(msg.Content)

		if len(current) > 0 && currentTokens+msgTokens > budget {
			chunks = append(chunks, current)
			current = nil
			currentTokens = 0
		}

		current = append(current, msg)
		currentTokens += msgTokens
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	return chunks
}
