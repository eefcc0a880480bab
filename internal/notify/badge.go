package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scribehq/scribe-api/internal/events"
	"github.com/scribehq/scribe-api/internal/store"
)

// Badge exposes the active-task counter shown to clients. The text is
// the number of pending plus running tasks, or empty when nothing is
// active.
type Badge interface {
	// Set updates the badge text for the given active-task count.
	// A count of zero clears the badge.
	Set(ctx context.Context, active int) error

	// Text returns the current badge text. Empty means cleared.
	Text(ctx context.Context) (string, error)
}

// StoreBadge persists the badge text in the key-value store so it
// survives restarts alongside the task state.
type StoreBadge struct {
	kv     store.KV
	logger *slog.Logger
}

// NewStoreBadge creates a Badge backed by the given store.
func NewStoreBadge(kv store.KV, logger *slog.Logger) *StoreBadge {
	return &StoreBadge{
		kv:     kv,
		logger: logger.With("component", "badge"),
	}
}

func (b *StoreBadge) Set(ctx context.Context, active int) error {
	text := ""
	if active > 0 {
		text = fmt.Sprintf("%d", active)
	}
	if err := b.kv.PutBlob(ctx, store.BadgeKey, text); err != nil {
		return fmt.Errorf("failed to persist badge text: %w", err)
	}
	return nil
}

func (b *StoreBadge) Text(ctx context.Context) (string, error) {
	text, err := b.kv.GetBlob(ctx, store.BadgeKey)
	if err != nil {
		if store.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read badge text: %w", err)
	}
	return text, nil
}

var _ Badge = (*StoreBadge)(nil)

// BadgeHandler updates the badge from the bucket counts carried on
// every task event.
type BadgeHandler struct {
	badge  Badge
	logger *slog.Logger
}

// NewBadgeHandler creates an event handler that keeps the badge in
// sync with the active-task count.
func NewBadgeHandler(badge Badge, logger *slog.Logger) *BadgeHandler {
	return &BadgeHandler{
		badge:  badge,
		logger: logger.With("component", "badge_handler"),
	}
}

// HandleEvent implements events.Handler.
func (h *BadgeHandler) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	active := event.Pending + event.Running
	if err := h.badge.Set(ctx, active); err != nil {
		return fmt.Errorf("failed to update badge for event %s: %w", event.Kind, err)
	}
	h.logger.Debug("updated badge", "active", active, "event_kind", event.Kind)
	return nil
}

var _ events.Handler = (*BadgeHandler)(nil)
