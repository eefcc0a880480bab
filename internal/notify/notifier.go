package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scribehq/scribe-api/internal/events"
)

// Notification describes a user-facing message about a terminal task.
type Notification struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	TaskID string `json:"task_id"`
}

// Notifier delivers user-facing notifications. Implementations must
// treat delivery as best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log. It is the
// fallback when no webhook is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a Notifier that only logs.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "log_notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, notification Notification) error {
	n.logger.Info("notification",
		"title", notification.Title,
		"body", notification.Body,
		"task_id", notification.TaskID)
	return nil
}

// WebhookNotifier posts notifications as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a Notifier that posts to the given URL.
func NewWebhookNotifier(url string, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With("component", "webhook_notifier"),
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*WebhookNotifier)(nil)
)

// NotificationHandler emits a notification when a task reaches a
// terminal state. Non-terminal events are ignored. When disabled the
// handler drops everything, mirroring a denied notification
// permission.
type NotificationHandler struct {
	notifier Notifier
	enabled  bool
	logger   *slog.Logger
}

// NewNotificationHandler creates an event handler that forwards
// terminal transitions to the notifier.
func NewNotificationHandler(notifier Notifier, enabled bool, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		enabled:  enabled,
		logger:   logger.With("component", "notification_handler"),
	}
}

// HandleEvent implements events.Handler.
func (h *NotificationHandler) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	if !event.Terminal() {
		return nil
	}
	if !h.enabled {
		h.logger.Debug("notifications disabled, dropping", "task_id", event.TaskID)
		return nil
	}

	n := Notification{TaskID: event.TaskID}
	switch event.Kind {
	case events.KindFinished:
		n.Title = "Task finished"
		n.Body = "The article is ready."
	case events.KindFailed:
		n.Title = "Task failed"
		n.Body = event.Error
		if n.Body == "" {
			n.Body = "The task could not be completed."
		}
	}

	if err := h.notifier.Notify(ctx, n); err != nil {
		return fmt.Errorf("failed to notify for task %s: %w", event.TaskID, err)
	}
	return nil
}

var _ events.Handler = (*NotificationHandler)(nil)
