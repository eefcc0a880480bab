package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/scribehq/scribe-api/internal/events"
)

// EventSource is the subscription surface of the event emitter.
type EventSource interface {
	RegisterHandler(handler events.Handler) int
	UnregisterHandler(id int)
}

// EventsHandler streams task transition events to clients over
// server-sent events, the push half of the polling+push status model.
type EventsHandler struct {
	source EventSource
	logger *slog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(source EventSource, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		source: source,
		logger: logger.With("component", "events_handler"),
	}
}

// Stream handles GET /api/tasks/events. The connection stays open
// until the client disconnects; each task transition arrives as one
// SSE data frame.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Buffered so a slow client drops frames instead of blocking the
	// scheduler's emit path.
	frames := make(chan *events.TaskEvent, 16)
	id := h.source.RegisterHandler(events.HandlerFunc(func(_ context.Context, event *events.TaskEvent) error {
		select {
		case frames <- event:
		default:
			h.logger.Debug("dropping event for slow subscriber", "event_id", event.ID)
		}
		return nil
	}))
	defer h.source.UnregisterHandler(id)

	h.logger.Debug("event stream opened", "remote_addr", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("event stream closed", "remote_addr", r.RemoteAddr)
			return
		case event := <-frames:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
