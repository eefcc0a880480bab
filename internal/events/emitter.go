package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple implementation of the Emitter interface
// that stores registered handlers in memory and dispatches events to
// them inline.
type InMemoryEmitter struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new instance of InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make(map[int]Handler),
		logger:   logger.With("component", "in_memory_emitter"),
	}
}

// RegisterHandler adds a new event handler and returns a token for
// UnregisterHandler. Registration order does not affect delivery
// guarantees.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.handlers[id] = handler
	e.logger.Debug("registered event handler", "handler_count", len(e.handlers))
	return id
}

// UnregisterHandler removes a previously registered handler. Unknown
// tokens are a no-op. Used by transient subscribers such as SSE
// connections.
func (e *InMemoryEmitter) UnregisterHandler(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, id)
}

// HandlerCount returns the number of registered handlers.
func (e *InMemoryEmitter) HandlerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}

// Emit publishes the event to all registered handlers. A failing
// handler is logged and skipped; the event is still delivered to every
// other handler. Side effects are advisory, so no error is returned.
func (e *InMemoryEmitter) Emit(ctx context.Context, event *TaskEvent) {
	e.mu.RLock()
	handlers := make([]Handler, 0, len(e.handlers))
	for _, h := range e.handlers {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"event_id", event.ID,
				"event_kind", event.Kind,
				"task_id", event.TaskID)
		}
	}
}

var _ Emitter = (*InMemoryEmitter)(nil)
