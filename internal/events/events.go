package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskEventKind identifies which transition an event describes.
type TaskEventKind string

// Possible task event kinds
const (
	// KindSubmitted fires when a task is admitted into the pending bucket.
	KindSubmitted TaskEventKind = "submitted"

	// KindStarted fires when a task moves from pending to running.
	KindStarted TaskEventKind = "started"

	// KindFinished fires when a task reaches the finished terminal
	// state with a result.
	KindFinished TaskEventKind = "finished"

	// KindFailed fires when a task reaches the error terminal state.
	KindFailed TaskEventKind = "failed"

	// KindDeleted fires when a task is removed.
	KindDeleted TaskEventKind = "deleted"

	// KindSynced fires when a task's result is published to the
	// external workspace.
	KindSynced TaskEventKind = "synced"
)

// TaskEvent describes one task state transition. It carries the
// pending and running counts observed at transition time so observers
// like the badge never need to read scheduler state.
type TaskEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Kind indicates the transition that occurred.
	Kind TaskEventKind `json:"kind"`

	// TaskID is the id of the task that transitioned.
	TaskID string `json:"task_id"`

	// Error carries the failure message for KindFailed events.
	Error string `json:"error,omitempty"`

	// Pending and Running are the bucket sizes after the transition.
	Pending int `json:"pending"`
	Running int `json:"running"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent creates a TaskEvent for the given transition.
func NewTaskEvent(kind TaskEventKind, taskID string, pending, running int) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Kind:      kind,
		TaskID:    taskID,
		Pending:   pending,
		Running:   running,
		CreatedAt: time.Now().UTC(),
	}
}

// Terminal reports whether the event describes a terminal transition.
func (e *TaskEvent) Terminal() bool {
	return e.Kind == KindFinished || e.Kind == KindFailed
}

// Handler defines an interface for components that can handle task
// events. Handlers must be fast or hand off internally; the emitter
// calls them inline.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// Emitter defines an interface for components that can emit task
// events. Emission is fire-and-forget: handler errors are logged by
// the implementation and never propagate to the caller.
type Emitter interface {
	// Emit publishes the given event to all registered handlers.
	Emit(ctx context.Context, event *TaskEvent)
}
