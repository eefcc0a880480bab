package events_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe-api/internal/events"
)

// recordingHandler captures handled events for assertions.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.TaskEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.TaskEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) handled() []*events.TaskEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*events.TaskEvent, len(h.events))
	copy(out, h.events)
	return out
}

func TestNewTaskEvent(t *testing.T) {
	t.Parallel()

	event := events.NewTaskEvent(events.KindStarted, "task-1", 2, 1)

	require.NotNil(t, event)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, events.KindStarted, event.Kind)
	assert.Equal(t, "task-1", event.TaskID)
	assert.Equal(t, 2, event.Pending)
	assert.Equal(t, 1, event.Running)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestTaskEventTerminal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind     events.TaskEventKind
		terminal bool
	}{
		{events.KindSubmitted, false},
		{events.KindStarted, false},
		{events.KindFinished, true},
		{events.KindFailed, true},
		{events.KindDeleted, false},
		{events.KindSynced, false},
	}

	for _, tc := range cases {
		event := events.NewTaskEvent(tc.kind, "task-1", 0, 0)
		assert.Equal(t, tc.terminal, event.Terminal(), "kind %s", tc.kind)
	}
}

func TestInMemoryEmitterDeliversToAllHandlers(t *testing.T) {
	t.Parallel()

	emitter := events.NewInMemoryEmitter(slog.Default())
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event := events.NewTaskEvent(events.KindSubmitted, "task-1", 1, 0)
	emitter.Emit(context.Background(), event)

	require.Len(t, first.handled(), 1)
	require.Len(t, second.handled(), 1)
	assert.Equal(t, event.ID, first.handled()[0].ID)
}

func TestInMemoryEmitterContinuesPastFailingHandler(t *testing.T) {
	t.Parallel()

	emitter := events.NewInMemoryEmitter(slog.Default())
	failing := &recordingHandler{err: errors.New("handler broke")}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	emitter.Emit(context.Background(), events.NewTaskEvent(events.KindFinished, "task-1", 0, 0))

	assert.Len(t, failing.handled(), 1)
	assert.Len(t, healthy.handled(), 1)
}

func TestInMemoryEmitterUnregisterHandler(t *testing.T) {
	t.Parallel()

	emitter := events.NewInMemoryEmitter(slog.Default())
	handler := &recordingHandler{}
	id := emitter.RegisterHandler(handler)

	emitter.Emit(context.Background(), events.NewTaskEvent(events.KindStarted, "task-1", 0, 1))
	emitter.UnregisterHandler(id)
	emitter.Emit(context.Background(), events.NewTaskEvent(events.KindFinished, "task-1", 0, 0))

	assert.Len(t, handler.handled(), 1)

	// Unknown tokens are ignored.
	emitter.UnregisterHandler(999)
}

func TestInMemoryEmitterNoHandlers(t *testing.T) {
	t.Parallel()

	emitter := events.NewInMemoryEmitter(slog.Default())
	emitter.Emit(context.Background(), events.NewTaskEvent(events.KindDeleted, "task-1", 0, 0))
}
