package scheduler

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/events"
	"github.com/scribehq/scribe-api/internal/store"
)

type discardEmitter struct{}

func (discardEmitter) Emit(context.Context, *events.TaskEvent) {}

func runningTask(t *testing.T) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("key", "chat.example.com", "https://chat.example.com/c/1",
		"gpt-4o-mini", []domain.Message{{Role: domain.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	require.NoError(t, task.UpdateStatus(domain.TaskStatusRunning))
	return task
}

// A running task still queued for recovery has no in-flight generation,
// so deleting it must not leave an abandoned entry that nothing will
// ever clear.
func TestDeleteQueuedRecoveredTaskLeavesNoAbandonedEntry(t *testing.T) {
	s := New(store.NewMemoryKV(), nil, discardEmitter{}, Config{Model: "gpt-4o-mini"}, slog.Default())
	defer s.Stop()

	task := runningTask(t)
	s.mu.Lock()
	s.buckets.Prepend(task)
	s.workList = []string{task.ID}
	s.hydrated = true
	s.mu.Unlock()

	s.Delete(context.Background(), task.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.abandoned)
	assert.Empty(t, s.workList)
	assert.Nil(t, s.buckets.Find(task.ID))
}

// A running task the drain goroutine already popped does have an
// in-flight generation; its id stays abandoned until finalize discards
// the result and clears the entry.
func TestDeleteInFlightTaskAbandonedEntryClearedByFinalize(t *testing.T) {
	kv := store.NewMemoryKV()
	s := New(kv, nil, discardEmitter{}, Config{Model: "gpt-4o-mini"}, slog.Default())
	defer s.Stop()

	task := runningTask(t)
	s.mu.Lock()
	s.buckets.Prepend(task)
	s.hydrated = true
	s.mu.Unlock()

	s.Delete(context.Background(), task.ID)

	s.mu.Lock()
	_, marked := s.abandoned[task.ID]
	s.mu.Unlock()
	require.True(t, marked)

	s.finalize(task.ID, "late result", nil)

	s.mu.Lock()
	assert.Empty(t, s.abandoned)
	assert.Nil(t, s.buckets.Find(task.ID))
	s.mu.Unlock()

	_, err := kv.GetBlob(context.Background(), store.ResultKey(task.ID))
	assert.True(t, store.IsNotFound(err), "discarded result must not survive")
}
