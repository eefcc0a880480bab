package scheduler_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/events"
	"github.com/scribehq/scribe-api/internal/generation"
	"github.com/scribehq/scribe-api/internal/scheduler"
	"github.com/scribehq/scribe-api/internal/store"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// gateGenerator is a controllable fake provider. Each call records the
// first message content as its tag. When release is set, the call
// blocks until the test releases it or the context is cancelled.
type gateGenerator struct {
	mu      sync.Mutex
	calls   []string
	started chan string
	release chan struct{}
	result  string
	err     error
}

func (g *gateGenerator) GenerateArticle(ctx context.Context, messages []domain.Message, _ string) (string, error) {
	tag := ""
	if len(messages) > 0 {
		tag = messages[0].Content
	}
	g.mu.Lock()
	g.calls = append(g.calls, tag)
	g.mu.Unlock()

	if g.started != nil {
		select {
		case g.started <- tag:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.result, g.err
}

func (g *gateGenerator) callOrder() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskEvent
}

func (r *recordingEmitter) Emit(_ context.Context, event *events.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) countKind(kind events.TaskEventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recordingEmitter) lastCounts() (pending, running int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return 0, 0
	}
	last := r.events[len(r.events)-1]
	return last.Pending, last.Running
}

func newTestScheduler(gen *gateGenerator, cfg scheduler.Config) (*scheduler.Scheduler, store.KV, *recordingEmitter) {
	kv := store.NewMemoryKV()
	emitter := &recordingEmitter{}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	var generator generation.Generator
	if gen != nil {
		generator = gen
	}
	sched := scheduler.New(kv, generator, emitter, cfg, slog.Default())
	return sched, kv, emitter
}

func submitTask(t *testing.T, s *scheduler.Scheduler, key string) string {
	t.Helper()
	id, err := s.Submit(context.Background(), scheduler.SubmitRequest{
		RequestKey: key,
		Domain:     "chat.example.com",
		SourceURL:  "https://chat.example.com/c/" + key,
		Messages:   []domain.Message{{Role: domain.RoleUser, Content: key}},
	})
	require.NoError(t, err)
	return id
}

func findTask(s *scheduler.Scheduler, id string) *domain.Task {
	return s.GetTaskState(context.Background()).Find(id)
}

func waitTerminal(t *testing.T, s *scheduler.Scheduler, id string) *domain.Task {
	t.Helper()
	require.Eventually(t, func() bool {
		task := findTask(s, id)
		return task != nil && task.IsTerminal()
	}, waitFor, tick)
	return findTask(s, id)
}

func TestSubmitSuccessLifecycle(t *testing.T) {
	gen := &gateGenerator{result: "# Title\nBody line one\nBody line two"}
	sched, _, emitter := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	id := submitTask(t, sched, "abc")
	task := waitTerminal(t, sched, id)

	assert.Equal(t, domain.TaskStatusFinished, task.Status)
	assert.Equal(t, "Title", task.Title)
	assert.Equal(t, "Body line one\nBody line two", task.Summary)
	assert.Empty(t, task.Messages, "messages are cleared at finalize time")
	assert.Empty(t, task.Error)

	result, err := sched.GetResult(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "# Title\nBody line one\nBody line two", result)

	assert.Equal(t, 1, emitter.countKind(events.KindFinished), "finished fires exactly once")
	pending, running := emitter.lastCounts()
	assert.Zero(t, pending)
	assert.Zero(t, running)
}

func TestSubmitFailureLifecycle(t *testing.T) {
	gen := &gateGenerator{err: errors.New("llm request failed: auth")}
	sched, _, emitter := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	id := submitTask(t, sched, "abc")
	task := waitTerminal(t, sched, id)

	assert.Equal(t, domain.TaskStatusError, task.Status)
	assert.Equal(t, "llm request failed: auth", task.Error)
	assert.Empty(t, task.Messages)

	_, err := sched.GetResult(context.Background(), id)
	assert.True(t, store.IsNotFound(err), "failed task has no result blob")

	assert.Equal(t, 1, emitter.countKind(events.KindFailed))
	assert.Zero(t, emitter.countKind(events.KindFinished))
}

func TestSubmitDeduplicatesActiveRequestKey(t *testing.T) {
	gen := &gateGenerator{release: make(chan struct{}), result: "# T\nbody"}
	sched, _, _ := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	id := submitTask(t, sched, "dup")

	_, err := sched.Submit(context.Background(), scheduler.SubmitRequest{
		RequestKey: "dup",
		Messages:   []domain.Message{{Role: domain.RoleUser, Content: "dup"}},
	})
	assert.ErrorIs(t, err, scheduler.ErrTaskExists)

	buckets := sched.GetTaskState(context.Background())
	assert.Len(t, buckets.All(), 1, "duplicate submission creates no record")

	gen.release <- struct{}{}
	waitTerminal(t, sched, id)

	// Terminal tasks never block admission.
	id2 := submitTask(t, sched, "dup")
	assert.NotEqual(t, id, id2)
	gen.release <- struct{}{}
	waitTerminal(t, sched, id2)
}

func TestSubmitRejectsWithoutConfiguration(t *testing.T) {
	sched, _, _ := newTestScheduler(nil, scheduler.Config{Model: "gpt-4o-mini"})
	defer sched.Stop()

	_, err := sched.Submit(context.Background(), scheduler.SubmitRequest{
		RequestKey: "k",
		Messages:   []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, scheduler.ErrNoConfiguration)

	assert.Empty(t, sched.GetTaskState(context.Background()).All())
}

func TestSubmitRejectsEmptyMessages(t *testing.T) {
	gen := &gateGenerator{result: "x"}
	sched, _, _ := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	_, err := sched.Submit(context.Background(), scheduler.SubmitRequest{RequestKey: "k"})
	assert.ErrorIs(t, err, domain.ErrNoMessages)

	_, err = sched.Submit(context.Background(), scheduler.SubmitRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyRequestKey)
}

func TestSingleFlightAndFIFOOrder(t *testing.T) {
	gen := &gateGenerator{
		started: make(chan string),
		release: make(chan struct{}),
		result:  "# T\nbody",
	}
	sched, _, _ := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	idA := submitTask(t, sched, "A")

	// First task is already started; queue two more behind it.
	tag := <-gen.started
	assert.Equal(t, "A", tag)
	idB := submitTask(t, sched, "B")
	idC := submitTask(t, sched, "C")

	buckets := sched.GetTaskState(context.Background())
	assert.Len(t, buckets.Running, 1, "at most one task runs at a time")
	assert.Len(t, buckets.Pending, 2)

	// Display order is newest-first while execution is oldest-first.
	assert.Equal(t, idC, buckets.Pending[0].ID)
	assert.Equal(t, idB, buckets.Pending[1].ID)

	gen.release <- struct{}{}
	assert.Equal(t, "B", <-gen.started)
	buckets = sched.GetTaskState(context.Background())
	assert.Len(t, buckets.Running, 1)

	gen.release <- struct{}{}
	assert.Equal(t, "C", <-gen.started)
	gen.release <- struct{}{}

	for _, id := range []string{idA, idB, idC} {
		task := waitTerminal(t, sched, id)
		assert.Equal(t, domain.TaskStatusFinished, task.Status)
	}
	assert.Equal(t, []string{"A", "B", "C"}, gen.callOrder())
}

func TestDeleteIsIdempotent(t *testing.T) {
	gen := &gateGenerator{result: "# T\nbody"}
	sched, _, _ := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	id := submitTask(t, sched, "abc")
	waitTerminal(t, sched, id)

	ctx := context.Background()
	sched.Delete(ctx, id)
	assert.Nil(t, findTask(sched, id))
	_, err := sched.GetResult(ctx, id)
	assert.True(t, store.IsNotFound(err), "result blob removed with the task")

	before := sched.GetTaskState(ctx)
	sched.Delete(ctx, id)
	sched.Delete(ctx, "never-existed")
	after := sched.GetTaskState(ctx)
	assert.Equal(t, before, after, "repeat deletion leaves buckets unchanged")
}

func TestDeletePendingFreesAdmission(t *testing.T) {
	gen := &gateGenerator{
		started: make(chan string),
		release: make(chan struct{}),
		result:  "# T\nbody",
	}
	sched, _, _ := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	idA := submitTask(t, sched, "A")
	<-gen.started
	idB := submitTask(t, sched, "B")

	_, err := sched.Submit(context.Background(), scheduler.SubmitRequest{
		RequestKey: "B",
		Messages:   []domain.Message{{Role: domain.RoleUser, Content: "B"}},
	})
	assert.ErrorIs(t, err, scheduler.ErrTaskExists)

	sched.Delete(context.Background(), idB)
	idB2 := submitTask(t, sched, "B")
	assert.NotEqual(t, idB, idB2)

	gen.release <- struct{}{}
	<-gen.started
	gen.release <- struct{}{}
	waitTerminal(t, sched, idA)
	waitTerminal(t, sched, idB2)
}

func TestDeleteRunningDiscardsResult(t *testing.T) {
	gen := &gateGenerator{
		started: make(chan string),
		release: make(chan struct{}),
		result:  "# T\nbody",
	}
	sched, _, _ := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	id := submitTask(t, sched, "abc")
	<-gen.started

	ctx := context.Background()
	sched.Delete(ctx, id)
	assert.Nil(t, findTask(sched, id))

	// The in-flight call completes after deletion; its result must be
	// discarded rather than written into a bucket the task left.
	gen.release <- struct{}{}

	require.Eventually(t, func() bool {
		_, err := sched.GetResult(ctx, id)
		return store.IsNotFound(err)
	}, waitFor, tick)
	assert.Nil(t, findTask(sched, id))
}

func TestMonotonicStatus(t *testing.T) {
	gen := &gateGenerator{result: "# T\nbody"}
	sched, _, emitter := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	id := submitTask(t, sched, "abc")
	waitTerminal(t, sched, id)

	// Observed transitions follow submitted, started, finished with no
	// movement out of the terminal state.
	emitter.mu.Lock()
	kinds := make([]events.TaskEventKind, 0, len(emitter.events))
	for _, e := range emitter.events {
		kinds = append(kinds, e.Kind)
	}
	emitter.mu.Unlock()
	assert.Equal(t, []events.TaskEventKind{events.KindSubmitted, events.KindStarted, events.KindFinished}, kinds)

	task := findTask(sched, id)
	assert.ErrorIs(t, task.UpdateStatus(domain.TaskStatusPending), domain.ErrTerminalTask)
}

func TestGenerationTimeout(t *testing.T) {
	gen := &gateGenerator{release: make(chan struct{})}
	sched, _, _ := newTestScheduler(gen, scheduler.Config{GenerationTimeout: 20 * time.Millisecond})
	defer sched.Stop()

	id := submitTask(t, sched, "slow")
	task := waitTerminal(t, sched, id)
	assert.Equal(t, domain.TaskStatusError, task.Status)
	assert.Contains(t, task.Error, "context deadline exceeded")
}

func TestMarkSynced(t *testing.T) {
	gen := &gateGenerator{
		started: make(chan string),
		release: make(chan struct{}),
		result:  "# T\nbody",
	}
	sched, _, emitter := newTestScheduler(gen, scheduler.Config{})
	defer sched.Stop()

	ctx := context.Background()
	id := submitTask(t, sched, "abc")
	<-gen.started

	// Still running: not publishable yet.
	assert.ErrorIs(t, sched.MarkSynced(ctx, id), scheduler.ErrTaskNotFinished)
	assert.ErrorIs(t, sched.MarkSynced(ctx, "unknown"), scheduler.ErrTaskNotFound)

	gen.release <- struct{}{}
	waitTerminal(t, sched, id)

	require.NoError(t, sched.MarkSynced(ctx, id))
	assert.True(t, findTask(sched, id).Synced)
	assert.Equal(t, 1, emitter.countKind(events.KindSynced))
}

func TestGeneratorPanicReachesTerminalState(t *testing.T) {
	sched := scheduler.New(store.NewMemoryKV(), panicGenerator{}, &recordingEmitter{},
		scheduler.Config{Model: "gpt-4o-mini"}, slog.Default())
	defer sched.Stop()

	id := submitTask(t, sched, "boom")
	task := waitTerminal(t, sched, id)
	assert.Equal(t, domain.TaskStatusError, task.Status)
	assert.Contains(t, task.Error, "panicked")
}

type panicGenerator struct{}

func (panicGenerator) GenerateArticle(context.Context, []domain.Message, string) (string, error) {
	panic("provider blew up")
}

// gatedStateKV delays one write of the task-state record so a test can
// force two mutations to race for the durable store.
type gatedStateKV struct {
	store.KV
	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStateKV) Put(ctx context.Context, key string, v any) error {
	g.mu.Lock()
	trip := g.armed && key == store.TasksStateKey
	if trip {
		g.armed = false
	}
	g.mu.Unlock()

	if trip {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.KV.Put(ctx, key, v)
}

func (g *gatedStateKV) arm() {
	g.mu.Lock()
	g.armed = true
	g.mu.Unlock()
}

func TestConcurrentSubmitsNeverPersistStaleState(t *testing.T) {
	gen := &gateGenerator{started: make(chan string), release: make(chan struct{}), result: "# T\nbody"}
	kv := &gatedStateKV{
		KV:      store.NewMemoryKV(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	emitter := &recordingEmitter{}
	sched := scheduler.New(kv, gen, emitter, scheduler.Config{Model: "gpt-4o-mini"}, slog.Default())
	defer sched.Stop()

	submitTask(t, sched, "first")
	<-gen.started // first is in flight, so no later transition re-persists for it

	// Second's durable write stalls inside the store while third's
	// submission completes. Whatever order the writes land in, the
	// record must end up containing both.
	kv.arm()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		submitTask(t, sched, "second")
	}()
	<-kv.entered
	go func() {
		defer wg.Done()
		submitTask(t, sched, "third")
	}()

	require.Eventually(t, func() bool {
		return len(sched.GetTaskState(context.Background()).All()) == 3
	}, waitFor, tick)

	close(kv.release)
	wg.Wait()

	persisted := domain.NewTaskBuckets()
	require.NoError(t, kv.Get(context.Background(), store.TasksStateKey, persisted))
	keys := map[string]bool{}
	for _, task := range persisted.All() {
		keys[task.RequestKey] = true
	}
	assert.True(t, keys["second"], "stalled write must not be lost")
	assert.True(t, keys["third"], "later write must not be overwritten by the stalled one")

	gen.release <- struct{}{}
}

// unavailableKV rejects every state write, simulating a durable store
// outage.
type unavailableKV struct {
	store.KV
}

func (u unavailableKV) Put(context.Context, string, any) error {
	return store.ErrUnavailable
}

func TestStoreOutageDoesNotBlockExecution(t *testing.T) {
	gen := &gateGenerator{result: "# T\nbody"}
	kv := unavailableKV{KV: store.NewMemoryKV()}
	sched := scheduler.New(kv, gen, &recordingEmitter{}, scheduler.Config{Model: "gpt-4o-mini"}, slog.Default())
	defer sched.Stop()

	// Submission succeeds and the task runs to a terminal state on
	// in-memory buckets alone.
	id := submitTask(t, sched, "outage")
	task := waitTerminal(t, sched, id)
	assert.Equal(t, domain.TaskStatusFinished, task.Status)

	sched.Delete(context.Background(), id)
	assert.Nil(t, findTask(sched, id))
}
