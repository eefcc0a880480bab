package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/events"
	"github.com/scribehq/scribe-api/internal/generation"
	"github.com/scribehq/scribe-api/internal/redact"
	"github.com/scribehq/scribe-api/internal/store"
)

// Config holds the scheduler's policy knobs.
type Config struct {
	// Model is the provider model name snapshotted into each task at
	// submission time.
	Model string

	// DefaultLanguageHint is the BCP 47 tag used when a submission
	// carries none.
	DefaultLanguageHint string

	// GenerationTimeout bounds a single generation call. Zero means no
	// timeout beyond what the provider itself enforces.
	GenerationTimeout time.Duration
}

// SubmitRequest carries one article-generation submission.
type SubmitRequest struct {
	RequestKey   string
	Domain       string
	SourceURL    string
	LanguageHint string
	Messages     []domain.Message
}

// Scheduler is the task queue and state machine. It owns the buckets,
// the FIFO work list, and the single-flight flag; all mutation goes
// through its methods under one mutex. Execution happens on a single
// drain goroutine, so at most one task is running at any time.
type Scheduler struct {
	mu        sync.Mutex
	buckets   *domain.TaskBuckets
	workList  []string
	running   bool
	hydrated  bool
	abandoned map[string]struct{}
	stateSeq  uint64

	// persistMu serializes durable writes of the bucket snapshot, which
	// happen outside s.mu. persistedSeq tracks the newest snapshot that
	// reached the store so a stale snapshot never overwrites a newer one.
	persistMu    sync.Mutex
	persistedSeq uint64

	kv        store.KV
	generator generation.Generator
	emitter   events.Emitter
	cfg       Config
	logger    *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Scheduler. The generator may be nil when no provider
// is configured; submissions are then rejected with ErrNoConfiguration.
func New(kv store.KV, generator generation.Generator, emitter events.Emitter, cfg Config, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		buckets:    domain.NewTaskBuckets(),
		workList:   []string{},
		abandoned:  make(map[string]struct{}),
		kv:         kv,
		generator:  generator,
		emitter:    emitter,
		cfg:        cfg,
		logger:     logger.With("component", "scheduler"),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start hydrates state from the durable store and re-drains any tasks
// interrupted by a previous shutdown. It must run before the first
// request is served.
func (s *Scheduler) Start(ctx context.Context) {
	s.Hydrate(ctx)
	s.Recover(ctx)
}

// Stop cancels any in-flight generation and waits for the drain
// goroutine to exit. Interrupted tasks remain persisted as running and
// are re-drained on the next Start.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}

// Submit admits a new task. It rejects duplicates of an active request
// key and submissions without provider configuration, persists the new
// pending task, and kicks the drain loop. The returned id identifies
// the task in later queries.
func (s *Scheduler) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	s.ensureHydrated(ctx)

	s.mu.Lock()
	if existing := s.buckets.ActiveByRequestKey(req.RequestKey); existing != nil {
		s.mu.Unlock()
		return "", ErrTaskExists
	}
	if s.generator == nil || s.cfg.Model == "" {
		s.mu.Unlock()
		return "", ErrNoConfiguration
	}

	task, err := domain.NewTask(req.RequestKey, req.Domain, req.SourceURL, s.cfg.Model, req.Messages)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	task.LanguageHint = req.LanguageHint
	if task.LanguageHint == "" {
		task.LanguageHint = s.cfg.DefaultLanguageHint
	}

	s.buckets.Prepend(task)
	s.workList = append(s.workList, task.ID)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("task submitted",
		"task_id", task.ID,
		"request_key", req.RequestKey,
		"domain", req.Domain)

	s.persist(ctx, snap)
	s.emit(ctx, events.KindSubmitted, task.ID, "", snap.pending, snap.running)
	s.kick()

	return task.ID, nil
}

// GetTaskState returns a deep copy of the current buckets, hydrating
// first if needed. Read-only; no side effects beyond hydration.
func (s *Scheduler) GetTaskState(ctx context.Context) *domain.TaskBuckets {
	s.ensureHydrated(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buckets.Clone()
}

// GetResult returns the generated article text for the given task id.
// Returns store.ErrNotFound when no result exists.
func (s *Scheduler) GetResult(ctx context.Context, id string) (string, error) {
	return s.kv.GetBlob(ctx, store.ResultKey(id))
}

// Delete removes the task and its result blob. Deleting an unknown id
// is a no-op. A running task cannot be cancelled mid-flight; it is
// marked abandoned and its eventual result is discarded at finalize
// time. Deletion re-kicks the drain loop because it can free admission
// for a previously blocked request key.
func (s *Scheduler) Delete(ctx context.Context, id string) {
	s.ensureHydrated(ctx)

	s.mu.Lock()
	task := s.buckets.Remove(id)
	if task == nil {
		s.mu.Unlock()
		return
	}
	inWorkList := false
	for i, queued := range s.workList {
		if queued == id {
			s.workList = append(s.workList[:i], s.workList[i+1:]...)
			inWorkList = true
			break
		}
	}
	// A running task still in the work list was recovered but never
	// re-executed; removing it here means no finalize will follow, so
	// there is nothing to abandon. Only a task the drain goroutine
	// already popped has an in-flight generation to discard.
	if task.Status == domain.TaskStatusRunning && !inWorkList {
		s.abandoned[id] = struct{}{}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("task deleted", "task_id", id, "status", task.Status)

	if err := s.kv.Delete(ctx, store.ResultKey(id)); err != nil && !store.IsNotFound(err) {
		s.logger.Error("failed to delete result blob", "task_id", id, "error", err)
	}
	s.persist(ctx, snap)
	s.emit(ctx, events.KindDeleted, id, "", snap.pending, snap.running)
	s.kick()
}

// MarkSynced records that the task's result was published to the
// external workspace. Only a successfully finished task can be synced.
func (s *Scheduler) MarkSynced(ctx context.Context, id string) error {
	s.ensureHydrated(ctx)

	s.mu.Lock()
	task := s.buckets.Find(id)
	if task == nil {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusFinished {
		s.mu.Unlock()
		return ErrTaskNotFinished
	}
	task.Synced = true
	task.UpdatedAt = time.Now().UTC()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snap)
	s.emit(ctx, events.KindSynced, id, "", snap.pending, snap.running)
	return nil
}

// kick starts the drain goroutine unless one is already running or
// there is nothing to do. The running flag is the single-flight guard.
func (s *Scheduler) kick() {
	s.mu.Lock()
	if s.running || len(s.workList) == 0 {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drain()
	}()
}

// drain processes work-list entries oldest-first until the list is
// empty, then clears the single-flight flag. An explicit loop, so a
// long-running process never grows the call stack.
func (s *Scheduler) drain() {
	for {
		if s.ctx.Err() != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		if len(s.workList) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		id := s.workList[0]
		s.workList = s.workList[1:]
		s.mu.Unlock()

		s.processOne(id)
	}
}

// processOne executes a single task end to end: pending to running,
// generation, finalize. A task recovered as running skips the pending
// transition; its status never moves backward.
func (s *Scheduler) processOne(id string) {
	logger := s.logger.With("task_id", id)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("task processing panicked", "panic", rec)
			s.forceFinish(id, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	s.mu.Lock()
	task := s.buckets.Find(id)
	if task == nil || task.IsTerminal() {
		s.mu.Unlock()
		return
	}

	started := false
	if task.Status == domain.TaskStatusPending {
		s.buckets.Remove(id)
		if err := task.UpdateStatus(domain.TaskStatusRunning); err != nil {
			s.buckets.Prepend(task)
			s.mu.Unlock()
			logger.Error("failed to start task", "error", err)
			return
		}
		s.buckets.Prepend(task)
		started = true
	}
	messages := append([]domain.Message(nil), task.Messages...)
	hint := task.LanguageHint
	snap := s.snapshotLocked()
	s.mu.Unlock()

	ctx := context.Background()
	if started {
		logger.Info("task started")
		s.persist(ctx, snap)
		s.emit(ctx, events.KindStarted, id, "", snap.pending, snap.running)
	}

	result, err := s.generate(messages, hint)
	s.finalize(id, result, err)
}

// generate runs the provider call under the configured timeout and
// converts panics into errors so the task still reaches a terminal
// state.
func (s *Scheduler) generate(messages []domain.Message, hint string) (result string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generation panicked: %v", rec)
		}
	}()

	if s.generator == nil {
		return "", ErrNoConfiguration
	}

	ctx := s.ctx
	if s.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		defer cancel()
	}

	return s.generator.GenerateArticle(ctx, messages, hint)
}

// finalize moves the task to its terminal state, stores the result
// blob, clears the messages, persists, and fires the terminal event.
// If finalization itself panics, forceFinish guarantees the task still
// leaves the running bucket.
func (s *Scheduler) finalize(id string, result string, genErr error) {
	logger := s.logger.With("task_id", id)
	ctx := context.Background()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("finalize panicked", "panic", rec)
			s.forceFinish(id, fmt.Sprintf("finalize failed: %v", rec))
		}
	}()

	// A shutdown cancels the in-flight call. The task stays persisted
	// as running and is re-drained on the next Start instead of being
	// marked failed.
	if genErr != nil && s.ctx.Err() != nil && errors.Is(genErr, context.Canceled) {
		logger.Info("task interrupted by shutdown, leaving for recovery")
		return
	}

	if genErr == nil {
		if err := s.kv.PutBlob(ctx, store.ResultKey(id), result); err != nil {
			logger.Error("failed to store result blob", "error", err)
		}
	}

	s.mu.Lock()
	task := s.buckets.Find(id)
	if task == nil {
		_, wasAbandoned := s.abandoned[id]
		delete(s.abandoned, id)
		s.mu.Unlock()

		// Deleted while running. Discard whatever the in-flight call
		// produced.
		if wasAbandoned {
			logger.Info("discarding result of abandoned task")
		}
		if err := s.kv.Delete(ctx, store.ResultKey(id)); err != nil && !store.IsNotFound(err) {
			logger.Error("failed to discard abandoned result", "error", err)
		}
		return
	}

	s.buckets.Remove(id)
	kind := events.KindFinished
	errMsg := ""
	if genErr != nil {
		errMsg = redact.Error(genErr)
		task.Error = errMsg
		if err := task.UpdateStatus(domain.TaskStatusError); err != nil {
			logger.Error("failed to mark task as error", "error", err)
		}
		kind = events.KindFailed
	} else {
		task.ApplySummary(result)
		if err := task.UpdateStatus(domain.TaskStatusFinished); err != nil {
			logger.Error("failed to mark task as finished", "error", err)
		}
	}
	task.Messages = nil
	s.buckets.Prepend(task)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if genErr != nil {
		logger.Error("task failed", "error", genErr)
	} else {
		logger.Info("task finished", "title", task.Title)
	}

	s.persist(ctx, snap)
	s.emit(ctx, kind, id, errMsg, snap.pending, snap.running)
}

// forceFinish is the double-fault fallback: a direct state mutation
// that bypasses the normal finalize path so a task is never left stuck
// in running.
func (s *Scheduler) forceFinish(id, errMsg string) {
	s.mu.Lock()
	task := s.buckets.Remove(id)
	if task == nil {
		s.mu.Unlock()
		return
	}
	task.Status = domain.TaskStatusError
	task.Error = redact.String(errMsg)
	task.Messages = nil
	task.UpdatedAt = time.Now().UTC()
	s.buckets.Prepend(task)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	ctx := context.Background()
	s.persist(ctx, snap)
	s.emit(ctx, events.KindFailed, id, errMsg, snap.pending, snap.running)
}

// snapshot is one versioned deep copy of the buckets, taken under s.mu
// and written to the store after the lock is released. The sequence
// number orders concurrent snapshots so persist can reject stale ones.
type snapshot struct {
	state   *domain.TaskBuckets
	seq     uint64
	pending int
	running int
}

// snapshotLocked returns a versioned deep copy of the buckets plus the
// bucket counts. Caller must hold s.mu.
func (s *Scheduler) snapshotLocked() snapshot {
	s.stateSeq++
	return snapshot{
		state:   s.buckets.Clone(),
		seq:     s.stateSeq,
		pending: len(s.buckets.Pending),
		running: len(s.buckets.Running),
	}
}

// persist writes the bucket snapshot to the durable store. Writes are
// serialized and version-checked: a snapshot older than one already
// persisted is dropped, so concurrent mutations can never leave the
// store holding anything staler than the last completed mutation.
// Store failures are logged and tolerated; execution proceeds on
// in-memory state at the cost of weaker crash recovery for that one
// write.
func (s *Scheduler) persist(ctx context.Context, snap snapshot) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if snap.seq <= s.persistedSeq {
		return
	}
	if err := s.kv.Put(ctx, store.TasksStateKey, snap.state); err != nil {
		s.logger.Error("failed to persist task state", "error", err)
		return
	}
	s.persistedSeq = snap.seq
}

func (s *Scheduler) emit(ctx context.Context, kind events.TaskEventKind, taskID, errMsg string, pending, running int) {
	event := events.NewTaskEvent(kind, taskID, pending, running)
	event.Error = errMsg
	s.emitter.Emit(ctx, event)
}
