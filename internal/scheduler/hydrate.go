package scheduler

import (
	"context"

	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/store"
)

// Hydrate reconciles the in-memory buckets with the durable store.
// The union of persisted and in-memory tasks is keyed by id with the
// in-memory copy winning on collision, since memory reflects the most
// recent execution-in-progress truth and the durable copy may be stale
// if a write raced a crash. The union is then re-partitioned by each
// task's own status field, which is the authoritative correction step.
//
// Hydrate never fails: on a store error it logs and leaves the buckets
// as they were. Repeat calls are safe.
func (s *Scheduler) Hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrateLocked(ctx)
}

func (s *Scheduler) hydrateLocked(ctx context.Context) {
	persisted := domain.NewTaskBuckets()
	if err := s.kv.Get(ctx, store.TasksStateKey, persisted); err != nil {
		if !store.IsNotFound(err) {
			s.logger.Error("failed to read persisted task state", "error", err)
			return
		}
		// Nothing persisted yet; hydrating from empty buckets.
	}

	// Ordered union: persisted tasks first, then in-memory tasks not
	// already present. In-memory replaces persisted in place, keeping
	// each bucket's newest-first display order stable.
	byID := make(map[string]*domain.Task)
	order := []string{}
	for _, t := range persisted.All() {
		if _, seen := byID[t.ID]; seen {
			continue
		}
		byID[t.ID] = t
		order = append(order, t.ID)
	}
	for _, t := range s.buckets.All() {
		if _, seen := byID[t.ID]; seen {
			byID[t.ID] = t
			continue
		}
		byID[t.ID] = t
		order = append(order, t.ID)
	}

	fresh := domain.NewTaskBuckets()
	for i := len(order) - 1; i >= 0; i-- {
		fresh.Prepend(byID[order[i]])
	}

	s.buckets = fresh
	s.hydrated = true

	s.logger.Info("hydrated task state",
		"pending", len(fresh.Pending),
		"running", len(fresh.Running),
		"finished", len(fresh.Finished))
}

// IsHydrated reports whether Hydrate has completed at least once in
// this process lifetime.
func (s *Scheduler) IsHydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// ensureHydrated hydrates on first use so a freshly restarted process
// never answers from empty buckets.
func (s *Scheduler) ensureHydrated(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		s.hydrateLocked(ctx)
	}
}

// Recover re-submits hydrated running and pending tasks into the work
// list and kicks the drain loop. A task persisted as running lost its
// original execution to a restart; without this re-drain it would stay
// stuck forever. Running tasks are requeued ahead of pending ones,
// oldest first, and keep their running status so no task moves
// backward.
func (s *Scheduler) Recover(ctx context.Context) {
	s.ensureHydrated(ctx)

	s.mu.Lock()
	queued := make(map[string]struct{}, len(s.workList))
	for _, id := range s.workList {
		queued[id] = struct{}{}
	}

	requeued := 0
	for _, bucket := range [][]*domain.Task{s.buckets.Running, s.buckets.Pending} {
		// Buckets are newest-first; walk backward for FIFO order.
		for i := len(bucket) - 1; i >= 0; i-- {
			id := bucket[i].ID
			if _, ok := queued[id]; ok {
				continue
			}
			s.workList = append(s.workList, id)
			queued[id] = struct{}{}
			requeued++
		}
	}
	s.mu.Unlock()

	if requeued > 0 {
		s.logger.Info("recovered interrupted tasks", "count", requeued)
	}
	s.kick()
}
