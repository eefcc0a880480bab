package domain

// TaskBuckets is the status-partitioned projection of all tasks, used
// both for display and as the persisted queue index. Each bucket is
// ordered newest-first (tasks are prepended). The Finished bucket holds
// both finished and error terminal tasks; the display layer
// distinguishes them by the task's own status and error fields.
type TaskBuckets struct {
	Pending  []*Task `json:"pending"`
	Running  []*Task `json:"running"`
	Finished []*Task `json:"finished"`
}

// NewTaskBuckets creates empty buckets.
func NewTaskBuckets() *TaskBuckets {
	return &TaskBuckets{
		Pending:  []*Task{},
		Running:  []*Task{},
		Finished: []*Task{},
	}
}

// bucketFor returns a pointer to the bucket a task with the given
// status belongs in. Both terminal states share the Finished bucket.
func (b *TaskBuckets) bucketFor(status TaskStatus) *[]*Task {
	switch status {
	case TaskStatusPending:
		return &b.Pending
	case TaskStatusRunning:
		return &b.Running
	default:
		return &b.Finished
	}
}

// Prepend inserts the task at the head of the bucket matching its
// current status.
func (b *TaskBuckets) Prepend(t *Task) {
	bucket := b.bucketFor(t.Status)
	*bucket = append([]*Task{t}, *bucket...)
}

// Remove deletes the task with the given id from whichever bucket
// holds it and returns it, or nil when the id is unknown.
func (b *TaskBuckets) Remove(id string) *Task {
	for _, bucket := range []*[]*Task{&b.Pending, &b.Running, &b.Finished} {
		for i, t := range *bucket {
			if t.ID == id {
				*bucket = append((*bucket)[:i], (*bucket)[i+1:]...)
				return t
			}
		}
	}
	return nil
}

// Find returns the task with the given id from any bucket, or nil.
func (b *TaskBuckets) Find(id string) *Task {
	for _, t := range b.All() {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// ActiveByRequestKey returns the pending or running task carrying the
// given request key, or nil. Terminal tasks never block admission.
func (b *TaskBuckets) ActiveByRequestKey(key string) *Task {
	for _, bucket := range [][]*Task{b.Pending, b.Running} {
		for _, t := range bucket {
			if t.RequestKey == key {
				return t
			}
		}
	}
	return nil
}

// ActiveCount returns the number of pending plus running tasks, the
// figure shown on the badge counter.
func (b *TaskBuckets) ActiveCount() int {
	return len(b.Pending) + len(b.Running)
}

// All returns every task in bucket order: pending, running, finished.
func (b *TaskBuckets) All() []*Task {
	all := make([]*Task, 0, len(b.Pending)+len(b.Running)+len(b.Finished))
	all = append(all, b.Pending...)
	all = append(all, b.Running...)
	all = append(all, b.Finished...)
	return all
}

// Clone returns a deep copy of the buckets, safe to hand to callers
// while the scheduler keeps mutating the originals.
func (b *TaskBuckets) Clone() *TaskBuckets {
	clone := NewTaskBuckets()
	clone.Pending = cloneTasks(b.Pending)
	clone.Running = cloneTasks(b.Running)
	clone.Finished = cloneTasks(b.Finished)
	return clone
}

func cloneTasks(tasks []*Task) []*Task {
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		copied := *t
		if t.Messages != nil {
			copied.Messages = append([]Message(nil), t.Messages...)
		}
		out[i] = &copied
	}
	return out
}
