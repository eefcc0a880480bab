package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the processing state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusFinished TaskStatus = "finished"
	TaskStatusError    TaskStatus = "error"
)

// Role identifies the author of a conversation message.
type Role string

// Possible message roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// summaryWindow is how many leading characters of a generated article
// the summary heuristic inspects.
const summaryWindow = 200

// Message is one scraped conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Task represents one article-generation request end to end.
//
// Lifecycle: pending -> running -> finished | error. The finished and
// error states are terminal; a task never transitions out of them.
type Task struct {
	ID         string     `json:"id"`
	RequestKey string     `json:"request_key"`
	Domain     string     `json:"domain"`
	SourceURL  string     `json:"source_url"`
	Model      string     `json:"model"`
	// LanguageHint is the BCP 47 tag snapshotted at submission, so a
	// later settings change never alters an in-flight task.
	LanguageHint string `json:"language_hint,omitempty"`
	Messages   []Message  `json:"messages"`
	Status     TaskStatus `json:"status"`
	Title      string     `json:"title,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Error      string     `json:"error,omitempty"`
	Synced     bool       `json:"synced"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewTask creates a new pending Task with a fresh id, the given
// caller-supplied idempotency key, and the provider model snapshotted
// at submission time. Returns an error if validation fails.
func NewTask(requestKey, domain, sourceURL, model string, messages []Message) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:         uuid.NewString(),
		RequestKey: requestKey,
		Domain:     domain,
		SourceURL:  sourceURL,
		Model:      model,
		Messages:   messages,
		Status:     TaskStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskID
	}

	if t.RequestKey == "" {
		return ErrEmptyRequestKey
	}

	if len(t.Messages) == 0 && t.Status == TaskStatusPending {
		return ErrNoMessages
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	return nil
}

// UpdateStatus advances the task's status and refreshes UpdatedAt.
// Terminal tasks are immutable: advancing a finished or error task
// returns ErrTerminalTask.
func (t *Task) UpdateStatus(status TaskStatus) error {
	if !isValidTaskStatus(status) {
		return ErrInvalidTaskStatus
	}

	if t.IsTerminal() {
		return ErrTerminalTask
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// IsTerminal reports whether the task has reached a terminal state.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusFinished || t.Status == TaskStatusError
}

// SameRequest reports whether two tasks represent the same caller
// request. Deduplication keys on the caller-supplied request key, not
// on the generated id.
func (t *Task) SameRequest(other *Task) bool {
	return other != nil && t.RequestKey == other.RequestKey
}

// ApplySummary fills Title and Summary from the generated article text
// using a best-effort heuristic: within the first 200 characters, the
// first heading line becomes the title (marker characters stripped) and
// the remaining non-blank lines, trimmed, become the summary. Malformed
// input never fails; absence of a heading simply leaves Title unset.
func (t *Task) ApplySummary(result string) {
	title, summary := extractSummary(result)
	if t.Title == "" {
		t.Title = title
	}
	t.Summary = summary
}

func extractSummary(text string) (title, summary string) {
	snippet := text
	if runes := []rune(text); len(runes) > summaryWindow {
		snippet = string(runes[:summaryWindow])
	}
	snippet = strings.TrimSpace(snippet)

	var lines []string
	for _, line := range strings.Split(snippet, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if title == "" {
				title = strings.TrimSpace(strings.ReplaceAll(line, "#", " "))
			}
			continue
		}
		lines = append(lines, line)
	}

	return title, strings.Join(lines, "\n")
}

func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusRunning, TaskStatusFinished, TaskStatusError:
		return true
	}
	return false
}
