package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessages() []Message {
	return []Message{{Role: RoleUser, Content: "hi"}}
}

func TestNewTask(t *testing.T) {
	task, err := NewTask("key-1", "chat.openai.com", "https://chat.openai.com/c/1", "gpt-4o-mini", testMessages())
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "key-1", task.RequestKey)
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.False(t, task.Synced)
	assert.False(t, task.CreatedAt.IsZero())

	// Two tasks never share a generated id.
	other, err := NewTask("key-2", "d", "u", "m", testMessages())
	require.NoError(t, err)
	assert.NotEqual(t, task.ID, other.ID)
}

func TestNewTaskValidation(t *testing.T) {
	_, err := NewTask("", "d", "u", "m", testMessages())
	assert.ErrorIs(t, err, ErrEmptyRequestKey)

	_, err = NewTask("key", "d", "u", "m", nil)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestUpdateStatus(t *testing.T) {
	task, err := NewTask("key", "d", "u", "m", testMessages())
	require.NoError(t, err)

	require.NoError(t, task.UpdateStatus(TaskStatusRunning))
	assert.Equal(t, TaskStatusRunning, task.Status)

	require.NoError(t, task.UpdateStatus(TaskStatusFinished))
	assert.True(t, task.IsTerminal())

	// Terminal states are immutable.
	err = task.UpdateStatus(TaskStatusPending)
	assert.ErrorIs(t, err, ErrTerminalTask)
	assert.Equal(t, TaskStatusFinished, task.Status)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	task, err := NewTask("key", "d", "u", "m", testMessages())
	require.NoError(t, err)

	assert.ErrorIs(t, task.UpdateStatus("paused"), ErrInvalidTaskStatus)
}

func TestSameRequest(t *testing.T) {
	a, _ := NewTask("shared", "d", "u", "m", testMessages())
	b, _ := NewTask("shared", "d", "u", "m", testMessages())
	c, _ := NewTask("other", "d", "u", "m", testMessages())

	assert.True(t, a.SameRequest(b))
	assert.False(t, a.SameRequest(c))
	assert.False(t, a.SameRequest(nil))
}

func TestApplySummaryWithHeading(t *testing.T) {
	task, _ := NewTask("key", "d", "u", "m", testMessages())
	task.ApplySummary("# Title\nBody line one\nBody line two")

	assert.Equal(t, "Title", task.Title)
	assert.Equal(t, "Body line one\nBody line two", task.Summary)
}

func TestApplySummaryWithoutHeading(t *testing.T) {
	task, _ := NewTask("key", "d", "u", "m", testMessages())
	task.ApplySummary("Just prose.\nSecond line.")

	assert.Empty(t, task.Title)
	assert.Equal(t, "Just prose.\nSecond line.", task.Summary)
}

func TestApplySummarySkipsBlankAndExtraHeadings(t *testing.T) {
	task, _ := NewTask("key", "d", "u", "m", testMessages())
	task.ApplySummary("\n\n## First\n\nline one\n### Second\nline two\n")

	assert.Equal(t, "First", task.Title)
	assert.Equal(t, "line one\nline two", task.Summary)
}

func TestApplySummaryBoundsWindow(t *testing.T) {
	long := "# Heading\n" + strings.Repeat("a", 500)
	task, _ := NewTask("key", "d", "u", "m", testMessages())
	task.ApplySummary(long)

	assert.Equal(t, "Heading", task.Title)
	// Only the first 200 characters are inspected.
	assert.LessOrEqual(t, len(task.Summary), 200)
}

func TestApplySummaryMalformedInputNeverFails(t *testing.T) {
	task, _ := NewTask("key", "d", "u", "m", testMessages())

	assert.NotPanics(t, func() {
		task.ApplySummary("")
		task.ApplySummary("####")
		task.ApplySummary("\n\n\n")
		task.ApplySummary(strings.Repeat("#", 300))
	})
}

func TestApplySummaryKeepsExistingTitle(t *testing.T) {
	task, _ := NewTask("key", "d", "u", "m", testMessages())
	task.Title = "Existing"
	task.ApplySummary("# New Title\nbody")

	assert.Equal(t, "Existing", task.Title)
}
