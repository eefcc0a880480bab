package api

import (
	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/publish"
)

// SubmitTaskRequest is the request body for task submission.
type SubmitTaskRequest struct {
	RequestKey string           `json:"request_key" validate:"required"`
	Domain     string           `json:"domain"`
	SourceURL  string           `json:"source_url"  validate:"omitempty,url"`
	Messages   []domain.Message `json:"messages"    validate:"required,min=1"`
}

// SubmitTaskResponse acknowledges an admitted task.
type SubmitTaskResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// TaskStateResponse carries the status-partitioned task snapshot.
type TaskStateResponse struct {
	OK    bool                `json:"ok"`
	Tasks *domain.TaskBuckets `json:"tasks"`
}

// TaskResultResponse carries a finished task's article text.
type TaskResultResponse struct {
	OK     bool   `json:"ok"`
	Result string `json:"result"`
}

// DeleteTaskResponse acknowledges a deletion.
type DeleteTaskResponse struct {
	OK bool `json:"ok"`
}

// PublishRequest is the request body for publishing a result.
type PublishRequest struct {
	Target string `json:"target" validate:"required"`
	Title  string `json:"title"`
	Blocks string `json:"blocks"`
}

// PublishResponse carries the receipt of a successful publish.
type PublishResponse struct {
	OK      bool             `json:"ok"`
	Receipt *publish.Receipt `json:"receipt"`
}

// SearchTargetsResponse lists candidate publish destinations.
type SearchTargetsResponse struct {
	OK      bool             `json:"ok"`
	Targets []publish.Target `json:"targets"`
}
