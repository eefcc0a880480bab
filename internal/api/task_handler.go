package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribehq/scribe-api/internal/api/shared"
	"github.com/scribehq/scribe-api/internal/scheduler"
)

// TaskHandler exposes the task queue operations over HTTP.
type TaskHandler struct {
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(sched *scheduler.Scheduler, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		scheduler: sched,
		logger:    logger.With("component", "task_handler"),
	}
}

// Submit handles POST /api/tasks. Admission errors (duplicate request
// key, missing configuration, empty messages) surface synchronously;
// an accepted task is acknowledged with 202 before it executes.
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+validationSummary(err))
		return
	}

	id, err := h.scheduler.Submit(r.Context(), scheduler.SubmitRequest{
		RequestKey:   req.RequestKey,
		Domain:       req.Domain,
		SourceURL:    req.SourceURL,
		LanguageHint: languageHint(r),
		Messages:     req.Messages,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitTaskResponse{OK: true, ID: id})
}

// State handles GET /api/tasks, returning the hydrated bucket snapshot.
func (h *TaskHandler) State(w http.ResponseWriter, r *http.Request) {
	buckets := h.scheduler.GetTaskState(r.Context())
	shared.RespondWithJSON(w, r, http.StatusOK, TaskStateResponse{OK: true, Tasks: buckets})
}

// Result handles GET /api/tasks/{id}/result.
func (h *TaskHandler) Result(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.scheduler.GetResult(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskResultResponse{OK: true, Result: result})
}

// Delete handles DELETE /api/tasks/{id}. Idempotent: deleting an
// unknown id still answers ok.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.scheduler.Delete(r.Context(), id)
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteTaskResponse{OK: true})
}

// languageHint derives the article language from the caller's
// Accept-Language header. The scheduler falls back to the configured
// default when it is empty.
func languageHint(r *http.Request) string {
	raw := r.Header.Get("Accept-Language")
	if raw == "" {
		return ""
	}
	// First tag only; quality weights do not matter here.
	for i := 0; i < len(raw); i++ {
		if raw[i] == ',' || raw[i] == ';' {
			return raw[:i]
		}
	}
	return raw
}

// validationSummary reduces a validator error to a short safe string.
func validationSummary(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
