package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribehq/scribe-api/internal/api/shared"
	"github.com/scribehq/scribe-api/internal/publish"
	"github.com/scribehq/scribe-api/internal/scheduler"
)

// PublishHandler exposes the workspace publishing operations.
type PublishHandler struct {
	scheduler *scheduler.Scheduler
	publisher publish.Publisher
	logger    *slog.Logger
}

// NewPublishHandler creates a new PublishHandler.
func NewPublishHandler(sched *scheduler.Scheduler, publisher publish.Publisher, logger *slog.Logger) *PublishHandler {
	return &PublishHandler{
		scheduler: sched,
		publisher: publisher,
		logger:    logger.With("component", "publish_handler"),
	}
}

// Publish handles POST /api/tasks/{id}/publish. The article body
// defaults to the stored result when the request carries no blocks,
// and the title to the task's extracted title. On success the task is
// marked synced.
func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req PublishRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+validationSummary(err))
		return
	}

	task := h.scheduler.GetTaskState(r.Context()).Find(id)
	if task == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	blocks := req.Blocks
	if blocks == "" {
		result, err := h.scheduler.GetResult(r.Context(), id)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
			return
		}
		blocks = result
	}
	title := req.Title
	if title == "" {
		title = task.Title
	}

	if _, err := h.publisher.EnsureAuth(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	receipt, err := h.publisher.Publish(r.Context(), publish.Request{
		Target: req.Target,
		Title:  title,
		Blocks: blocks,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.scheduler.MarkSynced(r.Context(), id); err != nil {
		// The page exists in the workspace; failing to flip the flag
		// must not fail the request.
		h.logger.Error("failed to mark task synced", "task_id", id, "error", err)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PublishResponse{OK: true, Receipt: receipt})
}

// SearchTargets handles GET /api/publish/targets.
func (h *PublishHandler) SearchTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.publisher.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SearchTargetsResponse{OK: true, Targets: targets})
}
