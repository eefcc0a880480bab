package api

import (
	"errors"
	"net/http"

	"github.com/scribehq/scribe-api/internal/domain"
	"github.com/scribehq/scribe-api/internal/publish"
	"github.com/scribehq/scribe-api/internal/scheduler"
	"github.com/scribehq/scribe-api/internal/service/auth"
	"github.com/scribehq/scribe-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes
// without leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, publish.ErrNotAuthorized):
		return http.StatusUnauthorized

	case errors.Is(err, scheduler.ErrTaskExists):
		return http.StatusConflict

	case errors.Is(err, scheduler.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, scheduler.ErrNoConfiguration),
		errors.Is(err, scheduler.ErrTaskNotFinished),
		errors.Is(err, domain.ErrNoMessages),
		errors.Is(err, domain.ErrEmptyRequestKey):
		return http.StatusBadRequest

	case errors.Is(err, publish.ErrPublishFailed),
		errors.Is(err, store.ErrUnavailable):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the user-facing message for an error.
// Admission errors surface verbatim because their text is part of the
// API contract; everything else maps to a generic message.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, scheduler.ErrTaskExists),
		errors.Is(err, scheduler.ErrNoConfiguration),
		errors.Is(err, scheduler.ErrTaskNotFinished),
		errors.Is(err, domain.ErrNoMessages),
		errors.Is(err, domain.ErrEmptyRequestKey):
		return err.Error()

	case errors.Is(err, scheduler.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrNotFound):
		return "Result not found"

	case errors.Is(err, publish.ErrNotAuthorized):
		return "Workspace authorization required"

	case errors.Is(err, publish.ErrPublishFailed):
		return "Publish failed"

	case errors.Is(err, store.ErrUnavailable):
		return "Storage temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}
