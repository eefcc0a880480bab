package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scribehq/scribe-api/internal/api"
	apiMiddleware "github.com/scribehq/scribe-api/internal/api/middleware"
	"github.com/scribehq/scribe-api/internal/api/shared"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(app.scheduler, app.logger)
	eventsHandler := api.NewEventsHandler(app.emitter, app.logger)

	r.Route("/api", func(r chi.Router) {
		// The token check guards the whole API when auth is enabled;
		// in the default localhost companion mode it is off.
		if app.tokenService != nil {
			r.Use(apiMiddleware.NewAuthMiddleware(app.tokenService).Authenticate)
		}

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Submit)
			r.Get("/", taskHandler.State)
			r.Get("/events", eventsHandler.Stream)
			r.Get("/{id}/result", taskHandler.Result)
			r.Delete("/{id}", taskHandler.Delete)
		})

		if app.publisher != nil {
			publishHandler := api.NewPublishHandler(app.scheduler, app.publisher, app.logger)
			r.Post("/tasks/{id}/publish", publishHandler.Publish)
			r.Get("/publish/targets", publishHandler.SearchTargets)
		} else {
			r.Post("/tasks/{id}/publish", publishingDisabled)
			r.Get("/publish/targets", publishingDisabled)
		}
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

func publishingDisabled(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusNotImplemented, "Publishing is not configured")
}
