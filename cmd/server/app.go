package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/scribehq/scribe-api/internal/config"
	"github.com/scribehq/scribe-api/internal/events"
	"github.com/scribehq/scribe-api/internal/generation"
	"github.com/scribehq/scribe-api/internal/notify"
	"github.com/scribehq/scribe-api/internal/platform/gemini"
	"github.com/scribehq/scribe-api/internal/platform/notion"
	"github.com/scribehq/scribe-api/internal/platform/ollama"
	"github.com/scribehq/scribe-api/internal/platform/openai"
	"github.com/scribehq/scribe-api/internal/platform/postgres"
	"github.com/scribehq/scribe-api/internal/platform/redisstore"
	"github.com/scribehq/scribe-api/internal/publish"
	"github.com/scribehq/scribe-api/internal/scheduler"
	"github.com/scribehq/scribe-api/internal/service/auth"
	"github.com/scribehq/scribe-api/internal/store"
)

// application holds the shared dependencies so shutdown can clean them
// up in one place.
type application struct {
	config *config.Config
	logger *slog.Logger

	db *sql.DB
	kv store.KV

	emitter      *events.InMemoryEmitter
	scheduler    *scheduler.Scheduler
	publisher    publish.Publisher
	tokenService auth.TokenService
}

// newApplication wires every component from configuration: store
// driver, LLM provider, event handlers, scheduler, publisher, and the
// optional token service.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if err := app.setupStore(); err != nil {
		return nil, err
	}

	generator, err := newGenerator(logger, cfg.LLM)
	if err != nil {
		return nil, err
	}

	app.emitter = events.NewInMemoryEmitter(logger)
	badge := notify.NewStoreBadge(app.kv, logger)
	app.emitter.RegisterHandler(notify.NewBadgeHandler(badge, logger))
	app.emitter.RegisterHandler(notify.NewNotificationHandler(
		newNotifier(cfg.Notify, logger),
		cfg.Notify.Enabled,
		logger))

	app.scheduler = scheduler.New(app.kv, generator, app.emitter, scheduler.Config{
		Model:               cfg.LLM.Model,
		DefaultLanguageHint: cfg.LLM.LanguageHint,
		GenerationTimeout:   time.Duration(cfg.Task.GenerationTimeoutSeconds) * time.Second,
	}, logger)

	if cfg.Publish.Enabled {
		app.publisher = notion.New(cfg.Publish.BaseURL, cfg.Publish.SessionToken, logger)
	}

	if cfg.Auth.Enabled {
		app.tokenService, err = auth.NewTokenService(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
	}

	return app, nil
}

// setupStore selects and initializes the durable store driver.
func (app *application) setupStore() error {
	switch app.config.Store.Driver {
	case "postgres":
		db, err := setupDatabase(app.config, app.logger)
		if err != nil {
			return err
		}
		app.db = db
		app.kv = postgres.NewKVStore(db)

	case "redis":
		redisStore := redisstore.New(app.config.Store.RedisAddr, app.config.Store.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.kv = redisStore

	case "memory":
		app.logger.Warn("using in-memory store, task state will not survive restarts")
		app.kv = store.NewMemoryKV()

	default:
		return fmt.Errorf("unknown store driver %q", app.config.Store.Driver)
	}
	return nil
}

// newGenerator selects the LLM provider from configuration.
func newGenerator(logger *slog.Logger, cfg config.LLMConfig) (generation.Generator, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewGenerator(logger, cfg)
	case "gemini":
		return gemini.NewGenerator(context.Background(), logger, cfg)
	case "ollama":
		return ollama.NewGenerator(logger, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// newNotifier picks webhook delivery when configured, log-only
// otherwise.
func newNotifier(cfg config.NotifyConfig, logger *slog.Logger) notify.Notifier {
	if cfg.WebhookURL != "" {
		return notify.NewWebhookNotifier(cfg.WebhookURL, logger)
	}
	return notify.NewLogNotifier(logger)
}

// cleanup releases held resources after the HTTP server has stopped.
func (app *application) cleanup() {
	app.scheduler.Stop()

	if closer, ok := app.kv.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("failed to close store", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
