package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Store   StoreConfig   `mapstructure:"store"   validate:"required"`
	Auth    AuthConfig    `mapstructure:"auth"`
	LLM     LLMConfig     `mapstructure:"llm"     validate:"required"`
	Task    TaskConfig    `mapstructure:"task"`
	Publish PublishConfig `mapstructure:"publish"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig selects and configures the durable state store backend.
type StoreConfig struct {
	// Driver selects the backend: postgres, redis, or memory.
	// The memory driver loses all state on restart and exists for
	// local development and tests.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres redis memory"`

	// URL is the Postgres connection string. Required when Driver is postgres.
	URL string `mapstructure:"url" validate:"required_if=Driver postgres"`

	// RedisAddr is the host:port of the Redis server. Required when Driver is redis.
	RedisAddr string `mapstructure:"redis_addr" validate:"required_if=Driver redis"`

	// RedisDB is the Redis logical database number.
	RedisDB int `mapstructure:"redis_db"`
}

// AuthConfig contains service-token authentication settings.
// When Enabled is false the API accepts unauthenticated requests,
// which is the expected mode when the service runs on localhost
// as a browser-extension companion.
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret" validate:"required_if=Enabled true,omitempty,min=32"`

	// TokenLifetimeMinutes is how long an issued service token stays
	// valid.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"omitempty,gt=0"`
}

// LLMConfig contains all LLM provider settings. The provider and model
// are snapshotted onto each task at submission time, so changing them
// does not retroactively alter in-flight tasks.
type LLMConfig struct {
	// Provider selects the generation backend: openai, gemini, or ollama.
	Provider string `mapstructure:"provider" validate:"required,oneof=openai gemini ollama"`

	// APIKey authenticates against the provider. Ollama needs none.
	APIKey string `mapstructure:"api_key" validate:"required_unless=Provider ollama"`

	// Model is the model name sent with every request.
	Model string `mapstructure:"model" validate:"required"`

	// BaseURL overrides the provider endpoint. Used for OpenAI-compatible
	// proxies and for pointing ollama at a non-default host.
	BaseURL string `mapstructure:"base_url"`

	// LanguageHint is the fallback article language when the caller
	// does not send an Accept-Language header.
	LanguageHint string `mapstructure:"language_hint"`

	// MaxChunkTokens bounds the size of a single completion request.
	// Conversations above the bound are composed via chunked summarization.
	MaxChunkTokens int `mapstructure:"max_chunk_tokens" validate:"omitempty,gt=0"`
}

// TaskConfig contains scheduler tuning knobs.
type TaskConfig struct {
	// GenerationTimeoutSeconds bounds one generation call.
	// Zero disables the timeout and defers to the provider's own limits.
	GenerationTimeoutSeconds int `mapstructure:"generation_timeout_seconds" validate:"gte=0"`
}

// PublishConfig contains settings for the workspace publishing backend.
type PublishConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url" validate:"required_if=Enabled true,omitempty,url"`

	// SessionToken is the backend session credential sent with every
	// publishing request. The backend issues it after its own OAuth
	// consent flow, which stays outside this service.
	SessionToken string `mapstructure:"session_token"`
}

// NotifyConfig contains settings for the user-notification side effect.
type NotifyConfig struct {
	// Enabled plays the role of the platform notification permission:
	// when false the notifier silently drops every alert.
	Enabled bool `mapstructure:"enabled"`

	// WebhookURL, when set, receives terminal-transition alerts as JSON.
	// When empty, alerts go to the structured log only.
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`
}
