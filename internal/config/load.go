package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file: ./config.yaml, ignored when absent.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables: SCRIBE_SERVER_PORT, SCRIBE_LLM_API_KEY, ...
	v.SetEnvPrefix("SCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.language_hint", "en")
	v.SetDefault("llm.max_chunk_tokens", 6000)
	v.SetDefault("auth.token_lifetime_minutes", 1440)
	v.SetDefault("task.generation_timeout_seconds", 0)
	v.SetDefault("notify.enabled", true)
}

// bindEnvKeys registers every config key with viper so AutomaticEnv can
// find values that have no default and are absent from the config file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.port", "server.log_level",
		"store.driver", "store.url", "store.redis_addr", "store.redis_db",
		"auth.enabled", "auth.jwt_secret", "auth.token_lifetime_minutes",
		"llm.provider", "llm.api_key", "llm.model", "llm.base_url",
		"llm.language_hint", "llm.max_chunk_tokens",
		"task.generation_timeout_seconds",
		"publish.enabled", "publish.base_url", "publish.session_token",
		"notify.enabled", "notify.webhook_url",
	}
	for _, key := range keys {
		// BindEnv only fails on an empty key.
		_ = v.BindEnv(key)
	}
}
