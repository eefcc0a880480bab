package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCRIBE_LLM_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "en", cfg.LLM.LanguageHint)
	assert.Equal(t, 6000, cfg.LLM.MaxChunkTokens)
	assert.Equal(t, 0, cfg.Task.GenerationTimeoutSeconds)
	assert.True(t, cfg.Notify.Enabled)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 1440, cfg.Auth.TokenLifetimeMinutes)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCRIBE_SERVER_PORT", "9090")
	t.Setenv("SCRIBE_SERVER_LOG_LEVEL", "debug")
	t.Setenv("SCRIBE_STORE_DRIVER", "redis")
	t.Setenv("SCRIBE_STORE_REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("SCRIBE_LLM_PROVIDER", "ollama")
	t.Setenv("SCRIBE_LLM_MODEL", "llama3")
	t.Setenv("SCRIBE_TASK_GENERATION_TIMEOUT_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "127.0.0.1:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 60, cfg.Task.GenerationTimeoutSeconds)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("SCRIBE_LLM_API_KEY", "test-key")
	t.Setenv("SCRIBE_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadRequiresStoreURLForPostgres(t *testing.T) {
	t.Setenv("SCRIBE_LLM_API_KEY", "test-key")
	t.Setenv("SCRIBE_STORE_DRIVER", "postgres")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresAPIKeyUnlessOllama(t *testing.T) {
	t.Setenv("SCRIBE_LLM_PROVIDER", "ollama")
	t.Setenv("SCRIBE_LLM_MODEL", "llama3")

	_, err := Load()
	require.NoError(t, err)
}
