package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"TSDR_ADDR", "TSDR_SERVER_URL", "TSDR_PROVIDER", "TSDR_ENDPOINT", "TSDR_MODEL",
		"TSDR_TIMEOUT", "TSDR_LOG_LEVEL", "TSDR_LOG_PATH", "TSDR_DEV", "TSDR_PREF_FILE",
		"TSDR_REDIS_ADDR", "TSDR_REDIS_PASSWORD", "TSDR_REDIS_DB",
		"OPENAI_API_KEY", "GEMINI_API_KEY", "TSDR_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.ServerOnly)
	assert.Empty(t, cfg.Server.URL)
	assert.Equal(t, "hackclub", cfg.Completion.Provider)
	assert.Zero(t, cfg.Completion.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Dev)
}

func TestFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TSDR_ADDR", ":9000")
	t.Setenv("TSDR_LOG_LEVEL", "warn")

	cfg, err := Load([]string{"--addr", ":7000", "--dev", "--timeout", "15s"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Dev)
	assert.Equal(t, 15*time.Second, cfg.Completion.Timeout)
}

func TestEnvTimeoutAcceptsSeconds(t *testing.T) {
	clearEnv(t)
	t.Setenv("TSDR_TIMEOUT", "30")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Completion.Timeout)
}

func TestOpenAIRequiresKey(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"--provider", "openai"})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load([]string{"--provider", "openai", "--model", "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Completion.APIKey)

	cc := cfg.ClientConfig()
	assert.Equal(t, "openai", cc.Provider)
	assert.Equal(t, "gpt-4o", cc.Model)
}

func TestUnknownProviderRejected(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"--provider", "claude"})
	assert.Error(t, err)
}

func TestUnknownFlagRejected(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"--bogus"})
	assert.Error(t, err)
}

func TestOllamaNeedsNoKey(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{"--provider", "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.ClientConfig().Provider)
	assert.Empty(t, cfg.Completion.APIKey)
}
