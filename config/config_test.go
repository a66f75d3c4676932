package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "./data/ams.db", cfg.DBPath)
	assert.Equal(t, 55*time.Second, cfg.TurnTimeout)
	assert.Equal(t, "concat", cfg.InitialMode)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("TURN_TIMEOUT", "30s")
	t.Setenv("INITIAL_MODE", "ignore")
	t.Setenv("GCS_BUCKET", "ams-documents")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout)
	assert.Equal(t, "ignore", cfg.InitialMode)
	assert.Equal(t, "ams-documents", cfg.Storage.GCSBucket)
}

func TestLoadRejectsMissingKey(t *testing.T) {
	t.Setenv("PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("PROVIDER", "cohere")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadInitialMode(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("INITIAL_MODE", "prepend")

	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TURN_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 55*time.Second, cfg.TurnTimeout)
}
