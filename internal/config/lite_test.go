package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "neurocalc-mcp-server", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.FeedbackEnabled)
	assert.Equal(t, 70.0, cfg.ReferenceWeightKg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadLiteConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, "1.0.0", cfg.ServerVersion)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("NEUROCALC_DATA_DIR", "/tmp/test-neurocalc")
	t.Setenv("NEUROCALC_CACHE_MAX_ITEMS", "500")
	t.Setenv("NEUROCALC_CACHE_TTL", "12h")
	t.Setenv("NEUROCALC_SERVER_NAME", "stroke-tools")
	t.Setenv("NEUROCALC_LOG_LEVEL", "debug")
	t.Setenv("NEUROCALC_LOG_FORMAT", "text")
	t.Setenv("NEUROCALC_FEEDBACK_ENABLED", "false")
	t.Setenv("NEUROCALC_REFERENCE_WEIGHT_KG", "82.5")

	cfg, err := LoadLiteConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test-neurocalc", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "stroke-tools", cfg.ServerName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.FeedbackEnabled)
	assert.Equal(t, 82.5, cfg.ReferenceWeightKg)
}

func TestLoadLiteConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "negative cache size", key: "NEUROCALC_CACHE_MAX_ITEMS", value: "-3"},
		{name: "non-numeric cache size", key: "NEUROCALC_CACHE_MAX_ITEMS", value: "lots"},
		{name: "unparseable ttl", key: "NEUROCALC_CACHE_TTL", value: "soon"},
		{name: "zero reference weight", key: "NEUROCALC_REFERENCE_WEIGHT_KG", value: "0"},
		{name: "NaN reference weight", key: "NEUROCALC_REFERENCE_WEIGHT_KG", value: "NaN"},
		{name: "non-boolean feedback flag", key: "NEUROCALC_FEEDBACK_ENABLED", value: "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadLiteConfig()
			assert.Error(t, err)
		})
	}
}

func TestLiteConfig_Validate(t *testing.T) {
	cfg := DefaultLiteConfig()
	cfg.DataDir = ""
	assert.Error(t, cfg.Validate())

	cfg.FeedbackEnabled = false
	assert.NoError(t, cfg.Validate())

	cfg.CacheTTL = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.neurocalc"}

	assert.Equal(t, "/home/user/.neurocalc/feedback.db", cfg.FeedbackDBPath())
	assert.Equal(t, "/home/user/.neurocalc/exports", cfg.ExportDir())
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: filepath.Join(t.TempDir(), "neurocalc")}

	require.NoError(t, cfg.EnsureDataDir())

	_, err := os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"NEUROCALC_DATA_DIR",
		"NEUROCALC_CACHE_MAX_ITEMS",
		"NEUROCALC_CACHE_TTL",
		"NEUROCALC_SERVER_NAME",
		"NEUROCALC_SERVER_VERSION",
		"NEUROCALC_LOG_LEVEL",
		"NEUROCALC_LOG_FORMAT",
		"NEUROCALC_FEEDBACK_ENABLED",
		"NEUROCALC_REFERENCE_WEIGHT_KG",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}
