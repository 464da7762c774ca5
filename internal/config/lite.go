package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LiteConfig configures the standalone stdio MCP server. Every field can be
// set through a NEUROCALC_ environment variable named after its key.
type LiteConfig struct {
	DataDir string `mapstructure:"data_dir"`

	CacheMaxItems int           `mapstructure:"cache_max_items"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`

	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`

	// FeedbackEnabled opens the SQLite feedback store and offers the
	// submit_feedback tool. When false nothing is written under DataDir.
	FeedbackEnabled bool `mapstructure:"feedback_enabled"`

	// ReferenceWeightKg is the patient weight used for the loading doses in
	// the status epilepticus agents resource.
	ReferenceWeightKg float64 `mapstructure:"reference_weight_kg"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	cfg := &LiteConfig{}
	v := newLiteViper()
	// defaults only; cannot fail
	_ = v.Unmarshal(cfg)
	return cfg
}

// LoadLiteConfig reads the environment over the defaults and validates the
// result. Malformed values are reported rather than silently replaced.
func LoadLiteConfig() (*LiteConfig, error) {
	v := newLiteViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &LiteConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling lite config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLiteViper() *viper.Viper {
	homeDir, _ := os.UserHomeDir()

	v := viper.New()
	v.SetDefault("data_dir", filepath.Join(homeDir, ".neurocalc"))
	v.SetDefault("cache_max_items", 1000)
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("server_name", "neurocalc-mcp-server")
	v.SetDefault("server_version", "1.0.0")
	v.SetDefault("feedback_enabled", true)
	v.SetDefault("reference_weight_kg", 70.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	return v
}

// Validate checks the values that the server cannot recover from.
func (c *LiteConfig) Validate() error {
	if c.FeedbackEnabled && c.DataDir == "" {
		return fmt.Errorf("data_dir is required when feedback is enabled")
	}
	if c.CacheMaxItems <= 0 {
		return fmt.Errorf("cache_max_items must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	if math.IsNaN(c.ReferenceWeightKg) || math.IsInf(c.ReferenceWeightKg, 0) || c.ReferenceWeightKg <= 0 {
		return fmt.Errorf("reference_weight_kg must be a positive number: %v", c.ReferenceWeightKg)
	}
	return nil
}

// FeedbackDBPath returns the path to the feedback SQLite database.
func (c *LiteConfig) FeedbackDBPath() string {
	return filepath.Join(c.DataDir, "feedback.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}
