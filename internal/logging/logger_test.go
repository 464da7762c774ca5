package logging

import (
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurocalc-mcp-server/internal/domain"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       domain.LoggingConfig
		level     logrus.Level
		formatter logrus.Formatter
		out       io.Writer
	}{
		{"defaults", domain.LoggingConfig{}, logrus.InfoLevel, &logrus.JSONFormatter{}, os.Stdout},
		{"text to stderr", domain.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}, logrus.DebugLevel, &logrus.TextFormatter{}, os.Stderr},
		{"json discard", domain.LoggingConfig{Level: "warn", Format: "json", Output: "discard"}, logrus.WarnLevel, &logrus.JSONFormatter{}, io.Discard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.level, logger.GetLevel())
			assert.IsType(t, tt.formatter, logger.Formatter)
			assert.Equal(t, tt.out, logger.Out)
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(domain.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
