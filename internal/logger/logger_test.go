package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-service/internal/config"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New(config.LoggingConfig{Level: "DEBUG"}).GetLevel())
	assert.Equal(t, zerolog.WarnLevel, New(config.LoggingConfig{Level: "warn"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New(config.LoggingConfig{Level: "loud"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New(config.LoggingConfig{}).GetLevel())
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	l := New(config.LoggingConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	l.Info().Str("book", "dune").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"book":"dune"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}
