package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"bookstore-service/internal/config"
)

// New builds the root logger. When cfg.File is set, output also goes to a
// rotating log file.
func New(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stdout
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err == nil {
			writer = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			})
		}
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Init sets the global level and the package-level logger used by
// github.com/rs/zerolog/log.
func Init(cfg config.LoggingConfig) zerolog.Logger {
	l := New(cfg)
	zerolog.SetGlobalLevel(l.GetLevel())
	log.Logger = l
	return l
}
