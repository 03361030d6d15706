// Package common provides shared utilities for stock-compare.
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"

	"github.com/bobmcallan/stock-compare/internal/config"
)

const (
	logTimeFormat     = "2006-01-02T15:04:05Z07:00"
	defaultLogFile    = "logs/stock-compare.log"
	defaultMaxLogSize = 10 << 20
	defaultMaxBackups = 5
)

// Logger is the application logger: an arbor.ILogger with helpers.
type Logger struct {
	arbor.ILogger
}

// NewLoggerFromConfig builds a logger from the [logging] section.
// Outputs may list "console" (stderr) and "file"; the in-memory writer is
// always attached. Format "json" writes JSON lines, anything else logfmt.
// A log directory that cannot be created drops the file writer and is
// reported through the returned logger.
func NewLoggerFromConfig(cfg config.LoggingConfig) *Logger {
	format := outputFormat(cfg.Format)

	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"console"}
	}

	l := arbor.NewLogger()
	var fileErr error
	for _, out := range outputs {
		switch out {
		case "console":
			l = l.WithConsoleWriter(consoleWriterConfig(format))
		case "file":
			wc, err := fileWriterConfig(cfg, format)
			if err != nil {
				fileErr = err
				continue
			}
			l = l.WithFileWriter(wc)
		}
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	l = l.WithMemoryWriter(models.WriterConfiguration{Type: models.LogWriterTypeMemory}).
		WithLevelFromString(level)

	logger := &Logger{ILogger: l}
	if fileErr != nil {
		logger.Warn().Err(fileErr).Msg("file logging disabled")
	}
	return logger
}

func outputFormat(name string) models.OutputFormat {
	if strings.EqualFold(name, "json") {
		return models.OutputFormatJSON
	}
	return models.OutputFormatLogfmt
}

func consoleWriterConfig(format models.OutputFormat) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		Writer:     os.Stderr,
		TimeFormat: logTimeFormat,
		OutputType: format,
	}
}

func fileWriterConfig(cfg config.LoggingConfig, format models.OutputFormat) (models.WriterConfiguration, error) {
	path := cfg.FilePath
	if path == "" {
		path = defaultLogFile
	}
	// The file writer does not create parent directories
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return models.WriterConfiguration{}, fmt.Errorf("create log directory for %s: %w", path, err)
	}

	size := int64(cfg.MaxSizeMB) << 20
	if size <= 0 {
		size = defaultMaxLogSize
	}
	backups := cfg.MaxBackups
	if backups <= 0 {
		backups = defaultMaxBackups
	}

	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   path,
		MaxSize:    size,
		MaxBackups: backups,
		TimeFormat: logTimeFormat,
		OutputType: format,
	}, nil
}

// NewSilentLogger returns a logger that drops everything. Tests use it so
// nothing reaches arbor's globally registered writers.
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger().WithWriters([]writers.IWriter{discard{}})}
}

// WithCorrelationId returns a copy of l that tags every event with id.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}

// discard is an arbor writer with no output.
type discard struct{}

func (discard) Write(p []byte) (int, error)           { return len(p), nil }
func (d discard) WithLevel(log.Level) writers.IWriter { return d }
func (discard) GetFilePath() string                   { return "" }
func (discard) Close() error                          { return nil }
