// Package logging builds the service logger.
//
// Records go to stderr as JSON and, when a file is configured, to a
// size-rotated file managed by lumberjack.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
)

// Logger pairs the zap logger with the rotating file it may write to.
type Logger struct {
	*zap.Logger
	file *lumberjack.Logger
}

// New creates a logger writing to stderr and, optionally, cfg.File.
func New(cfg config.LoggingConfig) (*Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit console writer.
func NewWithWriter(cfg config.LoggingConfig, console io.Writer) (*Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(console), level),
	}

	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...), zap.AddCaller()),
		file:   file,
	}, nil
}

// Rotate closes the current log file and starts a new one.
// It is a no-op when no file is configured.
func (l *Logger) Rotate() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Rotate(); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return nil
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	// Sync on a terminal stderr returns EINVAL; nothing is lost
	_ = l.Logger.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Writer adapts the logger to an io.Writer, one info entry per line.
// Used for the HTTP access log.
func (l *Logger) Writer(name string) *zapio.Writer {
	return &zapio.Writer{Log: l.Logger.Named(name), Level: zapcore.InfoLevel}
}
