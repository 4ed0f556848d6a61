// Package logging initializes the application's structured loggers.
// Structured JSON goes to stdout, a human-readable stream to stderr, and
// optionally a rotated log file via lumberjack.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	structuredLogger *slog.Logger
	fileCloser       func() error
)

// Init initializes the logging system. Call once at startup, before any
// ForService call.
func Init(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(structuredLogger)
}

// InitWithFile initializes logging with an additional rotated file sink.
// The returned close function flushes the file writer; safe to call on
// shutdown even if file logging failed to initialize.
func InitWithFile(debug bool, path string) func() error {
	Init(debug)

	if path == "" {
		return func() error { return nil }
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("log file directory could not be created, file logging disabled",
				"path", path, "error", err)
			return func() error { return nil }
		}
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(io.MultiWriter(os.Stdout, writer), &slog.HandlerOptions{Level: level})
	structuredLogger = slog.New(handler)
	slog.SetDefault(structuredLogger)

	fileCloser = writer.Close
	return writer.Close
}

// ForService returns a logger with the service attribute set, for
// per-component log streams.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		Init(false)
	}
	return structuredLogger.With("service", serviceName)
}
