package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var logger *slog.Logger

// Init initializes the global structured logger.
func Init(level string) {
	initHandler(level, os.Stderr)
}

// InitWithFile initializes the global logger writing to both stderr and the
// given log file. If the file cannot be opened, logging falls back to stderr
// only; a missing log file must not abort an upgrade.
func InitWithFile(level, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		initHandler(level, os.Stderr)
		Warn("could not create log directory, logging to stderr only", "path", path, "error", err)
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		initHandler(level, os.Stderr)
		Warn("could not open log file, logging to stderr only", "path", path, "error", err)
		return
	}
	initHandler(level, io.MultiWriter(os.Stderr, f))
}

func initHandler(level string, w io.Writer) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// LevelFor maps the resolved debug/verbose flags to a log level name.
// Debug wins over verbose; with neither set only warnings and errors are shown.
func LevelFor(debug, verbose bool) string {
	switch {
	case debug:
		return "debug"
	case verbose:
		return "info"
	default:
		return "warn"
	}
}

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}
