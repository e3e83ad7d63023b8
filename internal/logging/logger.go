// Package logging provides structured logging for nginx-rtmp-exporter.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// NewLogger creates a new structured logger writing to stderr.
// Format should be "json" or "text"; text output is colourised when stderr
// is a terminal.
// Level should be "debug", "info", "warn", or "error".
func NewLogger(format, level string, verbose bool) *slog.Logger {
	// Determine log level
	logLevel := parseLevel(level)
	if verbose {
		logLevel = slog.LevelDebug
	}

	noColor := !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	return slog.New(newHandler(os.Stderr, format, logLevel, noColor))
}

// NewLoggerWithWriter creates a logger that writes uncoloured output to a
// custom writer. Useful for testing.
func NewLoggerWithWriter(w io.Writer, format, level string) *slog.Logger {
	return slog.New(newHandler(w, format, parseLevel(level), true))
}

func newHandler(w io.Writer, format string, level slog.Level, noColor bool) slog.Handler {
	// Add source location for debug level
	addSource := level == slog.LevelDebug

	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: addSource,
		})
	default:
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  addSource,
			NoColor:    noColor,
			TimeFormat: time.DateTime,
		})
	}
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault sets the default logger for the slog package.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
