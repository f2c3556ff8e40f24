// Package log provides categorized structured logging for goldcheck.
// It wraps log/slog with a shared default logger so packages can log
// without threading a logger through every call.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Category identifies the subsystem a log line originates from.
type Category string

const (
	// CatCLI covers command-line parsing and process lifecycle.
	CatCLI Category = "cli"
	// CatCompare covers the validator core.
	CatCompare Category = "compare"
	// CatContainer covers product container I/O.
	CatContainer Category = "container"
	// CatGeo covers geospatial metadata comparison.
	CatGeo Category = "geo"
	// CatSidecar covers auxiliary product-set comparison.
	CatSidecar Category = "sidecar"
	// CatDB covers the run-history store.
	CatDB Category = "db"
	// CatWatch covers watch-mode file events.
	CatWatch Category = "watch"
)

var (
	mu     sync.RWMutex
	logger = slog.New(newHandler(os.Stderr, slog.LevelInfo))
)

// newHandler picks a colorized handler on terminals and a plain text
// handler otherwise, so CI logs stay grep-friendly.
func newHandler(w io.Writer, level slog.Level) slog.Handler {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// Init reconfigures the default logger. Level accepts "debug", "info",
// "warn" and "error"; anything else falls back to info.
func Init(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(newHandler(w, ParseLevel(level)))
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug message under the given category.
func Debug(cat Category, msg string, kv ...any) {
	get().Debug(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// Info logs an info message under the given category.
func Info(cat Category, msg string, kv ...any) {
	get().Info(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// Warn logs a warning under the given category.
func Warn(cat Category, msg string, kv ...any) {
	get().Warn(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// Error logs an error-severity message under the given category.
func Error(cat Category, msg string, kv ...any) {
	get().Error(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// ErrorErr logs an error-severity message with an attached error value.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	get().Error(msg, append([]any{"cat", string(cat), "error", err}, kv...)...)
}
