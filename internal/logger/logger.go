// Package logger provides levelled logging for invoicedb.
// Messages below the warning level are only emitted when verbose mode is
// enabled via the --verbose flag or the log.verbose setting. Output goes to
// stderr in slog's text format.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	level   = new(slog.LevelVar)
	output  io.Writer = os.Stderr
	base              = newLogger(os.Stderr)
)

func init() {
	level.Set(slog.LevelWarn)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w)
}

// Output returns the current output writer.
func Output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

// Slog returns the shared structured logger, for components that take a
// *slog.Logger.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug logs a message at debug level.
func Debug(msg string, args ...any) {
	Slog().Debug(msg, args...)
}

// Info logs a message at info level.
func Info(msg string, args ...any) {
	Slog().Info(msg, args...)
}

// Warn logs a message at warning level. Warnings are shown even when
// verbose mode is off.
func Warn(msg string, args ...any) {
	Slog().Warn(msg, args...)
}
