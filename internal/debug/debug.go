// Package debug holds the process-wide diagnostic switches. RL_DEBUG or
// --verbose turns on debug lines; --quiet raises the logger threshold.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	fromEnv = os.Getenv("RL_DEBUG") != ""
	verbose bool
	quiet   bool
	out     io.Writer = os.Stderr
)

// SetVerbose turns debug output on or off for the rest of the process.
func SetVerbose(on bool) {
	mu.Lock()
	verbose = on
	mu.Unlock()
}

// SetQuiet drops the logger to errors only, unless debug output is on.
func SetQuiet(on bool) {
	mu.Lock()
	quiet = on
	mu.Unlock()
}

// SetOutput redirects debug lines and loggers built afterwards. It returns
// the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Enabled reports whether debug lines are written.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return fromEnv || verbose
}

// Logf writes a debug line when Enabled.
func Logf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if fromEnv || verbose {
		fmt.Fprintf(out, format, args...)
	}
}

// Level maps the switches to a slog level. Debug output wins over quiet.
func Level() slog.Level {
	mu.Lock()
	defer mu.Unlock()
	switch {
	case fromEnv || verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	}
	return slog.LevelWarn
}

// Logger builds a text logger at the current Level. Build it after flags
// are parsed.
func Logger() *slog.Logger {
	level := Level()
	mu.Lock()
	w := out
	mu.Unlock()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// OrDiscard returns l, or a logger that drops everything when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
