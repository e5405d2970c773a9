// Package logger prints diagnostic messages to stderr. Debug, Info and
// Warn are gated behind the --verbose flag; Error always prints.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose toggles verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output, for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// emit writes one tagged line. Callers hold no lock.
func emit(level, format string, gated bool, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
}

// Debug prints a verbose-only debug message.
func Debug(format string, args ...any) {
	emit("DEBUG", format, true, args...)
}

// Section prints a verbose-only section header.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints a verbose-only informational message.
func Info(format string, args ...any) {
	emit("INFO", format, true, args...)
}

// Warn prints a verbose-only warning.
func Warn(format string, args ...any) {
	emit("WARN", format, true, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	emit("ERROR", format, false, args...)
}
