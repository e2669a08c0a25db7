// Package orchestrator composes planning, dispatch, extraction, healing, and
// finalization into one task execution.
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// logFunc is the logging capability handed to the engine's collaborators.
type logFunc func(format string, args ...interface{})

// DebugLogger is the engine's debug log. One file serves the whole process,
// so concurrent executions interleave; Scope tags lines per execution to
// keep the interleaving readable.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewDebugLogger opens a debug log at the given path, creating parent
// directories as needed. An empty path yields a no-op logger.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{file: f}
	logger.Log("=== loom engine log opened %s ===", time.Now().Format(time.RFC3339))
	return logger, nil
}

// NopLogger returns a no-op logger for testing or when logging is disabled.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Scope returns a log function that tags every line with id. The engine
// scopes one per execution so each run's planner, dispatch, and healing
// lines can be followed through a shared file.
func (l *DebugLogger) Scope(id string) logFunc {
	return func(format string, args ...interface{}) {
		l.Log("(%s) "+format, append([]interface{}{id}, args...)...)
	}
}

// Log writes a timestamped line to the debug log.
// A nil or file-less logger drops the line.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s\n", timestamp, msg)
	l.file.Sync()
}

// Close closes the log file. Safe on a nil or file-less logger.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
