package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugLoggerScopeTagsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine-debug.log")

	logger, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger: %v", err)
	}

	first := logger.Scope("exec-1")
	second := logger.Scope("exec-2")
	first("[engine] executing %q", "task one")
	second("[engine] executing %q", "task two")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "=== loom engine log opened") {
		t.Error("log missing header line")
	}
	if !strings.Contains(content, `(exec-1) [engine] executing "task one"`) {
		t.Errorf("log missing first scoped line:\n%s", content)
	}
	if !strings.Contains(content, `(exec-2) [engine] executing "task two"`) {
		t.Errorf("log missing second scoped line:\n%s", content)
	}
}

func TestDebugLoggerNoOpVariants(t *testing.T) {
	empty, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("NewDebugLogger(\"\"): %v", err)
	}
	empty.Log("dropped")
	empty.Scope("exec-x")("also dropped")
	if err := empty.Close(); err != nil {
		t.Errorf("Close on pathless logger: %v", err)
	}

	var nilLogger *DebugLogger
	nilLogger.Log("dropped")
	if err := nilLogger.Close(); err != nil {
		t.Errorf("Close on nil logger: %v", err)
	}
}
