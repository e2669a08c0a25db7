package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "groq"})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("New(unknown provider) error = %v, want ErrConfiguration", err)
	}
}

func TestNew_AnthropicMissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := New(Config{Provider: "anthropic"})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("New(anthropic, no key) error = %v, want ErrConfiguration", err)
	}
}

func TestNew_AnthropicWithKey(t *testing.T) {
	c, err := New(Config{Provider: "anthropic", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil client")
	}
}

func TestNew_OllamaNeedsNoCredentials(t *testing.T) {
	c, err := New(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("New(ollama) error = %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil client")
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := &TransportError{Provider: "ollama", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("TransportError should unwrap to inner error")
	}
	want := "ollama backend: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTokenTracker(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(100, 50)
	tr.Add(10, 5)

	in, out := tr.Total()
	if in != 110 || out != 55 {
		t.Errorf("Total() = (%d, %d), want (110, 55)", in, out)
	}
	if tr.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", tr.Calls())
	}
}
