// Package llm provides the text-generation backend capability. A closed set
// of provider implementations sits behind one Client interface, selected once
// at configuration time and passed explicitly into each component that needs
// it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrConfiguration indicates a provider could not be constructed, for
// example because a required credential is missing. It is surfaced to the
// caller before any subtask runs.
var ErrConfiguration = errors.New("llm: configuration error")

// TransportError wraps failures of the remote call itself: unreachable
// backend, timeout, malformed or missing response. It is distinguishable
// from a normal low-quality answer, which is returned as content.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// Options tunes a single chat call.
type Options struct {
	// Temperature is the sampling temperature.
	Temperature float64
	// JSON asks the provider for a JSON-formatted response where the
	// provider supports a response format; otherwise it is expressed as
	// an instruction.
	JSON bool
	// MaxTokens caps the response length. Zero means the provider default.
	MaxTokens int64
}

// Response is the provider's answer to a chat call.
type Response struct {
	Content  string
	Model    string
	Provider string
	Usage    *Usage
}

// Usage reports token consumption for one call, when the provider exposes it.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Client is the capability consumed by the engine: an opaque, possibly-slow,
// possibly-failing remote chat call.
type Client interface {
	// Chat sends the conversation and returns the backend's text. Errors
	// are transport or configuration failures, never low-quality answers.
	Chat(ctx context.Context, messages []Message, opts Options) (*Response, error)
}

// UsageReporter is implemented by providers that accumulate token usage
// across calls. The engine snapshots the tracker around each execution to
// attribute consumption per run.
type UsageReporter interface {
	Tracker() *TokenTracker
}

// Config selects and configures a provider.
type Config struct {
	// Provider is "anthropic" or "ollama".
	Provider string
	// Model is the provider-specific model name.
	Model string
	// APIKey is the Anthropic API key (falls back to ANTHROPIC_API_KEY).
	APIKey string
	// BaseURL is the Ollama server URL.
	BaseURL string
	// UseAWSBedrock routes Anthropic calls through AWS Bedrock.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region.
	AWSRegion string
	// AWSProfile is the optional AWS profile name.
	AWSProfile string
}

// New constructs the configured provider. Unknown provider names and missing
// credentials are configuration errors.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(cfg)
	case "ollama":
		return NewOllama(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrConfiguration, cfg.Provider)
	}
}

// TokenTracker tracks token usage across chat calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from one call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of chat calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
