package llm

import (
	"context"
	"fmt"

	"resty.dev/v3"
)

// defaultOllamaURL is used when no base URL is configured.
const defaultOllamaURL = "http://localhost:11434"

// Ollama is the local-model provider, speaking the Ollama chat API over HTTP.
type Ollama struct {
	http    *resty.Client
	model   string
	tracker *TokenTracker
}

// NewOllama creates an Ollama provider. The server needs no credentials, so
// construction cannot fail on missing configuration.
func NewOllama(cfg Config) (*Ollama, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = "qwen2.5:14b"
	}

	return &Ollama{
		http:    resty.New().SetBaseURL(baseURL),
		model:   model,
		tracker: NewTokenTracker(),
	}, nil
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []Message              `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int64  `json:"prompt_eval_count"`
	EvalCount       int64  `json:"eval_count"`
	Error           string `json:"error"`
}

// Chat implements Client.
func (o *Ollama) Chat(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	req := ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
	}
	if opts.JSON {
		req.Format = "json"
	}
	if opts.Temperature > 0 {
		req.Options = map[string]interface{}{"temperature": opts.Temperature}
	}

	var out ollamaChatResponse
	resp, err := o.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/api/chat")
	if err != nil {
		return nil, &TransportError{Provider: "ollama", Err: err}
	}
	if resp.IsError() {
		return nil, &TransportError{Provider: "ollama", Err: fmt.Errorf("status %s: %s", resp.Status(), resp.String())}
	}
	if out.Error != "" {
		return nil, &TransportError{Provider: "ollama", Err: fmt.Errorf("%s", out.Error)}
	}
	if out.Message.Content == "" {
		return nil, &TransportError{Provider: "ollama", Err: fmt.Errorf("response contained no message content")}
	}

	o.tracker.Add(out.PromptEvalCount, out.EvalCount)

	return &Response{
		Content:  out.Message.Content,
		Model:    o.model,
		Provider: "ollama",
		Usage: &Usage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
		},
	}, nil
}

// Tracker returns the token tracker for this provider.
func (o *Ollama) Tracker() *TokenTracker {
	return o.tracker
}

var _ Client = (*Ollama)(nil)
