package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loomworks/loom/internal/llm"
	"github.com/loomworks/loom/internal/plan"
	"github.com/loomworks/loom/pkg/models"
)

func TestParseResponseJSON(t *testing.T) {
	response := `Here is the plan you asked for:
{
  "subtasks": [
    {"id": "subtask_1", "description": "Fetch the dataset", "kind": "fetch", "dependencies": [], "required_output": "raw data"},
    {"id": "subtask_2", "description": "Analyze the dataset", "kind": "analysis", "dependencies": ["subtask_1"], "required_output": "findings"}
  ],
  "execution_order": ["subtask_1", "subtask_2"],
  "success_criteria": ["Findings written up"]
}
Let me know if you want changes.`

	p, err := ParseResponse("analyze sales data", response)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(p.Subtasks) != 2 {
		t.Fatalf("got %d subtasks, want 2", len(p.Subtasks))
	}
	if p.OriginalTask != "analyze sales data" {
		t.Errorf("OriginalTask = %q", p.OriginalTask)
	}
	if p.Subtasks[0].Kind != models.KindFetch {
		t.Errorf("first kind = %q, want fetch", p.Subtasks[0].Kind)
	}
	if got := p.Subtasks[1].Dependencies; len(got) != 1 || got[0] != "subtask_1" {
		t.Errorf("second deps = %v", got)
	}
	if p.Subtasks[0].Status != models.SubtaskStatusPending {
		t.Errorf("status = %q, want pending", p.Subtasks[0].Status)
	}
	if len(p.SuccessCriteria) != 1 || p.SuccessCriteria[0] != "Findings written up" {
		t.Errorf("success criteria = %v", p.SuccessCriteria)
	}
}

func TestParseResponseTextFallback(t *testing.T) {
	response := `I couldn't produce JSON, but here are the steps:
1. Research existing solutions
2. Draft the design
- Write the implementation
* Review everything`

	p, err := ParseResponse("build a widget", response)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(p.Subtasks) != 4 {
		t.Fatalf("got %d subtasks, want 4", len(p.Subtasks))
	}
	if p.Subtasks[0].Description != "Research existing solutions" {
		t.Errorf("first description = %q", p.Subtasks[0].Description)
	}
	if p.Subtasks[3].Description != "Review everything" {
		t.Errorf("last description = %q", p.Subtasks[3].Description)
	}
	for i, st := range p.Subtasks {
		if st.Kind != models.KindGeneral {
			t.Errorf("subtask %d kind = %q, want general", i, st.Kind)
		}
	}
}

func TestParseResponseSingleSubtaskFallback(t *testing.T) {
	p, err := ParseResponse("summarize the report", "I am not sure how to plan this.")
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(p.Subtasks) != 1 {
		t.Fatalf("got %d subtasks, want 1", len(p.Subtasks))
	}
	if p.Subtasks[0].ID != "subtask_1" {
		t.Errorf("id = %q, want subtask_1", p.Subtasks[0].ID)
	}
	if p.Subtasks[0].Description != "summarize the report" {
		t.Errorf("description = %q", p.Subtasks[0].Description)
	}
}

func TestParseResponseRejectsCyclicPlan(t *testing.T) {
	response := `{
  "subtasks": [
    {"id": "a", "description": "first", "dependencies": ["b"]},
    {"id": "b", "description": "second", "dependencies": ["a"]}
  ],
  "execution_order": ["a", "b"]
}`

	_, err := ParseResponse("cyclic task", response)
	if err == nil {
		t.Fatal("expected error for cyclic plan")
	}
	if !errors.Is(err, plan.ErrCycleDetected) {
		t.Errorf("error = %v, want ErrCycleDetected", err)
	}
}

func TestParseResponseRejectsDanglingDependency(t *testing.T) {
	response := `{
  "subtasks": [
    {"id": "a", "description": "first", "dependencies": ["missing"]}
  ]
}`

	if _, err := ParseResponse("dangling", response); err == nil {
		t.Fatal("expected error for dangling dependency")
	}
}

type plannerClient struct {
	reply   string
	err     error
	lastMsg []llm.Message
	opts    llm.Options
}

func (c *plannerClient) Chat(ctx context.Context, msgs []llm.Message, opts llm.Options) (*llm.Response, error) {
	c.lastMsg = msgs
	c.opts = opts
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Response{Content: c.reply, Provider: "fake"}, nil
}

func TestPlanSendsContextAndRequestsJSON(t *testing.T) {
	client := &plannerClient{reply: `{"subtasks":[{"id":"s1","description":"do it"}],"execution_order":["s1"]}`}
	p := New(client, nil)

	got, err := p.Plan(context.Background(), "do the thing", map[string]string{"repo": "loom"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(got.Subtasks) != 1 {
		t.Fatalf("got %d subtasks, want 1", len(got.Subtasks))
	}
	if !client.opts.JSON {
		t.Error("expected JSON option on planning request")
	}
	if len(client.lastMsg) != 2 || client.lastMsg[0].Role != "system" {
		t.Fatalf("unexpected message shape: %+v", client.lastMsg)
	}
	user := client.lastMsg[1].Content
	if !strings.Contains(user, "do the thing") {
		t.Errorf("prompt missing task: %q", user)
	}
	if !strings.Contains(user, "Additional Context") || !strings.Contains(user, "loom") {
		t.Errorf("prompt missing context: %q", user)
	}
}

func TestPlanPropagatesTransportError(t *testing.T) {
	wantErr := &llm.TransportError{Provider: "fake", Err: errors.New("connection refused")}
	p := New(&plannerClient{err: wantErr}, nil)

	_, err := p.Plan(context.Background(), "anything", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var te *llm.TransportError
	if !errors.As(err, &te) {
		t.Errorf("error = %v, want TransportError", err)
	}
}
