// Package planner turns a free-form task into a validated execution plan
// using the text-generation backend.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loomworks/loom/internal/llm"
	"github.com/loomworks/loom/internal/plan"
	"github.com/loomworks/loom/pkg/models"
)

// plannedSubtask is the JSON structure the backend returns per subtask.
type plannedSubtask struct {
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	Kind           string   `json:"kind"`
	Dependencies   []string `json:"dependencies"`
	RequiredOutput string   `json:"required_output"`
}

// plannedResponse is the top-level JSON structure the backend returns.
type plannedResponse struct {
	Subtasks        []plannedSubtask `json:"subtasks"`
	ExecutionOrder  []string         `json:"execution_order"`
	SuccessCriteria []string         `json:"success_criteria"`
}

// Planner asks the backend to decompose a task into subtasks.
type Planner struct {
	backend     llm.Client
	temperature float64
	logf        func(format string, args ...interface{})
}

// New creates a Planner over the given backend.
func New(backend llm.Client, logf func(format string, args ...interface{})) *Planner {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Planner{backend: backend, temperature: 0.7, logf: logf}
}

// Plan decomposes the task into a validated execution plan. Transport errors
// are returned as-is; unusable responses degrade through the text fallback
// and finally a single-subtask plan. Structurally invalid plans (duplicate
// ids, dangling or circular dependencies) are returned as errors.
func (p *Planner) Plan(ctx context.Context, task string, taskContext map[string]string) (*models.Plan, error) {
	prompt := buildPrompt(task, taskContext)

	resp, err := p.backend.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, llm.Options{Temperature: p.temperature, JSON: true})
	if err != nil {
		return nil, fmt.Errorf("plan request: %w", err)
	}

	p.logf("[planner] received %d chars of plan for %q", len(resp.Content), task)
	return ParseResponse(task, resp.Content)
}

func buildPrompt(task string, taskContext map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a detailed execution plan for this task:\n\n%s", task)
	if len(taskContext) > 0 {
		ctxJSON, err := json.MarshalIndent(taskContext, "", "  ")
		if err == nil {
			fmt.Fprintf(&b, "\n\nAdditional Context:\n%s", ctxJSON)
		}
	}
	b.WriteString("\n\nProvide a comprehensive plan with clear subtasks.")
	return b.String()
}

// ParseResponse extracts a plan from a backend reply. It looks for a JSON
// object between the first '{' and the last '}'; when none parses it falls
// back to numbered/bulleted lines, and finally to a single subtask covering
// the whole task.
func ParseResponse(task, response string) (*models.Plan, error) {
	parsed, ok := parseJSONPlan(response)
	if !ok {
		parsed, ok = parseTextPlan(response)
	}
	if !ok || len(parsed.Subtasks) == 0 {
		parsed = fallbackPlan(task)
	}

	subtasks := make([]*models.Subtask, len(parsed.Subtasks))
	for i, st := range parsed.Subtasks {
		subtasks[i] = &models.Subtask{
			ID:             st.ID,
			Description:    st.Description,
			Kind:           models.SubtaskKind(st.Kind),
			Dependencies:   st.Dependencies,
			RequiredOutput: st.RequiredOutput,
		}
	}

	planned, err := plan.New(task, subtasks, parsed.ExecutionOrder)
	if err != nil {
		return nil, fmt.Errorf("backend returned invalid plan: %w", err)
	}
	if len(parsed.SuccessCriteria) > 0 {
		planned.SuccessCriteria = parsed.SuccessCriteria
	}
	return planned, nil
}

func parseJSONPlan(response string) (plannedResponse, bool) {
	var parsed plannedResponse

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return parsed, false
	}

	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return parsed, false
	}
	return parsed, len(parsed.Subtasks) > 0
}

// parseTextPlan salvages a plan from numbered or bulleted lines. Each item
// becomes an independent subtask.
func parseTextPlan(response string) (plannedResponse, bool) {
	var parsed plannedResponse

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") && (line[0] < '0' || line[0] > '9') {
			continue
		}
		description := strings.TrimLeft(line, "0123456789.-* \t")
		if description == "" {
			continue
		}
		id := fmt.Sprintf("subtask_%d", len(parsed.Subtasks)+1)
		parsed.Subtasks = append(parsed.Subtasks, plannedSubtask{
			ID:             id,
			Description:    description,
			Kind:           string(models.KindGeneral),
			RequiredOutput: "Task completion",
		})
		parsed.ExecutionOrder = append(parsed.ExecutionOrder, id)
	}

	parsed.SuccessCriteria = []string{"All subtasks completed"}
	return parsed, len(parsed.Subtasks) > 0
}

func fallbackPlan(task string) plannedResponse {
	return plannedResponse{
		Subtasks: []plannedSubtask{{
			ID:             "subtask_1",
			Description:    task,
			Kind:           string(models.KindGeneral),
			RequiredOutput: "Task completion",
		}},
		ExecutionOrder:  []string{"subtask_1"},
		SuccessCriteria: []string{"Task completed successfully"},
	}
}
