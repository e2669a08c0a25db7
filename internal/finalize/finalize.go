// Package finalize consolidates subtask results into a scored report.
package finalize

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/loomworks/loom/internal/llm"
	"github.com/loomworks/loom/pkg/models"
)

// DefaultCriteria is the fixed list results are validated against.
var DefaultCriteria = []string{
	"Completeness - All required components implemented",
	"Quality - Code follows best practices",
	"Correctness - Logic is sound and accurate",
	"Clarity - Code is well-documented and readable",
	"Functionality - Solution works as intended",
}

// maxResultsInPrompt caps the formatted results embedded into the
// consolidation prompt.
const maxResultsInPrompt = 4000

// Finalizer asks the backend to assess accumulated results.
type Finalizer struct {
	backend  llm.Client
	criteria []string
	logf     func(format string, args ...interface{})
}

// New creates a Finalizer. Nil criteria means DefaultCriteria.
func New(backend llm.Client, criteria []string, logf func(format string, args ...interface{})) *Finalizer {
	if criteria == nil {
		criteria = DefaultCriteria
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Finalizer{backend: backend, criteria: criteria, logf: logf}
}

// reportJSON is the structure the backend is asked to return.
type reportJSON struct {
	Summary         string   `json:"summary"`
	QualityScore    float64  `json:"quality_score"`
	IsValid         bool     `json:"is_valid"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// Consolidate validates the results against the criteria and produces a
// report. Backend or parse failures degrade to a heuristic report rather
// than failing the execution.
func (f *Finalizer) Consolidate(ctx context.Context, task string, results map[string]string) models.Report {
	prompt := f.buildPrompt(task, results)

	resp, err := f.backend.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are a quality assurance expert. Validate results objectively and provide constructive feedback."},
		{Role: "user", Content: prompt},
	}, llm.Options{Temperature: 0.5, JSON: true})
	if err != nil {
		f.logf("[finalize] consolidation request failed: %v", err)
		return heuristicReport(results)
	}

	report, ok := parseReport(resp.Content)
	if !ok {
		f.logf("[finalize] unparseable consolidation response (%d chars)", len(resp.Content))
		return heuristicReport(results)
	}
	return report
}

func (f *Finalizer) buildPrompt(task string, results map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validate these task results against the provided criteria:\n\nOriginal Task: %s\n\nResults:\n%s\n\nValidation Criteria:\n", task, formatResults(results))
	for _, c := range f.criteria {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString(`
Return JSON with this exact structure and no other text:
{
  "summary": "2-4 sentence summary of what was accomplished",
  "quality_score": 0.0,
  "is_valid": true,
  "issues": ["identified issue"],
  "recommendations": ["improvement suggestion"]
}`)
	return b.String()
}

func formatResults(results map[string]string) string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", id, results[id])
		if b.Len() > maxResultsInPrompt {
			b.WriteString("... (truncated)")
			break
		}
	}
	return b.String()
}

func parseReport(response string) (models.Report, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return models.Report{}, false
	}

	var parsed reportJSON
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return models.Report{}, false
	}
	if parsed.QualityScore < 0 {
		parsed.QualityScore = 0
	}
	if parsed.QualityScore > 1 {
		parsed.QualityScore = 1
	}
	return models.Report{
		Summary:         strings.TrimSpace(parsed.Summary),
		QualityScore:    parsed.QualityScore,
		IsValid:         parsed.IsValid,
		Issues:          parsed.Issues,
		Recommendations: parsed.Recommendations,
	}, true
}

// heuristicReport scores on result shape alone when the backend cannot be
// consulted: the share of non-blocked, non-empty results.
func heuristicReport(results map[string]string) models.Report {
	total := len(results)
	if total == 0 {
		return models.Report{
			Summary:      "No subtask results were produced.",
			QualityScore: 0,
			IsValid:      false,
			Issues:       []string{"no results to assess"},
		}
	}

	usable := 0
	var issues []string
	for id, text := range results {
		if strings.TrimSpace(text) == "" {
			issues = append(issues, fmt.Sprintf("subtask %s produced no output", id))
			continue
		}
		if strings.HasPrefix(text, "Blocked: ") {
			issues = append(issues, fmt.Sprintf("subtask %s was blocked", id))
			continue
		}
		usable++
	}
	sort.Strings(issues)

	score := float64(usable) / float64(total)
	return models.Report{
		Summary:      fmt.Sprintf("%d of %d subtasks produced usable results (consolidation backend unavailable).", usable, total),
		QualityScore: score,
		IsValid:      usable == total,
		Issues:       issues,
	}
}
