package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/dispatch"
	"github.com/loomworks/loom/internal/exec"
	"github.com/loomworks/loom/internal/extract"
	"github.com/loomworks/loom/internal/finalize"
	"github.com/loomworks/loom/internal/heal"
	"github.com/loomworks/loom/internal/llm"
	"github.com/loomworks/loom/internal/memory"
	"github.com/loomworks/loom/internal/plan"
	"github.com/loomworks/loom/internal/planner"
	"github.com/loomworks/loom/internal/security"
	"github.com/loomworks/loom/internal/workspace"
	"github.com/loomworks/loom/pkg/models"
)

// Result is the full payload of one task execution.
type Result struct {
	Task        string                  `json:"task"`
	Plan        *models.Plan            `json:"plan"`
	Results     map[string]string       `json:"results"`
	Artifacts   []models.ArtifactInfo   `json:"artifacts"`
	Rejected    []extract.Rejection     `json:"rejected,omitempty"`
	Security    []security.Event        `json:"security_events,omitempty"`
	Healing     []models.HealingAttempt `json:"healing_history,omitempty"`
	Healed      bool                    `json:"healed"`
	Report      models.Report           `json:"report"`
	FileOps     workspace.Stats         `json:"file_ops"`
	Usage       *llm.Usage              `json:"usage,omitempty"`
	Events      []Event                 `json:"events"`
	SandboxRoot string                  `json:"sandbox_root"`
}

// Engine runs tasks end to end. One Engine serves many executions; each
// execution gets its own sandbox, tracker, and event log.
type Engine struct {
	cfg     *config.Config
	backend llm.Client
	runner  exec.CommandRunner
	memory  *memory.ContextStore // nil when disabled
	stats   *Stats
	logger  *DebugLogger
}

// New creates an Engine. memory may be nil.
func New(cfg *config.Config, backend llm.Client, runner exec.CommandRunner, mem *memory.ContextStore, logger *DebugLogger) *Engine {
	if logger == nil {
		logger = NopLogger()
	}
	return &Engine{
		cfg:     cfg,
		backend: backend,
		runner:  runner,
		memory:  mem,
		stats:   NewStats(),
		logger:  logger,
	}
}

// Stats returns the engine's aggregate counters.
func (e *Engine) Stats() Snapshot {
	return e.stats.Snapshot()
}

// Execute runs one task: plan, dispatch, extract, heal, report. Artifacts
// land in a fresh sandbox under the configured workspace root so executions
// never see each other's files. Plan-structure and sandbox-setup failures
// abort the execution; subtask failures are carried in the result instead.
func (e *Engine) Execute(ctx context.Context, task string, taskCtx map[string]string) (*Result, error) {
	if e.cfg.Timeouts.Execution > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeouts.Execution)
		defer cancel()
	}

	validator := security.New()
	task = validator.Sanitize(task)

	var usageBefore llm.Usage
	reporter, metered := e.backend.(llm.UsageReporter)
	if metered {
		usageBefore.InputTokens, usageBefore.OutputTokens = reporter.Tracker().Total()
	}

	execID := "exec-" + uuid.New().String()
	logf := e.logger.Scope(execID)
	sandboxRoot := filepath.Join(e.cfg.Workspace.Root, execID)
	store, err := workspace.NewStore(sandboxRoot)
	if err != nil {
		return nil, fmt.Errorf("create sandbox: %w", err)
	}

	recorder := &Recorder{}
	recorder.Record(EventExecutionStarted, task)
	logf("[engine] executing %q", task)

	taskCtx = e.withRecalledContext(ctx, task, taskCtx, logf)

	p, err := planner.New(e.backend, logf).Plan(ctx, task, taskCtx)
	if err != nil {
		return nil, fmt.Errorf("plan task: %w", err)
	}
	recorder.Record(EventPlanCreated, fmt.Sprintf("%d subtasks", len(p.Subtasks)))
	logf("[engine] plan %s with %d subtasks", p.ID, len(p.Subtasks))

	tracker := plan.NewTracker(p)
	dispatcher := dispatch.New(e.backend, validator, dispatch.Options{
		Level:       security.Level(e.cfg.Security.Level),
		CallTimeout: e.cfg.Timeouts.Subtask,
		Logf:        logf,
	})
	if err := dispatcher.Run(ctx, tracker); err != nil {
		return nil, fmt.Errorf("dispatch subtasks: %w", err)
	}
	counts := tracker.Counts()
	recorder.Record(EventDispatchFinished, formatCounts(counts))

	extraction := e.extractArtifacts(tracker)
	written, rejected := e.writeArtifacts(store, validator, extraction)
	recorder.Record(EventArtifactsExtracted, fmt.Sprintf("%d written, %d rejected", len(written), len(rejected)))
	logf("[engine] %d artifacts written, %d rejected", len(written), len(rejected))
	for _, op := range store.History() {
		if !op.Success {
			logf("[engine] file op %s %s failed", op.Kind, op.Path)
		}
	}

	var healing heal.Result
	if e.cfg.Healing.Enabled {
		healer, err := heal.New(store, e.backend, e.runner, heal.Options{
			MaxAttempts: e.cfg.Healing.MaxAttempts,
			Logf:        logf,
		})
		if err != nil {
			return nil, fmt.Errorf("configure healer: %w", err)
		}
		healing, err = healer.Heal(ctx)
		if err != nil {
			return nil, fmt.Errorf("heal environment: %w", err)
		}
		recorder.Record(EventHealingFinished, fmt.Sprintf("healed=%v after %d attempts", healing.Healed, healing.Attempts))
		e.stats.recordHealing(healing.Healed)
	} else {
		healing.Healed = true
	}

	results := tracker.Results()
	report := finalize.New(e.backend, nil, logf).Consolidate(ctx, task, results)
	recorder.Record(EventExecutionFinished, fmt.Sprintf("quality=%.2f valid=%v", report.QualityScore, report.IsValid))

	e.rememberArtifacts(ctx, execID, store, extraction, logf)

	secEvents := validator.Events()
	fileOps := store.Stats()
	var usage *llm.Usage
	if metered {
		in, out := reporter.Tracker().Total()
		usage = &llm.Usage{
			InputTokens:  in - usageBefore.InputTokens,
			OutputTokens: out - usageBefore.OutputTokens,
		}
		logf("[engine] token usage: %d in, %d out", usage.InputTokens, usage.OutputTokens)
	}
	e.stats.recordExecution(counts, len(written), len(rejected), len(secEvents), fileOps, usage)

	return &Result{
		Task:        task,
		Plan:        p,
		Results:     results,
		Artifacts:   written,
		Rejected:    rejected,
		Security:    secEvents,
		Healing:     healing.History,
		Healed:      healing.Healed,
		Report:      report,
		FileOps:     fileOps,
		Usage:       usage,
		Events:      recorder.Events(),
		SandboxRoot: store.Root(),
	}, nil
}

// extractArtifacts runs the extractor over completed results in
// dependency-completion order, so overwrite-last-wins stays deterministic.
func (e *Engine) extractArtifacts(tracker *plan.Tracker) extract.Result {
	completed := tracker.CompletedInOrder()
	inputs := make([]extract.SubtaskResult, len(completed))
	for i, st := range completed {
		inputs[i] = extract.SubtaskResult{SubtaskID: st.ID, Text: st.Result}
	}
	return extract.New().ExtractAll(inputs)
}

// writeArtifacts stores extracted artifacts, screening each path through the
// validator first. The extractor normalizes paths; the validator catches
// dotted segments and system-directory targets that survive normalization.
func (e *Engine) writeArtifacts(store *workspace.Store, validator *security.Validator, extraction extract.Result) ([]models.ArtifactInfo, []extract.Rejection) {
	rejected := extraction.Rejected

	var written []models.ArtifactInfo
	sizes := make(map[string]int)
	for _, a := range extraction.Artifacts {
		if ok, reason := validator.ValidatePath(a.Path); !ok {
			rejected = append(rejected, extract.Rejection{
				Path:          a.Path,
				Reason:        reason,
				OriginSubtask: a.OriginSubtask,
			})
			continue
		}
		size, err := store.Write(a.Path, a.Content)
		if err != nil {
			rejected = append(rejected, extract.Rejection{
				Path:          a.Path,
				Reason:        err.Error(),
				OriginSubtask: a.OriginSubtask,
			})
			continue
		}
		if _, seen := sizes[a.Path]; !seen {
			written = append(written, models.ArtifactInfo{Path: a.Path})
		}
		sizes[a.Path] = size
	}
	for i := range written {
		written[i].Size = sizes[written[i].Path]
	}
	return written, rejected
}

// withRecalledContext augments the task context with prior indexed work.
func (e *Engine) withRecalledContext(ctx context.Context, task string, taskCtx map[string]string, logf logFunc) map[string]string {
	if e.memory == nil {
		return taskCtx
	}

	entries, err := e.memory.Query(ctx, task, 5)
	if err != nil {
		logf("[engine] context recall failed: %v", err)
		return taskCtx
	}
	if len(entries) == 0 {
		return taskCtx
	}

	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", entry.Path, entry.Text)
	}

	out := make(map[string]string, len(taskCtx)+1)
	for k, v := range taskCtx {
		out[k] = v
	}
	out["related_prior_work"] = b.String()
	return out
}

func (e *Engine) rememberArtifacts(ctx context.Context, execID string, store *workspace.Store, extraction extract.Result, logf logFunc) {
	if e.memory == nil {
		return
	}
	for _, a := range extraction.Artifacts {
		if err := e.memory.Index(ctx, execID+"/"+a.Path, a.Content); err != nil {
			logf("[engine] index artifact %s failed: %v", a.Path, err)
		}
	}
}

func formatCounts(counts map[models.SubtaskStatus]int) string {
	return fmt.Sprintf("completed=%d failed=%d blocked=%d",
		counts[models.SubtaskStatusCompleted],
		counts[models.SubtaskStatusFailed],
		counts[models.SubtaskStatusBlocked])
}
