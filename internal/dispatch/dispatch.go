// Package dispatch runs eligible subtasks against the text-generation
// backend, one at a time, until the plan has nothing left to run.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loomworks/loom/internal/llm"
	"github.com/loomworks/loom/internal/plan"
	"github.com/loomworks/loom/internal/security"
	"github.com/loomworks/loom/pkg/models"
)

// kindPrompts maps a subtask kind to the system prompt sent with it.
// Unknown kinds fall back to the general prompt.
var kindPrompts = map[models.SubtaskKind]string{
	models.KindGeneral:  "You are a capable assistant. Complete the task thoroughly and concretely.",
	models.KindFetch:    "You are a research assistant. Gather and summarize the requested information accurately.",
	models.KindCoding:   "You are an expert software engineer. Write complete, working code.",
	models.KindAnalysis: "You are an analyst. Examine the input carefully and report findings with evidence.",
	models.KindTesting:  "You are a test engineer. Write thorough tests that exercise edge cases.",
}

const fileProtocolInstruction = `When your answer includes files, emit each one as:

### FILE: relative/path/to/file
` + "```" + `
<file content>
` + "```"

// Dispatcher executes a plan's subtasks against the backend.
type Dispatcher struct {
	backend     llm.Client
	validator   *security.Validator
	level       security.Level
	temperature float64
	callTimeout time.Duration
	logf        func(format string, args ...interface{})
}

// Options configures a Dispatcher.
type Options struct {
	// Level is the input-validation strictness. Empty means medium.
	Level security.Level
	// CallTimeout bounds each backend call. Zero means no per-call bound.
	CallTimeout time.Duration
	// Logf receives debug log lines. Nil means no logging.
	Logf func(format string, args ...interface{})
}

// New creates a Dispatcher.
func New(backend llm.Client, validator *security.Validator, opts Options) *Dispatcher {
	level := opts.Level
	if level == "" {
		level = security.LevelMedium
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Dispatcher{
		backend:     backend,
		validator:   validator,
		level:       level,
		temperature: 0.7,
		callTimeout: opts.CallTimeout,
		logf:        logf,
	}
}

// Run drains the tracker: while the plan still has runnable subtasks it
// takes the first eligible one and executes it. Transport failures and
// security rejections mark individual subtasks failed without aborting the
// run; only context cancellation aborts early.
func (d *Dispatcher) Run(ctx context.Context, tracker *plan.Tracker) error {
	for tracker.HasRunnable() {
		if err := ctx.Err(); err != nil {
			return err
		}

		eligible := tracker.Eligible()
		if len(eligible) == 0 {
			return nil
		}

		d.execute(ctx, tracker, eligible[0])
	}
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, tracker *plan.Tracker, st *models.Subtask) {
	if ok, reason := d.validator.ValidateInput(st.Description, d.level); !ok {
		d.logf("[dispatch] %s rejected by validator: %s", st.ID, reason)
		tracker.Fail(st.ID, "Blocked: "+reason)
		return
	}

	tracker.Start(st.ID)
	d.logf("[dispatch] %s started (%s)", st.ID, st.Kind)

	callCtx := ctx
	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}

	resp, err := d.backend.Chat(callCtx, []llm.Message{
		{Role: "system", Content: systemPromptFor(st.Kind)},
		{Role: "user", Content: buildPrompt(st)},
	}, llm.Options{Temperature: d.temperature})
	if err != nil {
		d.logf("[dispatch] %s failed: %v", st.ID, err)
		tracker.Fail(st.ID, err.Error())
		return
	}

	tracker.Complete(st.ID, resp.Content)
	d.logf("[dispatch] %s completed (%d chars)", st.ID, len(resp.Content))
}

func systemPromptFor(kind models.SubtaskKind) string {
	if p, ok := kindPrompts[kind]; ok {
		return p
	}
	return kindPrompts[models.KindGeneral]
}

func buildPrompt(st *models.Subtask) string {
	var b strings.Builder
	b.WriteString(st.Description)
	if st.RequiredOutput != "" {
		fmt.Fprintf(&b, "\n\nRequired output: %s", st.RequiredOutput)
	}
	b.WriteString("\n\n")
	b.WriteString(fileProtocolInstruction)
	return b.String()
}
