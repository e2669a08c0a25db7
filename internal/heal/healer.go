// Package heal probes project-setup manifests for installability and runs a
// bounded repair loop against the backend for the ones that fail.
package heal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/loomworks/loom/internal/exec"
	"github.com/loomworks/loom/internal/extract"
	"github.com/loomworks/loom/internal/llm"
	"github.com/loomworks/loom/internal/workspace"
	"github.com/loomworks/loom/pkg/models"
)

// maxErrorText caps captured probe output embedded into repair prompts.
const maxErrorText = 4000

// Result is the outcome of one healing run.
type Result struct {
	// Attempts is the number of probe rounds performed.
	Attempts int `json:"attempts"`
	// History is the ordered audit trail of per-manifest repair attempts.
	History []models.HealingAttempt `json:"history"`
	// Healed is true when the final probe round found no failures; false
	// means the attempt budget was exhausted with residual failures.
	Healed bool `json:"healed"`
}

// Healer drives the probe/patch loop over a sandboxed file tree.
type Healer struct {
	store     *workspace.Store
	backend   llm.Client
	runner    exec.CommandRunner
	extractor *extract.Extractor
	rules     []ManifestRule

	maxAttempts int
	logf        func(format string, args ...interface{})
}

// Options configures a Healer.
type Options struct {
	// MaxAttempts is the probe-round budget. Zero means 3.
	MaxAttempts int
	// Rules overrides the built-in manifest recognition table.
	Rules []ManifestRule
	// Logf receives debug log lines. Nil means no logging.
	Logf func(format string, args ...interface{})
}

// New creates a Healer over the given sandbox store.
func New(store *workspace.Store, backend llm.Client, runner exec.CommandRunner, opts Options) (*Healer, error) {
	rules := opts.Rules
	if rules == nil {
		var err error
		rules, err = DefaultRules()
		if err != nil {
			return nil, err
		}
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	return &Healer{
		store:       store,
		backend:     backend,
		runner:      runner,
		extractor:   extract.New(),
		rules:       rules,
		maxAttempts: maxAttempts,
		logf:        logf,
	}, nil
}

type probeFailure struct {
	manifestPath string // sandbox-relative
	errText      string
}

// Heal runs the probe/patch loop. The returned Result carries the full
// attempt history whether or not healing succeeded; only internal errors
// (e.g. an unreadable file tree) are returned as errors.
func (h *Healer) Heal(ctx context.Context) (Result, error) {
	var res Result

	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		res.Attempts = attempt

		failures, err := h.probe(ctx)
		if err != nil {
			return res, err
		}
		if len(failures) == 0 {
			res.Healed = true
			h.logf("[heal] attempt %d: all manifests install cleanly", attempt)
			return res, nil
		}

		for _, f := range failures {
			patched := h.patch(ctx, f)
			res.History = append(res.History, models.HealingAttempt{
				Attempt:      attempt,
				ManifestPath: f.manifestPath,
				ErrorText:    f.errText,
				Patched:      patched,
			})
			h.logf("[heal] attempt %d: manifest %s patched=%v", attempt, f.manifestPath, patched)
		}
	}

	h.logf("[heal] attempt budget exhausted with %d recorded attempts", len(res.History))
	return res, nil
}

// probe scans the sandbox for recognized manifests and runs each install
// probe in the manifest's own directory.
func (h *Healer) probe(ctx context.Context) ([]probeFailure, error) {
	var manifests []struct {
		rel  string
		rule ManifestRule
	}

	skip := h.excludedDirs()
	err := h.store.Walk(skip, func(rel string) error {
		base := filepath.Base(rel)
		for _, rule := range h.rules {
			if base == rule.Filename {
				manifests = append(manifests, struct {
					rel  string
					rule ManifestRule
				}{rel, rule})
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan file tree: %w", err)
	}

	var failures []probeFailure
	for _, m := range manifests {
		workDir := filepath.Join(h.store.Root(), filepath.FromSlash(filepath.Dir(m.rel)))
		out, err := h.runner.Run(ctx, workDir, m.rule.Probe[0], m.rule.Probe[1:]...)
		if err != nil {
			errText := strings.TrimSpace(string(out))
			if errText == "" {
				errText = err.Error()
			} else {
				errText = errText + "\n" + err.Error()
			}
			if len(errText) > maxErrorText {
				errText = errText[:maxErrorText]
			}
			failures = append(failures, probeFailure{manifestPath: m.rel, errText: errText})
		}
	}
	return failures, nil
}

func (h *Healer) excludedDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, rule := range h.rules {
		for _, d := range rule.Exclude {
			if !seen[d] {
				seen[d] = true
				dirs = append(dirs, d)
			}
		}
	}
	return dirs
}

// patch asks the backend for a corrected manifest using the labeled-file
// protocol, extracts the reply, and overwrites the corresponding file(s).
// Returns true when at least one replacement file was applied.
func (h *Healer) patch(ctx context.Context, f probeFailure) bool {
	prompt := repairPrompt(f.manifestPath, f.errText)

	resp, err := h.backend.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are an expert build engineer. Fix broken dependency manifests."},
		{Role: "user", Content: prompt},
	}, llm.Options{Temperature: 0.3})
	if err != nil {
		h.logf("[heal] patch request for %s failed: %v", f.manifestPath, err)
		return false
	}

	extraction := h.extractor.Extract("healer", resp.Content)
	for _, rej := range extraction.Rejected {
		h.logf("[heal] rejected patch artifact %s: %s", rej.Path, rej.Reason)
	}

	applied := false
	for _, a := range extraction.Artifacts {
		if _, err := h.store.Write(a.Path, a.Content); err != nil {
			h.logf("[heal] write patch %s failed: %v", a.Path, err)
			continue
		}
		applied = true
	}
	return applied
}

func repairPrompt(manifestPath, errText string) string {
	return fmt.Sprintf(`The dependency manifest %s fails to install.

Install error:
%s

Return a corrected replacement for the manifest. Use exactly this format and no other text:

### FILE: %s
`+"```"+`
<complete corrected file content>
`+"```", manifestPath, errText, manifestPath)
}
