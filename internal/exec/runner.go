// Package exec provides an interface for running external commands, used by
// the environment healer's install probes. The abstraction allows mocking
// probe execution in tests.
package exec

import (
	"context"
	"os/exec"
)

// CommandRunner runs external commands and captures their combined output.
type CommandRunner interface {
	// Run executes a command with the working directory set to workDir
	// (when non-empty) and returns combined stdout/stderr output. A
	// non-zero exit status is returned as an error alongside the output.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)
}

// Runner implements CommandRunner using os/exec.
type Runner struct{}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes a command and returns combined stdout/stderr output.
func (r *Runner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.CombinedOutput()
}

var _ CommandRunner = (*Runner)(nil)
