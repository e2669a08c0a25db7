package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Task-graph execution engine over LLM backends",
	Long: `Loom decomposes a task into a dependency graph of subtasks, runs them
against a text-generation backend, extracts file artifacts from the
responses into a per-execution sandbox, and heals broken dependency
manifests before producing a consolidated report.

Core capabilities:
- Plans tasks into dependency-ordered subtasks with cycle rejection
- Dispatches subtasks sequentially, blocking dependents of failures
- Extracts labeled files, markup assets, and bare code blocks
- Probes and patches dependency manifests with a bounded retry budget`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
