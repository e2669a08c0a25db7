package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/loomworks/loom/internal/orchestrator"
	"github.com/loomworks/loom/pkg/models"
)

var (
	runConfigPath string
	runContext    []string
)

var runCmd = &cobra.Command{
	Use:   "run \"task description\"",
	Short: "Execute a task end to end",
	Long: `Plans the task, runs its subtasks against the configured backend,
extracts file artifacts into a fresh sandbox, heals dependency manifests,
and prints the consolidated report.

Context values can be passed with repeated --context key=value flags.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(runConfigPath)
		if err != nil {
			return err
		}

		engine, cleanup, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		taskCtx, err := parseContextFlags(runContext)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := engine.Execute(ctx, args[0], taskCtx)
		if err != nil {
			return err
		}

		displayResult(result)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to a config file (overrides discovery)")
	runCmd.Flags().StringArrayVar(&runContext, "context", nil, "Additional context as key=value (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func parseContextFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --context value %q, want key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}

func displayResult(result *orchestrator.Result) {
	bold := color.New(color.Bold)

	bold.Println("\nPlan")
	for _, st := range result.Plan.Subtasks {
		symbol, attr := statusDisplay(st.Status)
		deps := ""
		if len(st.Dependencies) > 0 {
			deps = fmt.Sprintf(" (after %s)", strings.Join(st.Dependencies, ", "))
		}
		printStatus(symbol, fmt.Sprintf("%s: %s%s", st.ID, st.Description, deps), attr)
	}

	if len(result.Artifacts) > 0 {
		bold.Println("\nArtifacts")
		for _, a := range result.Artifacts {
			printStatus("✓", fmt.Sprintf("%s (%d bytes)", a.Path, a.Size), color.FgGreen)
		}
	}
	for _, rej := range result.Rejected {
		printStatus("✗", fmt.Sprintf("%s rejected: %s", rej.Path, rej.Reason), color.FgRed)
	}

	if len(result.Security) > 0 {
		bold.Println("\nSecurity")
		for _, ev := range result.Security {
			printStatus("⊘", fmt.Sprintf("%s: %s", ev.Kind, ev.Reason), color.FgYellow)
		}
	}

	if len(result.Healing) > 0 {
		bold.Println("\nHealing")
		for _, h := range result.Healing {
			symbol, attr := "✗", color.FgRed
			if h.Patched {
				symbol, attr = "✓", color.FgGreen
			}
			printStatus(symbol, fmt.Sprintf("attempt %d: %s", h.Attempt, h.ManifestPath), attr)
		}
		if !result.Healed {
			printStatus("⚠", "healing budget exhausted with residual failures", color.FgYellow)
		}
	}

	bold.Println("\nReport")
	fmt.Println(result.Report.Summary)
	scoreAttr := color.FgGreen
	if result.Report.QualityScore < 0.7 {
		scoreAttr = color.FgYellow
	}
	if !result.Report.IsValid {
		scoreAttr = color.FgRed
	}
	printStatus("•", fmt.Sprintf("quality %.2f, valid=%v", result.Report.QualityScore, result.Report.IsValid), scoreAttr)
	for _, issue := range result.Report.Issues {
		printStatus("✗", issue, color.FgRed)
	}
	for _, rec := range result.Report.Recommendations {
		printStatus("→", rec, color.FgCyan)
	}

	fmt.Println()
	if result.Usage != nil {
		fmt.Printf("Tokens: %d in, %d out\n", result.Usage.InputTokens, result.Usage.OutputTokens)
	}
	fmt.Printf("Sandbox: %s\n", result.SandboxRoot)
}

func statusDisplay(status models.SubtaskStatus) (string, color.Attribute) {
	switch status {
	case models.SubtaskStatusCompleted:
		return "✓", color.FgGreen
	case models.SubtaskStatusFailed:
		return "✗", color.FgRed
	case models.SubtaskStatusBlocked:
		return "⊘", color.FgYellow
	default:
		return "•", color.FgWhite
	}
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
