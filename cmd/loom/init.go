package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/loomworks/loom/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration",
	Long: `Checks the environment and writes a commented starter config to the
user config path unless one already exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			printStatus("⚠", "ANTHROPIC_API_KEY not set (required for the anthropic provider)", color.FgYellow)
		} else {
			printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
		}

		configPath := config.GetUserConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			printStatus("✓", fmt.Sprintf("Config already exists at %s", configPath), color.FgGreen)
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(starterConfig), 0600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		printStatus("✓", fmt.Sprintf("Wrote starter config to %s", configPath), color.FgGreen)

		cfg := config.Default()
		if err := os.MkdirAll(cfg.Workspace.Root, 0755); err != nil {
			printStatus("⚠", fmt.Sprintf("Could not create workspace root %s: %v", cfg.Workspace.Root, err), color.FgYellow)
		} else {
			printStatus("✓", fmt.Sprintf("Workspace root ready at %s", cfg.Workspace.Root), color.FgGreen)
		}

		fmt.Printf("\n%s loom initialization complete!\n", color.GreenString("✓"))
		return nil
	},
}

const starterConfig = `# loom configuration
provider:
  name: anthropic        # anthropic or ollama
  model: ""              # empty means the provider default
  api_key: ${ANTHROPIC_API_KEY}
  base_url: ""           # ollama endpoint, e.g. http://localhost:11434

workspace:
  root: ./loom-workspace

healing:
  enabled: true
  max_attempts: 3

security:
  level: medium          # low, medium, high, critical

timeouts:
  subtask: 5m
  execution: 30m

memory:
  enabled: false
  path: ""               # empty means <workspace root>/context.db

server:
  addr: 127.0.0.1:8080
`

func init() {
	rootCmd.AddCommand(initCmd)
}
