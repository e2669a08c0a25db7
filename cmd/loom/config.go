package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomworks/loom/internal/config"
)

var configShowPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configShowPath)
		if err != nil {
			return err
		}

		fmt.Printf("user config: %s\n\n", config.GetUserConfigPath())
		fmt.Printf("provider.name        = %s\n", cfg.Provider.Name)
		fmt.Printf("provider.model       = %s\n", cfg.Provider.Model)
		fmt.Printf("provider.api_key     = %s\n", maskKey(cfg.Provider.APIKey))
		fmt.Printf("provider.base_url    = %s\n", cfg.Provider.BaseURL)
		fmt.Printf("workspace.root       = %s\n", cfg.Workspace.Root)
		fmt.Printf("healing.enabled      = %v\n", cfg.Healing.Enabled)
		fmt.Printf("healing.max_attempts = %d\n", cfg.Healing.MaxAttempts)
		fmt.Printf("security.level       = %s\n", cfg.Security.Level)
		fmt.Printf("timeouts.subtask     = %s\n", cfg.Timeouts.Subtask)
		fmt.Printf("timeouts.execution   = %s\n", cfg.Timeouts.Execution)
		fmt.Printf("memory.enabled       = %v\n", cfg.Memory.Enabled)
		fmt.Printf("server.addr          = %s\n", cfg.Server.Addr)
		return nil
	},
}

func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func init() {
	configCmd.Flags().StringVar(&configShowPath, "config", "", "Path to a config file (overrides discovery)")
	rootCmd.AddCommand(configCmd)
}
