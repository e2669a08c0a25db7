package main

import (
	"fmt"
	"path/filepath"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/exec"
	"github.com/loomworks/loom/internal/llm"
	"github.com/loomworks/loom/internal/memory"
	"github.com/loomworks/loom/internal/orchestrator"
)

// buildEngine wires an Engine from configuration. The returned cleanup
// closes the context store and debug log.
func buildEngine(cfg *config.Config) (*orchestrator.Engine, func(), error) {
	backend, err := llm.New(llm.Config{
		Provider:      cfg.Provider.Name,
		Model:         cfg.Provider.Model,
		APIKey:        cfg.Provider.APIKey,
		BaseURL:       cfg.Provider.BaseURL,
		UseAWSBedrock: cfg.Provider.UseAWSBedrock,
		AWSRegion:     cfg.Provider.AWSRegion,
		AWSProfile:    cfg.Provider.AWSProfile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("configure backend: %w", err)
	}

	var mem *memory.ContextStore
	if cfg.Memory.Enabled {
		path := cfg.Memory.Path
		if path == "" {
			path = filepath.Join(cfg.Workspace.Root, "context.db")
		}
		mem, err = memory.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open context store: %w", err)
		}
	}

	logger, err := orchestrator.NewDebugLogger(filepath.Join(cfg.Workspace.Root, "logs", "engine-debug.log"))
	if err != nil {
		logger = orchestrator.NopLogger()
	}

	engine := orchestrator.New(cfg, backend, exec.NewRunner(), mem, logger)

	cleanup := func() {
		if mem != nil {
			mem.Close()
		}
		logger.Close()
	}
	return engine, cleanup, nil
}

// loadConfig loads the effective configuration, honoring --config.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}
