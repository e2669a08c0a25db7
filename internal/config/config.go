// Package config handles configuration loading for loom.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for loom.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Healing   HealingConfig   `mapstructure:"healing"`
	Security  SecurityConfig  `mapstructure:"security"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Server    ServerConfig    `mapstructure:"server"`
}

// ProviderConfig holds text-generation backend settings.
type ProviderConfig struct {
	// Name selects the backend: anthropic or ollama.
	Name string `mapstructure:"name"`
	// Model is the model identifier sent to the backend.
	Model string `mapstructure:"model"`
	// APIKey authenticates against hosted providers.
	APIKey string `mapstructure:"api_key"`
	// BaseURL overrides the backend endpoint (ollama).
	BaseURL string `mapstructure:"base_url"`
	// UseAWSBedrock routes anthropic calls through Bedrock.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion selects the Bedrock region.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile selects the AWS credentials profile.
	AWSProfile string `mapstructure:"aws_profile"`
}

// WorkspaceConfig holds sandbox settings.
type WorkspaceConfig struct {
	// Root is the directory under which per-execution sandboxes are created.
	Root string `mapstructure:"root"`
}

// HealingConfig holds environment-healer settings.
type HealingConfig struct {
	// Enabled toggles the healing phase.
	Enabled bool `mapstructure:"enabled"`
	// MaxAttempts is the probe-round budget per execution.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// SecurityConfig holds input-validation settings.
type SecurityConfig struct {
	// Level is the validation strictness: low, medium, high, critical.
	Level string `mapstructure:"level"`
}

// TimeoutsConfig holds per-call timeout settings.
type TimeoutsConfig struct {
	// Subtask bounds each subtask's backend call.
	Subtask time.Duration `mapstructure:"subtask"`
	// Execution bounds a whole task execution.
	Execution time.Duration `mapstructure:"execution"`
}

// MemoryConfig holds context-store settings.
type MemoryConfig struct {
	// Enabled toggles cross-execution context indexing.
	Enabled bool `mapstructure:"enabled"`
	// Path is the SQLite database location. Empty means
	// <workspace root>/context.db.
	Path string `mapstructure:"path"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	// Addr is the listen address for loom serve.
	Addr string `mapstructure:"addr"`
}

// Load loads configuration from XDG paths, project overrides, and environment
// variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, OLLAMA_HOST)
// 2. Project config (.loom.yaml in current directory or parent)
// 3. User config (~/.config/loom/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("provider.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("provider.base_url", "OLLAMA_HOST")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Provider.APIKey = os.ExpandEnv(cfg.Provider.APIKey)
	cfg.Workspace.Root = os.ExpandEnv(cfg.Workspace.Root)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Provider.APIKey = os.ExpandEnv(cfg.Provider.APIKey)
	cfg.Workspace.Root = os.ExpandEnv(cfg.Workspace.Root)

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "anthropic")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.use_aws_bedrock", false)

	v.SetDefault("workspace.root", "./loom-workspace")

	v.SetDefault("healing.enabled", true)
	v.SetDefault("healing.max_attempts", 3)

	v.SetDefault("security.level", "medium")

	v.SetDefault("timeouts.subtask", "5m")
	v.SetDefault("timeouts.execution", "30m")

	v.SetDefault("memory.enabled", false)
	v.SetDefault("memory.path", "")

	v.SetDefault("server.addr", "127.0.0.1:8080")
}

// getUserConfigDir returns the XDG config directory for loom.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "loom")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "loom")
	}
	return filepath.Join(home, ".config", "loom")
}

// findProjectConfig searches for .loom.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".loom.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name: "anthropic",
		},
		Workspace: WorkspaceConfig{
			Root: "./loom-workspace",
		},
		Healing: HealingConfig{
			Enabled:     true,
			MaxAttempts: 3,
		},
		Security: SecurityConfig{
			Level: "medium",
		},
		Timeouts: TimeoutsConfig{
			Subtask:   5 * time.Minute,
			Execution: 30 * time.Minute,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}
