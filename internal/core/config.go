// Package core contains the orchestration engine: the task registry, the
// clone/review runner, the issue triage selector, and the fix workflow.
package core

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/remedy/pkg/models"
)

// ConfigurationManager defines the interface for loading configuration from
// the .remedyconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the root directory where .remedyconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func defaultGlobalConfig(basePath string) *models.GlobalConfig {
	return &models.GlobalConfig{
		WorkDir:        filepath.Join(basePath, "repos"),
		FixerCommand:   "aider",
		FixerModel:     "",
		GitHubTokenEnv: "GITHUB_TOKEN",
		EventLog:       true,
	}
}

// LoadGlobalConfig reads the .remedyconfig file from the base path using
// Viper. If the file does not exist, sensible defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(".remedyconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("work_dir", cfg.WorkDir)
	v.SetDefault("fixer_command", cfg.FixerCommand)
	v.SetDefault("fixer_model", cfg.FixerModel)
	v.SetDefault("github_token_env", cfg.GitHubTokenEnv)
	v.SetDefault("event_log", cfg.EventLog)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found; use defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .remedyconfig: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing .remedyconfig: %w", err)
	}

	if !filepath.IsAbs(cfg.WorkDir) {
		cfg.WorkDir = filepath.Join(cm.basePath, cfg.WorkDir)
	}
	return cfg, nil
}
