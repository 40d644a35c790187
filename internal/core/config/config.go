// Package config handles configuration loading and validation for employee.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/subhankaladi/ai-employee/internal/core/approval"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// Intake strategies.
const (
	StrategyPlanning = "planning"
	StrategyAgent    = "agent"
)

// Drafting modes.
const (
	DraftingTemplates = "templates"
	DraftingAgent     = "agent"
)

// StateDir holds engine state inside the vault.
const StateDir = ".employee"

// Config holds the application configuration.
type Config struct {
	VaultPath   string                    `yaml:"vault_path"`
	Interval    time.Duration             `yaml:"interval"`
	ItemPattern string                    `yaml:"item_pattern"`
	Watch       bool                      `yaml:"watch"`
	Intake      IntakeConfig              `yaml:"intake"`
	Approval    ApprovalConfig            `yaml:"approval"`
	Agent       AgentConfig               `yaml:"agent"`
	Executors   map[string]ExecutorConfig `yaml:"executors"`
	Dashboard   DashboardConfig           `yaml:"dashboard"`
	Dedup       DedupConfig               `yaml:"dedup"`
}

// IntakeConfig selects how Needs_Action items are handled.
type IntakeConfig struct {
	Strategy    string `yaml:"strategy"`     // planning or agent
	Drafting    string `yaml:"drafting"`     // templates or agent
	AutoExecute bool   `yaml:"auto_execute"` // unflagged items go straight to Approved
}

// ApprovalConfig parameterizes the approval policy.
type ApprovalConfig struct {
	KnownDomains      []string `yaml:"known_domains"`
	SensitiveKeywords []string `yaml:"sensitive_keywords"`
}

// AgentConfig describes the reasoning agent CLI.
type AgentConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// ExecutorConfig describes an external command that carries out an approved action.
type ExecutorConfig struct {
	Command       []string      `yaml:"command"`
	SuccessMarker string        `yaml:"success_marker"`
	Timeout       time.Duration `yaml:"timeout"`
}

// DashboardConfig controls dashboard synchronization.
type DashboardConfig struct {
	File string         `yaml:"file"`
	Rows []DashboardRow `yaml:"rows"`
}

// DashboardRow maps a dashboard table label to the stage it counts.
type DashboardRow struct {
	Label string `yaml:"label"`
	Stage string `yaml:"stage"`
}

// DedupConfig controls the processed-item index.
type DedupConfig struct {
	Persist *bool  `yaml:"persist"`
	File    string `yaml:"file"` // relative paths resolve against the vault
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	persist := true
	return Config{
		VaultPath:   "AI_Employee_Vault",
		Interval:    30 * time.Second,
		ItemPattern: vault.DefaultPattern,
		Intake: IntakeConfig{
			Strategy: StrategyPlanning,
			Drafting: DraftingTemplates,
		},
		Approval: ApprovalConfig{
			KnownDomains:      append([]string(nil), approval.DefaultKnownDomains...),
			SensitiveKeywords: append([]string(nil), approval.DefaultSensitiveKeywords...),
		},
		Agent: AgentConfig{
			Command: []string{"qwen"},
			Timeout: 300 * time.Second,
		},
		Executors: map[string]ExecutorConfig{
			"email_send": {
				Command:       []string{"send-email"},
				SuccessMarker: "Email sent",
				Timeout:       60 * time.Second,
			},
		},
		Dashboard: DashboardConfig{
			File: "Dashboard.md",
			Rows: []DashboardRow{
				{Label: "Pending Items", Stage: string(vault.StageNeedsAction)},
				{Label: "Awaiting Approval", Stage: string(vault.StagePendingApproval)},
			},
		},
		Dedup: DedupConfig{
			Persist: &persist,
			File:    filepath.Join(StateDir, "dedup.json"),
		},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, defaults are used. A non-empty vaultOverride replaces
// vault_path.
func Load(configPath, vaultOverride string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if vaultOverride != "" {
		cfg.VaultPath = vaultOverride
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Interval == 0 {
		c.Interval = defaults.Interval
	}
	if c.ItemPattern == "" {
		c.ItemPattern = defaults.ItemPattern
	}
	if c.Intake.Strategy == "" {
		c.Intake.Strategy = defaults.Intake.Strategy
	}
	if c.Intake.Drafting == "" {
		c.Intake.Drafting = defaults.Intake.Drafting
	}
	if len(c.Agent.Command) == 0 {
		c.Agent.Command = defaults.Agent.Command
	}
	if c.Agent.Timeout == 0 {
		c.Agent.Timeout = defaults.Agent.Timeout
	}
	for name, ex := range c.Executors {
		if ex.Timeout == 0 {
			ex.Timeout = defaults.Executors["email_send"].Timeout
			c.Executors[name] = ex
		}
	}
	if c.Dashboard.File == "" {
		c.Dashboard.File = defaults.Dashboard.File
	}
	if c.Dedup.Persist == nil {
		c.Dedup.Persist = defaults.Dedup.Persist
	}
	if c.Dedup.File == "" {
		c.Dedup.File = defaults.Dedup.File
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.VaultPath == "" {
		return fmt.Errorf("vault_path cannot be empty")
	}

	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	if !doublestar.ValidatePattern(c.ItemPattern) {
		return fmt.Errorf("item_pattern %q is not a valid glob", c.ItemPattern)
	}

	switch c.Intake.Strategy {
	case StrategyPlanning, StrategyAgent:
	default:
		return fmt.Errorf("intake.strategy must be %q or %q, got %q", StrategyPlanning, StrategyAgent, c.Intake.Strategy)
	}

	switch c.Intake.Drafting {
	case DraftingTemplates, DraftingAgent:
	default:
		return fmt.Errorf("intake.drafting must be %q or %q, got %q", DraftingTemplates, DraftingAgent, c.Intake.Drafting)
	}

	if c.Agent.Timeout < 0 {
		return fmt.Errorf("agent.timeout cannot be negative")
	}

	for name, ex := range c.Executors {
		if name == "" {
			return fmt.Errorf("executors: action name cannot be empty")
		}
		if len(ex.Command) == 0 || ex.Command[0] == "" {
			return fmt.Errorf("executors.%s.command cannot be empty", name)
		}
		if ex.Timeout < 0 {
			return fmt.Errorf("executors.%s.timeout cannot be negative", name)
		}
	}

	for i, row := range c.Dashboard.Rows {
		if row.Label == "" {
			return fmt.Errorf("dashboard.rows[%d].label cannot be empty", i)
		}
		if _, err := vault.ParseStage(row.Stage); err != nil {
			return fmt.Errorf("dashboard.rows[%d].stage: %w", i, err)
		}
	}

	return nil
}

// PersistDedup reports whether the processed-item index is saved to disk.
func (c *Config) PersistDedup() bool {
	return c.Dedup.Persist == nil || *c.Dedup.Persist
}

// DedupPath returns the absolute location of the processed-item index.
func (c *Config) DedupPath() string {
	if filepath.IsAbs(c.Dedup.File) {
		return c.Dedup.File
	}
	return filepath.Join(c.VaultPath, c.Dedup.File)
}

// DashboardPath returns the dashboard file location.
func (c *Config) DashboardPath() string {
	if filepath.IsAbs(c.Dashboard.File) {
		return c.Dashboard.File
	}
	return filepath.Join(c.VaultPath, c.Dashboard.File)
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.VaultPath, StateDir, "run.lock")
}

// UsesAgent reports whether any configured path invokes the reasoning agent.
func (c *Config) UsesAgent() bool {
	return c.Intake.Strategy == StrategyAgent || c.Intake.Drafting == DraftingAgent
}
