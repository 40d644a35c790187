package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ValidateDeep performs comprehensive validation of the configuration
// including file and executable accessibility. The configPath argument
// specifies the config file location to validate (empty string skips the
// config file check). It calls Validate first for structural checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateCommands(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	for name, ex := range c.Executors {
		if ex.SuccessMarker == "" {
			warnings = append(warnings, ValidationWarning{
				Category: "Executors",
				Item:     name,
				Message:  "no success_marker; every run will be treated as failed",
			})
		}
	}

	if len(c.Approval.KnownDomains) == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Approval",
			Message:  "known_domains is empty; every reply will require approval",
		})
	}

	return warnings
}

// validateFileAccess checks the config file and vault directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("vault_path", c.VaultPath, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// validateCommands checks that every external command that will be run
// resolves on PATH.
func (c *Config) validateCommands() error {
	var errs criterio.FieldErrorsBuilder

	if c.UsesAgent() {
		if err := executableExists(c.Agent.Command[0]); err != nil {
			errs = errs.Append("agent.command", err)
		}
	}

	for name, ex := range c.Executors {
		if err := executableExists(ex.Command[0]); err != nil {
			errs = errs.Append(fmt.Sprintf("executors.%s.command", name), err)
		}
	}

	return errs.ToError()
}

func executableExists(path string) error {
	if path == "" {
		return nil
	}
	if _, err := lookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // created by init or run
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
