package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// VaultCheck verifies the stage directories and dashboard exist.
type VaultCheck struct {
	vault         *vault.Vault
	dashboardPath string
	autofix       bool
}

// NewVaultCheck creates a vault layout check. With autofix, missing stage
// directories are created.
func NewVaultCheck(v *vault.Vault, dashboardPath string, autofix bool) *VaultCheck {
	return &VaultCheck{vault: v, dashboardPath: dashboardPath, autofix: autofix}
}

func (c *VaultCheck) Name() string {
	return "Vault"
}

func (c *VaultCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	info, err := os.Stat(c.vault.Root())
	switch {
	case os.IsNotExist(err):
		if !c.autofix {
			result.Items = append(result.Items, CheckItem{
				Label:   c.vault.Root(),
				Status:  StatusFail,
				Detail:  "vault directory does not exist",
				Fixable: true,
			})
			return result
		}
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  c.vault.Root(),
			Status: StatusFail,
			Detail: fmt.Sprintf("inaccessible: %v", err),
		})
		return result
	case !info.IsDir():
		result.Items = append(result.Items, CheckItem{
			Label:  c.vault.Root(),
			Status: StatusFail,
			Detail: "path is not a directory",
		})
		return result
	}

	missing := c.vault.Missing()
	if len(missing) > 0 && c.autofix {
		if err := c.vault.Ensure(); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  "stages",
				Status: StatusFail,
				Detail: fmt.Sprintf("create stage directories: %v", err),
			})
			return result
		}
		for _, stage := range missing {
			result.Items = append(result.Items, CheckItem{
				Label:  stage.Dir(),
				Status: StatusPass,
				Detail: "created",
			})
		}
		missing = nil
	}

	for _, stage := range missing {
		result.Items = append(result.Items, CheckItem{
			Label:   stage.Dir(),
			Status:  StatusWarn,
			Detail:  "stage directory missing",
			Fixable: true,
		})
	}

	if len(missing) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "stages",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d stage directories present", len(vault.Stages)),
		})
	}

	if c.dashboardPath != "" {
		if _, err := os.Stat(c.dashboardPath); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  "dashboard",
				Status: StatusWarn,
				Detail: "not found; sync is skipped until `employee init` creates it",
			})
		} else {
			result.Items = append(result.Items, CheckItem{
				Label:  "dashboard",
				Status: StatusPass,
				Detail: c.dashboardPath,
			})
		}
	}

	return result
}
