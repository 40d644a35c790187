package employee

import (
	"context"
	"slices"

	"github.com/subhankaladi/ai-employee/internal/core/config"
	"github.com/subhankaladi/ai-employee/internal/core/doctor"
	"github.com/subhankaladi/ai-employee/internal/core/lock"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// DoctorService runs health checks on the employee setup.
type DoctorService struct {
	config *config.Config
	vault  *vault.Vault
	lock   *lock.Lock
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(cfg *config.Config, v *vault.Vault, l *lock.Lock) *DoctorService {
	return &DoctorService{
		config: cfg,
		vault:  v,
		lock:   l,
	}
}

// RunChecks executes all doctor checks and returns results.
func (d *DoctorService) RunChecks(ctx context.Context, configPath string, autofix bool) []doctor.Result {
	checks := []doctor.Check{
		doctor.NewConfigCheck(d.config, configPath),
		doctor.NewVaultCheck(d.vault, d.config.DashboardPath(), autofix),
		doctor.NewToolsCheck(d.tools()),
		doctor.NewLockCheck(d.lock),
	}
	return doctor.RunAll(ctx, checks)
}

// tools lists the external programs the current configuration will run.
func (d *DoctorService) tools() []doctor.Tool {
	var tools []doctor.Tool
	if d.config.UsesAgent() && len(d.config.Agent.Command) > 0 {
		tools = append(tools, doctor.Tool{
			Name:    "agent",
			Command: d.config.Agent.Command[0],
			Purpose: "reasoning agent",
		})
	}
	for _, action := range sortedKeys(d.config.Executors) {
		ex := d.config.Executors[action]
		if len(ex.Command) == 0 {
			continue
		}
		tools = append(tools, doctor.Tool{
			Name:    action,
			Command: ex.Command[0],
			Purpose: "executor",
		})
	}
	return tools
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
