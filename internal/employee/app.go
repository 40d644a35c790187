// Package employee wires the vault, intake strategies, executors and
// dashboard into the services the CLI runs.
package employee

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhankaladi/ai-employee/internal/core/actionlog"
	"github.com/subhankaladi/ai-employee/internal/core/agent"
	"github.com/subhankaladi/ai-employee/internal/core/approval"
	"github.com/subhankaladi/ai-employee/internal/core/config"
	"github.com/subhankaladi/ai-employee/internal/core/dashboard"
	"github.com/subhankaladi/ai-employee/internal/core/lock"
	"github.com/subhankaladi/ai-employee/internal/core/reply"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
	"github.com/subhankaladi/ai-employee/internal/store/jsonfile"
	"github.com/subhankaladi/ai-employee/pkg/executil"
)

// App is the central entry point for all employee operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Config    *config.Config
	Vault     *vault.Vault
	Actions   *actionlog.Log
	Agent     *agent.Agent
	Executors *Registry
	Dedup     *Dedup
	Dashboard *dashboard.Synchronizer
	Lock      *lock.Lock
	Approvals *ApprovalService
	Doctor    *DoctorService

	exec executil.Executor
	log  zerolog.Logger
}

// NewApp constructs an App from configuration.
func NewApp(cfg *config.Config, exec executil.Executor, log zerolog.Logger) (*App, error) {
	root, err := filepath.Abs(cfg.VaultPath)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	cfg.VaultPath = root

	v := vault.New(root, vault.WithPattern(cfg.ItemPattern))
	actions := actionlog.New(v.LogsPath())

	var store *jsonfile.DedupStore
	if cfg.PersistDedup() {
		store = jsonfile.NewDedupStore(cfg.DedupPath())
	}

	rows := make([]dashboard.Row, 0, len(cfg.Dashboard.Rows))
	for _, r := range cfg.Dashboard.Rows {
		stage, err := vault.ParseStage(r.Stage)
		if err != nil {
			return nil, fmt.Errorf("dashboard row %q: %w", r.Label, err)
		}
		rows = append(rows, dashboard.Row{Label: r.Label, Stage: stage})
	}

	registry := NewRegistry()
	for action, ex := range cfg.Executors {
		registry.Register(action, NewCommandExecutor(exec, ex.Command, ex.SuccessMarker, ex.Timeout, root))
	}

	l := lock.New(cfg.LockPath())

	return &App{
		Config:    cfg,
		Vault:     v,
		Actions:   actions,
		Agent:     agent.New(exec, cfg.Agent.Command, root, cfg.Agent.Timeout, log),
		Executors: registry,
		Dedup:     NewDedup(store, log),
		Dashboard: dashboard.New(cfg.DashboardPath(), rows),
		Lock:      l,
		Approvals: NewApprovalService(v, actions, log),
		Doctor:    NewDoctorService(cfg, v, l),
		exec:      exec,
		log:       log,
	}, nil
}

// Drafter returns the reply drafter selected by intake.drafting.
func (a *App) Drafter() reply.Drafter {
	if a.Config.Intake.Drafting == config.DraftingAgent {
		return reply.NewAgentDrafter(a.Agent, reply.Templates{}, a.log)
	}
	return reply.Templates{}
}

// Intake returns the intake strategy selected by intake.strategy.
func (a *App) Intake() (IntakeProcessor, error) {
	switch a.Config.Intake.Strategy {
	case config.StrategyPlanning:
		policy := approval.NewPolicy(a.Config.Approval.KnownDomains, a.Config.Approval.SensitiveKeywords)
		return NewPlanningProcessor(a.Vault, policy, a.Drafter(), a.Config.Intake.AutoExecute, a.log), nil
	case config.StrategyAgent:
		return NewAgentProcessor(a.Agent, a.log), nil
	default:
		return nil, fmt.Errorf("unknown intake strategy %q", a.Config.Intake.Strategy)
	}
}

// Orchestrator builds the orchestration loop from the current configuration.
func (a *App) Orchestrator(opts ...OrchestratorOption) (*Orchestrator, error) {
	intake, err := a.Intake()
	if err != nil {
		return nil, err
	}

	opts = append([]OrchestratorOption{WithInterval(a.Config.Interval)}, opts...)
	return NewOrchestrator(a.Vault, intake, a.Executors, a.Dedup, a.Dashboard, a.Actions, a.log, opts...), nil
}

// Watcher creates the wake watcher over the stages the orchestrator scans.
func (a *App) Watcher() (*WakeWatcher, error) {
	return NewWakeWatcher(a.Vault, []vault.Stage{vault.StageNeedsAction, vault.StageApproved}, a.log)
}

// SyncDashboard refreshes the dashboard counters from the vault.
func (a *App) SyncDashboard(now time.Time) (bool, error) {
	counts, err := a.Vault.Count()
	if err != nil {
		return false, err
	}
	return a.Dashboard.Sync(dashboard.Counts(counts), now)
}
