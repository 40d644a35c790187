package employee

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhankaladi/ai-employee/internal/core/actionlog"
	"github.com/subhankaladi/ai-employee/internal/core/dashboard"
	"github.com/subhankaladi/ai-employee/internal/core/item"
	"github.com/subhankaladi/ai-employee/internal/core/logging"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// Action log types written by the orchestrator.
const (
	ActionIntake        = "intake_batch"
	ActionUnknownAction = "unknown_action"
	ActionCycleError    = "cycle_error"
)

// CycleResult summarizes one orchestration cycle.
type CycleResult struct {
	Pending          int  // undedup'd Needs_Action items seen
	Handled          int  // intake items handled
	Dispatched       int  // approved items that executed successfully
	Failed           int  // approved items that failed or had no executor
	DashboardUpdated bool // dashboard file was rewritten
}

// Orchestrator drives items through the vault stages. It is single-threaded:
// RunCycle must not be called concurrently.
type Orchestrator struct {
	vault     *vault.Vault
	intake    IntakeProcessor
	executors *Registry
	dedup     *Dedup
	dashboard *dashboard.Synchronizer
	actions   *actionlog.Log
	interval  time.Duration
	now       func() time.Time
	log       zerolog.Logger
	cycles    atomic.Uint64
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock overrides the clock used for artifacts and dashboard timestamps.
func WithClock(clock func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = clock }
}

// WithInterval sets the polling period used by Run.
func WithInterval(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.interval = d }
}

// NewOrchestrator creates an Orchestrator. dash may be nil to skip
// dashboard synchronization.
func NewOrchestrator(
	v *vault.Vault,
	intake IntakeProcessor,
	executors *Registry,
	dedup *Dedup,
	dash *dashboard.Synchronizer,
	actions *actionlog.Log,
	log zerolog.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		vault:     v,
		intake:    intake,
		executors: executors,
		dedup:     dedup,
		dashboard: dash,
		actions:   actions,
		interval:  30 * time.Second,
		now:       time.Now,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Interval returns the polling period.
func (o *Orchestrator) Interval() time.Duration { return o.interval }

// Run executes a cycle immediately and then on every tick or wake signal
// until ctx is cancelled. Cycle failures are logged and never end the loop.
// wake may be nil.
func (o *Orchestrator) Run(ctx context.Context, wake <-chan struct{}) error {
	o.log.Info().
		Str("vault", o.vault.Root()).
		Dur("interval", o.interval).
		Str("intake", o.intake.Name()).
		Msg("orchestrator started")

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	o.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			o.log.Info().Msg("orchestrator stopped")
			return nil
		case <-ticker.C:
			o.cycle(ctx)
		case <-wake:
			o.log.Debug().Msg("woken by file change")
			o.cycle(ctx)
		}
	}
}

func (o *Orchestrator) cycle(ctx context.Context) {
	res, err := o.RunCycle(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.log.Error().Err(err).Msg("cycle failed")
		if logErr := o.actions.Failure(ActionCycleError, err.Error()); logErr != nil {
			o.log.Error().Err(logErr).Msg("write action log")
		}
		return
	}

	if res.Pending > 0 || res.Dispatched > 0 || res.Failed > 0 {
		o.log.Info().
			Int("pending", res.Pending).
			Int("handled", res.Handled).
			Int("dispatched", res.Dispatched).
			Int("failed", res.Failed).
			Bool("dashboard_updated", res.DashboardUpdated).
			Msg("cycle complete")
	}
}

// RunCycle performs one pass: intake, approved dispatch, dashboard sync.
// Every step runs even when an earlier one fails; their errors are joined.
func (o *Orchestrator) RunCycle(ctx context.Context) (res CycleResult, err error) {
	ctx = logging.WithCycle(ctx, o.cycles.Add(1))
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Ctx(ctx).Str("stack", string(debug.Stack())).Msg("cycle panic")
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	if err := o.vault.Ensure(); err != nil {
		return res, err
	}

	var errs []error
	if err := o.processIntake(ctx, &res); err != nil {
		errs = append(errs, fmt.Errorf("intake: %w", err))
	}
	if err := o.processApproved(ctx, &res); err != nil {
		errs = append(errs, fmt.Errorf("approved: %w", err))
	}
	if err := o.syncDashboard(&res); err != nil {
		errs = append(errs, fmt.Errorf("dashboard: %w", err))
	}

	return res, errors.Join(errs...)
}

func (o *Orchestrator) processIntake(ctx context.Context, res *CycleResult) error {
	entries, err := o.vault.List(vault.StageNeedsAction)
	if err != nil {
		return err
	}

	var (
		batch []item.ActionItem
		errs  []error
	)
	for _, e := range entries {
		if o.dedup.Seen(DedupKey(e.Stage, e.Name)) {
			o.log.Debug().Ctx(ctx).Str("item", e.Name).Msg("already handled, skipping")
			continue
		}
		it, err := item.Load(o.vault, e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		batch = append(batch, it)
	}

	res.Pending = len(batch)
	if len(batch) == 0 {
		return errors.Join(errs...)
	}

	o.log.Info().Ctx(ctx).Int("items", len(batch)).Msg("found pending items")

	handled, err := o.intake.Process(ctx, batch)
	if err != nil {
		errs = append(errs, err)
	}
	res.Handled = len(handled)

	if len(handled) > 0 {
		keys := make([]string, 0, len(handled))
		for _, name := range handled {
			keys = append(keys, DedupKey(vault.StageNeedsAction, name))
		}
		if err := o.dedup.Mark(ctx, keys...); err != nil {
			errs = append(errs, err)
		}
		if err := o.actions.Success(ActionIntake, fmt.Sprintf("%s handled %d item(s): %v", o.intake.Name(), len(handled), handled)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (o *Orchestrator) processApproved(ctx context.Context, res *CycleResult) error {
	entries, err := o.vault.List(vault.StageApproved)
	if err != nil {
		return err
	}

	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		key := DedupKey(e.Stage, e.Name)
		if o.dedup.Seen(key) {
			continue
		}

		it, err := item.Load(o.vault, e)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if ok := o.dispatch(ctx, it); ok {
			res.Dispatched++
		} else {
			res.Failed++
		}

		// the key guards the file only while it is still in Approved
		if err := o.dedup.Mark(ctx, key); err != nil {
			errs = append(errs, err)
		}
		archived, err := o.vault.MoveUnique(e.Name, vault.StageApproved, vault.StageDone)
		if err != nil {
			errs = append(errs, fmt.Errorf("archive %s: %w", e.Name, err))
			continue
		}
		o.log.Info().Ctx(ctx).Str("item", e.Name).Str("archived_as", archived).Msg("moved to done")
		if err := o.dedup.Forget(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// dispatch runs the executor for an approved item and records the outcome.
func (o *Orchestrator) dispatch(ctx context.Context, it item.ActionItem) bool {
	action := it.Action()
	ctx = logging.WithItem(ctx, it.Name)
	log := o.log.With().Ctx(ctx).Str("action", action).Logger()

	ex, err := o.executors.Lookup(action)
	if err != nil {
		log.Warn().Msg("no executor for action")
		o.record(actionlog.Entry{
			ActionType: ActionUnknownAction,
			Details:    fmt.Sprintf("%s: %v", it.Name, err),
			Status:     actionlog.StatusFailed,
		})
		return false
	}

	d := Dispatch{
		Item:    it.Name,
		Action:  action,
		To:      it.To(),
		Subject: it.Subject(),
		Body:    it.Reply(),
	}

	if strings.TrimSpace(d.To) == "" {
		log.Warn().Msg("approved item has no recipient")
		o.record(actionlog.Entry{
			ActionType: action,
			Details:    fmt.Sprintf("%s: %v: no recipient in 'to'", it.Name, ErrExecutorFailed),
			Status:     actionlog.StatusFailed,
		})
		return false
	}

	details, err := ex.Execute(ctx, d)
	if err != nil {
		log.Error().Err(err).Msg("executor failed")
		o.record(actionlog.Entry{
			ActionType: action,
			Details:    fmt.Sprintf("%s: %v", it.Name, err),
			Status:     actionlog.StatusFailed,
		})
		return false
	}

	log.Info().Str("to", d.To).Msg("action executed")
	o.record(actionlog.Entry{
		ActionType: action,
		Details:    details,
		Status:     actionlog.StatusSuccess,
	})
	return true
}

func (o *Orchestrator) record(e actionlog.Entry) {
	if err := o.actions.Append(e); err != nil {
		o.log.Error().Err(err).Str("action_type", e.ActionType).Msg("write action log")
	}
}

func (o *Orchestrator) syncDashboard(res *CycleResult) error {
	if o.dashboard == nil {
		return nil
	}

	counts, err := o.vault.Count()
	if err != nil {
		return err
	}

	updated, err := o.dashboard.Sync(counts, o.now())
	if err != nil {
		return err
	}
	res.DashboardUpdated = updated
	return nil
}
