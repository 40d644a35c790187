package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhankaladi/ai-employee/internal/core/approval"
	"github.com/subhankaladi/ai-employee/internal/core/artifact"
	"github.com/subhankaladi/ai-employee/internal/core/item"
	"github.com/subhankaladi/ai-employee/internal/core/reply"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// IntakeProcessor handles a batch of Needs_Action items and returns the
// names it fully handled. Names not returned are retried next cycle.
type IntakeProcessor interface {
	Name() string
	Process(ctx context.Context, items []item.ActionItem) ([]string, error)
}

// PlanningProcessor handles each item locally: approval decision, reply
// draft, plan file and, when required, an approval request.
type PlanningProcessor struct {
	vault       *vault.Vault
	policy      *approval.Policy
	drafter     reply.Drafter
	autoExecute bool
	now         func() time.Time
	log         zerolog.Logger
}

// NewPlanningProcessor creates the deterministic intake strategy. With
// autoExecute, replies that need no approval are written straight to
// Approved as action requests.
func NewPlanningProcessor(v *vault.Vault, policy *approval.Policy, drafter reply.Drafter, autoExecute bool, log zerolog.Logger) *PlanningProcessor {
	return &PlanningProcessor{
		vault:       v,
		policy:      policy,
		drafter:     drafter,
		autoExecute: autoExecute,
		now:         time.Now,
		log:         log.With().Str("component", "planning").Logger(),
	}
}

// Name implements IntakeProcessor.
func (p *PlanningProcessor) Name() string { return "planning" }

// Process implements IntakeProcessor. A failing item does not stop the batch.
func (p *PlanningProcessor) Process(ctx context.Context, items []item.ActionItem) ([]string, error) {
	var (
		handled []string
		errs    []error
	)

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.processItem(ctx, it); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", it.Name, err))
			continue
		}
		handled = append(handled, it.Name)
	}

	return handled, errors.Join(errs...)
}

func (p *PlanningProcessor) processItem(ctx context.Context, it item.ActionItem) error {
	now := p.now()
	decision := p.policy.Evaluate(it)

	draft, err := p.drafter.Draft(ctx, it)
	if err != nil {
		return fmt.Errorf("draft reply: %w", err)
	}

	plan := artifact.GeneratePlan(it, decision.NeedsApproval, now)
	if err := p.vault.Write(vault.StagePlan, plan.Name(), plan.Render()); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}

	event := p.log.Info().
		Str("item", it.Name).
		Str("plan", plan.Name()).
		Bool("approval_required", decision.NeedsApproval)

	switch {
	case decision.NeedsApproval:
		req := artifact.NewApprovalRequest(it, draft, decision.Reasons, now)
		name := p.requestName(req)
		if err := p.vault.Write(vault.StagePendingApproval, name, req.Render()); err != nil {
			return fmt.Errorf("write approval request: %w", err)
		}
		event = event.Str("request", name).Strs("reasons", decision.Reasons)
	case p.autoExecute:
		req := artifact.NewActionRequest(it, draft, now)
		name := p.requestName(req)
		if err := p.vault.Write(vault.StageApproved, name, req.Render()); err != nil {
			return fmt.Errorf("write action request: %w", err)
		}
		event = event.Str("request", name)
	}

	event.Msg("item planned")
	return nil
}

// requestStages hold request documents over their lifetime.
var requestStages = []vault.Stage{
	vault.StagePendingApproval,
	vault.StageApproved,
	vault.StageRejected,
	vault.StageDone,
}

// requestName picks a file name for req that no earlier request uses, so two
// items sharing a short id never overwrite or shadow each other's requests.
func (p *PlanningProcessor) requestName(req artifact.Request) string {
	return p.vault.FreeName(req.Name(), requestStages...)
}

// Invoker is the part of the reasoning agent AgentProcessor needs.
type Invoker interface {
	Invoke(ctx context.Context, instruction string) error
}

// AgentProcessor delegates the whole batch to the reasoning agent in a
// single invocation.
type AgentProcessor struct {
	agent Invoker
	log   zerolog.Logger
}

// NewAgentProcessor creates the delegated intake strategy.
func NewAgentProcessor(agent Invoker, log zerolog.Logger) *AgentProcessor {
	return &AgentProcessor{
		agent: agent,
		log:   log.With().Str("component", "agent-intake").Logger(),
	}
}

// Name implements IntakeProcessor.
func (p *AgentProcessor) Name() string { return "agent" }

// Process implements IntakeProcessor. Names are handled only when the agent
// exits successfully; otherwise the whole batch is retried.
func (p *AgentProcessor) Process(ctx context.Context, items []item.ActionItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}

	p.log.Info().Int("items", len(names)).Msg("delegating batch to agent")

	if err := p.agent.Invoke(ctx, BatchInstruction(names)); err != nil {
		return nil, fmt.Errorf("agent batch: %w", err)
	}
	return names, nil
}

// BatchInstruction is the natural-language request handed to the agent for
// a batch of Needs_Action items.
func BatchInstruction(names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I have %d item(s) in /%s that need processing: %s\n\n",
		len(names), vault.StageNeedsAction.Dir(), strings.Join(names, ", "))
	b.WriteString("Please:\n")
	fmt.Fprintf(&b, "1. Read each file in /%s\n", vault.StageNeedsAction.Dir())
	b.WriteString("2. Read the Company_Handbook.md for rules of engagement\n")
	b.WriteString("3. Determine what action needs to be taken\n")
	fmt.Fprintf(&b, "4. Create a plan in /%s if multiple steps are required\n", vault.StagePlan.Dir())
	fmt.Fprintf(&b, "5. For sensitive actions, create an approval request in /%s\n", vault.StagePendingApproval.Dir())
	fmt.Fprintf(&b, "6. For simple actions, proceed and then move files to /%s\n", vault.StageDone.Dir())
	b.WriteString("7. Update the Dashboard.md with the results\n\n")
	b.WriteString("Work through each item systematically.")
	return b.String()
}
