package employee

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/subhankaladi/ai-employee/internal/core/actionlog"
	"github.com/subhankaladi/ai-employee/internal/core/item"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// Action log types written for human decisions.
const (
	ActionApprovalGranted  = "approval_granted"
	ActionApprovalRejected = "approval_rejected"
)

// HumanActor is recorded on entries for decisions made through the CLI.
const HumanActor = "human"

// ApprovalService performs the human side of the approval gate: moving a
// pending request to Approved or Rejected.
type ApprovalService struct {
	vault   *vault.Vault
	actions *actionlog.Log
	log     zerolog.Logger
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(v *vault.Vault, actions *actionlog.Log, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{
		vault:   v,
		actions: actions,
		log:     log.With().Str("component", "approvals").Logger(),
	}
}

// Pending returns the requests awaiting a decision, oldest first.
func (s *ApprovalService) Pending() ([]item.ActionItem, error) {
	entries, err := s.vault.List(vault.StagePendingApproval)
	if err != nil {
		return nil, err
	}

	items := make([]item.ActionItem, 0, len(entries))
	for _, e := range entries {
		it, err := item.Load(s.vault, e)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Approve moves a pending request to Approved, where the orchestrator picks
// it up on its next cycle.
func (s *ApprovalService) Approve(name string) error {
	return s.decide(name, vault.StageApproved, ActionApprovalGranted)
}

// Reject moves a pending request to Rejected.
func (s *ApprovalService) Reject(name string) error {
	return s.decide(name, vault.StageRejected, ActionApprovalRejected)
}

func (s *ApprovalService) decide(name string, to vault.Stage, actionType string) error {
	if err := s.vault.Move(name, vault.StagePendingApproval, to); err != nil {
		return fmt.Errorf("move %s to %s: %w", name, to.Dir(), err)
	}

	s.log.Info().Str("item", name).Str("stage", to.Dir()).Msg("approval decided")

	return s.actions.Append(actionlog.Entry{
		ActionType: actionType,
		Actor:      HumanActor,
		Details:    name,
		Status:     actionlog.StatusSuccess,
	})
}
