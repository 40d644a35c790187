package employee

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhankaladi/ai-employee/internal/core/actionlog"
	"github.com/subhankaladi/ai-employee/internal/core/approval"
	"github.com/subhankaladi/ai-employee/internal/core/dashboard"
	"github.com/subhankaladi/ai-employee/internal/core/frontmatter"
	"github.com/subhankaladi/ai-employee/internal/core/item"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

func TestRunCycle_ExternalInvoiceNeedsApproval(t *testing.T) {
	h := newHarness(t, nil)
	h.put(t, vault.StageNeedsAction, "EMAIL_1.md", email("someone@external.com", "Invoice #4", "Please confirm the payment date."))

	res, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pending)
	assert.Equal(t, 1, res.Handled)

	plan, err := h.vault.Read(vault.StagePlan, "PLAN_email_abc123de.md")
	require.NoError(t, err)
	doc := frontmatter.Parse(plan)
	assert.Equal(t, "true", doc.Header.Get("approval_required", ""))

	content, err := h.vault.Read(vault.StagePendingApproval, "APPROVAL_email_reply_abc123de.md")
	require.NoError(t, err)
	req := frontmatter.Parse(content)
	assert.Equal(t, "email_send", req.Header.Get("action", ""))
	assert.Equal(t, "approval_request", req.Header.Get("type", ""))
	assert.Equal(t, "pending", req.Header.Get("status", ""))
	assert.Contains(t, req.Section("Suggested Reply"), "Thank you for your inquiry regarding the invoice.")

	assert.Equal(t, []string{"EMAIL_1.md"}, h.names(t, vault.StageNeedsAction), "needs action is never moved")
	assert.Empty(t, h.exec.Calls(), "nothing is sent before approval")
}

func TestRunCycle_InternalHelloNoApproval(t *testing.T) {
	h := newHarness(t, nil)
	h.put(t, vault.StageNeedsAction, "EMAIL_2.md", email("alice@yourcompany.com", "Hello", "Just checking in on the roadmap."))

	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	plan, err := h.vault.Read(vault.StagePlan, "PLAN_email_abc123de.md")
	require.NoError(t, err)
	assert.Equal(t, "false", frontmatter.Parse(plan).Header.Get("approval_required", ""))

	assert.Empty(t, h.names(t, vault.StagePendingApproval))
	assert.Empty(t, h.names(t, vault.StageApproved), "auto execute is off")
}

func TestRunCycle_AutoExecuteWritesActionRequest(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.intake.(*PlanningProcessor).autoExecute = true
	h.exec.Outputs = map[string][]byte{"send-email": []byte("Email sent")}
	h.put(t, vault.StageNeedsAction, "EMAIL_2.md", email("alice@yourcompany.com", "Hello", "Just checking in."))

	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	// the action request lands in Approved and is dispatched within the same cycle
	assert.Equal(t, []string{"ACTION_email_reply_abc123de.md"}, h.names(t, vault.StageDone))
	require.Len(t, h.exec.Calls(), 1)
	assert.Equal(t, "bob@client.com", h.exec.Calls()[0].Args[0])
}

func TestRunCycle_ApprovedDispatchSuccess(t *testing.T) {
	h := newHarness(t, nil)
	h.exec.Outputs = map[string][]byte{"send-email": []byte("Email sent to bob@client.com\n")}
	h.put(t, vault.StageApproved, "APPROVAL_email_reply_1.md",
		approvedRequest("email_send", "bob@client.com", "Re: Invoice #4", "Dear Bob,\n\nAttached.\n\nBest regards"))

	res, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dispatched)
	assert.Zero(t, res.Failed)

	calls := h.exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "send-email", calls[0].Name)
	assert.Equal(t, []string{"bob@client.com", "Re: Invoice #4", "Dear Bob,\n\nAttached.\n\nBest regards"}, calls[0].Args)
	assert.Equal(t, h.vault.Root(), calls[0].Dir)

	assert.Empty(t, h.names(t, vault.StageApproved))
	assert.Equal(t, []string{"APPROVAL_email_reply_1.md"}, h.names(t, vault.StageDone))

	entries := h.logEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "email_send", entries[0].ActionType)
	assert.Equal(t, actionlog.StatusSuccess, entries[0].Status)
	assert.Equal(t, actionlog.DefaultActor, entries[0].Actor)
}

func TestRunCycle_ApprovedDispatchFailureStillArchived(t *testing.T) {
	tests := []struct {
		name   string
		output []byte
		err    error
	}{
		{name: "missing marker", output: []byte("queued")},
		{name: "non-zero exit", output: []byte("Email sent"), err: errors.New("exit status 1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.exec.Outputs = map[string][]byte{"send-email": tt.output}
			if tt.err != nil {
				h.exec.Errors = map[string]error{"send-email": tt.err}
			}
			h.put(t, vault.StageApproved, "A.md", approvedRequest("email_send", "bob@client.com", "Hi", "Body"))

			res, err := h.orch.RunCycle(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, res.Failed)

			assert.Equal(t, []string{"A.md"}, h.names(t, vault.StageDone))

			entries := h.logEntries(t)
			require.Len(t, entries, 1)
			assert.Equal(t, actionlog.StatusFailed, entries[0].Status)
			assert.Contains(t, entries[0].Details, "A.md")

			// no retry on the next cycle
			_, err = h.orch.RunCycle(context.Background())
			require.NoError(t, err)
			assert.Len(t, h.exec.Calls(), 1)
		})
	}
}

func TestRunCycle_UnknownActionArchivedWithoutExecutor(t *testing.T) {
	h := newHarness(t, nil)
	h.put(t, vault.StageApproved, "FAX.md", approvedRequest("fax_send", "bob@client.com", "Hi", "Body"))

	res, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	assert.Empty(t, h.exec.Calls())
	assert.Equal(t, []string{"FAX.md"}, h.names(t, vault.StageDone))

	entries := h.logEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionUnknownAction, entries[0].ActionType)
	assert.Contains(t, entries[0].Details, "fax_send")
}

func TestRunCycle_MissingActionTag(t *testing.T) {
	h := newHarness(t, nil)
	h.put(t, vault.StageApproved, "NOTE.md", "just a note, no header\n")

	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Empty(t, h.exec.Calls())
	assert.Equal(t, []string{"NOTE.md"}, h.names(t, vault.StageDone))
}

func TestRunCycle_ArchiveConflictUsesFreeName(t *testing.T) {
	h := newHarness(t, nil)
	h.exec.Outputs = map[string][]byte{"send-email": []byte("Email sent")}
	h.put(t, vault.StageApproved, "A.md", approvedRequest("email_send", "bob@client.com", "Hi", "Body"))
	h.put(t, vault.StageDone, "A.md", "older copy")

	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Empty(t, h.names(t, vault.StageApproved), "an approved item always leaves Approved")
	assert.ElementsMatch(t, []string{"A.md", "A_2.md"}, h.names(t, vault.StageDone))

	older, err := h.vault.Read(vault.StageDone, "A.md")
	require.NoError(t, err)
	assert.Equal(t, "older copy", older)
	assert.False(t, h.dedup.Seen(DedupKey(vault.StageApproved, "A.md")))

	_, err = h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.exec.Calls(), 1)
}

func TestRunCycle_ReusedApprovedNameIsDispatchedAgain(t *testing.T) {
	h := newHarness(t, nil)
	h.exec.Outputs = map[string][]byte{"send-email": []byte("Email sent")}

	h.put(t, vault.StageApproved, "A.md", approvedRequest("email_send", "bob@client.com", "First", "One"))
	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	h.put(t, vault.StageApproved, "A.md", approvedRequest("email_send", "carol@client.com", "Second", "Two"))
	res, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dispatched)

	calls := h.exec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "carol@client.com", calls[1].Args[0])

	assert.Empty(t, h.names(t, vault.StageApproved))
	assert.ElementsMatch(t, []string{"A.md", "A_2.md"}, h.names(t, vault.StageDone))
	assert.Len(t, h.logEntries(t), 2)
}

func emailWithoutID(from, subject string) string {
	return fmt.Sprintf(`---
type: email
from: %s
to: someone@external.com
subject: %s
priority: medium
---

## Email Content

Could you get back to me?
`, from, subject)
}

func approveAll(t *testing.T, h *harness) {
	t.Helper()
	for _, name := range h.names(t, vault.StagePendingApproval) {
		require.NoError(t, h.vault.Move(name, vault.StagePendingApproval, vault.StageApproved))
	}
}

func TestRunCycle_SameDayItemsWithoutIDsEachGetSent(t *testing.T) {
	h := newHarness(t, nil)
	h.exec.Outputs = map[string][]byte{"send-email": []byte("Email sent")}

	h.put(t, vault.StageNeedsAction, "EMAIL_1.md", emailWithoutID("Bob <bob@client.com>", "Question"))
	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"APPROVAL_email_reply_20260314.md"}, h.names(t, vault.StagePendingApproval))

	approveAll(t, h)
	_, err = h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	h.put(t, vault.StageNeedsAction, "EMAIL_2.md", emailWithoutID("Carol <carol@other.com>", "Another question"))
	_, err = h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"APPROVAL_email_reply_20260314_2.md"}, h.names(t, vault.StagePendingApproval))

	approveAll(t, h)
	_, err = h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	calls := h.exec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "bob@client.com", calls[0].Args[0])
	assert.Equal(t, "carol@other.com", calls[1].Args[0])
	assert.Empty(t, h.names(t, vault.StageApproved))

	var sent int
	for _, e := range h.logEntries(t) {
		if e.ActionType == "email_send" && e.Status == actionlog.StatusSuccess {
			sent++
		}
	}
	assert.Equal(t, 2, sent)
}

func TestRunCycle_PendingRequestsWithSharedIDDoNotOverwrite(t *testing.T) {
	h := newHarness(t, nil)
	h.putAged(t, vault.StageNeedsAction, "EMAIL_1.md", emailWithoutID("Bob <bob@client.com>", "One"), 2*time.Minute)
	h.putAged(t, vault.StageNeedsAction, "EMAIL_2.md", emailWithoutID("Carol <carol@other.com>", "Two"), time.Minute)

	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"APPROVAL_email_reply_20260314.md", "APPROVAL_email_reply_20260314_2.md"},
		h.names(t, vault.StagePendingApproval))
}

func TestRunCycle_EmptyRecipientFailsWithoutExecutor(t *testing.T) {
	h := newHarness(t, nil)
	h.put(t, vault.StageApproved, "A.md", approvedRequest("email_send", "", "Hi", "Body"))

	res, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	assert.Empty(t, h.exec.Calls())
	assert.Equal(t, []string{"A.md"}, h.names(t, vault.StageDone))

	entries := h.logEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, actionlog.StatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].Details, "no recipient")
}

type fixedDrafter string

func (f fixedDrafter) Draft(context.Context, item.ActionItem) (string, error) {
	return string(f), nil
}

func TestRunCycle_SentBodyMatchesApprovedDraft(t *testing.T) {
	draft := "Hi Bob,\n\nHere are the figures:\n\n# Totals\n\nQ1: 10\n\n---\nSent from the office"

	h := newHarness(t, nil)
	p := NewPlanningProcessor(h.vault, approval.NewPolicy(approval.DefaultKnownDomains, approval.DefaultSensitiveKeywords), fixedDrafter(draft), false, zerolog.Nop())
	p.now = fixedClock
	h.orch.intake = p
	h.exec.Outputs = map[string][]byte{"send-email": []byte("Email sent")}

	h.put(t, vault.StageNeedsAction, "EMAIL_1.md", email("someone@external.com", "Figures", "Can you send the totals?"))
	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	approveAll(t, h)
	_, err = h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	calls := h.exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, draft, calls[0].Args[2])
}

type countingInvoker struct {
	calls        atomic.Int32
	err          error
	instructions []string
}

func (c *countingInvoker) Invoke(_ context.Context, instruction string) error {
	c.calls.Add(1)
	c.instructions = append(c.instructions, instruction)
	return c.err
}

func TestRunCycle_AgentBatchDedup(t *testing.T) {
	inv := &countingInvoker{}
	h := newHarness(t, NewAgentProcessor(inv, zerolog.Nop()))
	h.putAged(t, vault.StageNeedsAction, "B.md", "b", time.Minute)
	h.putAged(t, vault.StageNeedsAction, "A.md", "a", 2*time.Minute)

	for range 3 {
		_, err := h.orch.RunCycle(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), inv.calls.Load(), "a dedup'd batch is never resubmitted")
	require.Len(t, inv.instructions, 1)
	assert.Contains(t, inv.instructions[0], "I have 2 item(s) in /Needs_Action that need processing: A.md, B.md")

	// a new arrival forms its own batch
	h.put(t, vault.StageNeedsAction, "C.md", "c")
	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), inv.calls.Load())
	assert.Contains(t, inv.instructions[1], "1 item(s)")
	assert.Contains(t, inv.instructions[1], ": C.md\n")
}

func TestRunCycle_AgentFailureRetriesNextCycle(t *testing.T) {
	inv := &countingInvoker{err: errors.New("agent timed out")}
	h := newHarness(t, NewAgentProcessor(inv, zerolog.Nop()))
	h.put(t, vault.StageNeedsAction, "A.md", "a")

	_, err := h.orch.RunCycle(context.Background())
	require.Error(t, err)
	assert.False(t, h.dedup.Seen(DedupKey(vault.StageNeedsAction, "A.md")))

	inv.err = nil
	_, err = h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), inv.calls.Load())
	assert.True(t, h.dedup.Seen(DedupKey(vault.StageNeedsAction, "A.md")))
}

type recordingIntake struct {
	batches [][]string
}

func (r *recordingIntake) Name() string { return "recording" }

func (r *recordingIntake) Process(_ context.Context, items []item.ActionItem) ([]string, error) {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	r.batches = append(r.batches, names)
	return names, nil
}

func TestRunCycle_IntakeOldestFirst(t *testing.T) {
	intake := &recordingIntake{}
	h := newHarness(t, intake)
	h.putAged(t, vault.StageNeedsAction, "new.md", "x", time.Minute)
	h.putAged(t, vault.StageNeedsAction, "old.md", "x", time.Hour)
	h.putAged(t, vault.StageNeedsAction, "mid.md", "x", 10*time.Minute)
	h.put(t, vault.StageNeedsAction, ".hidden.md", "x")
	h.put(t, vault.StageNeedsAction, "notes.txt", "x")

	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, intake.batches, 1)
	assert.Equal(t, []string{"old.md", "mid.md", "new.md"}, intake.batches[0])

	entries := h.logEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionIntake, entries[0].ActionType)
}

func TestRunCycle_DashboardSync(t *testing.T) {
	h := newHarness(t, &recordingIntake{})
	path := filepath.Join(h.vault.Root(), dashboard.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(dashboard.Template(testNow.Add(-time.Hour))), 0o644))

	h.put(t, vault.StageNeedsAction, "A.md", "a")
	h.put(t, vault.StageNeedsAction, "B.md", "b")
	h.put(t, vault.StagePendingApproval, "P.md", "p")

	res, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, res.DashboardUpdated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| **Pending Items** | 2 |")
	assert.Contains(t, string(data), "| **Awaiting Approval** | 1 |")
	assert.Contains(t, string(data), "last_updated: "+testNow.Format(time.RFC3339))

	res, err = h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.False(t, res.DashboardUpdated, "unchanged counts leave the file alone")
}

func TestRunCycle_MissingDashboardIsNoop(t *testing.T) {
	h := newHarness(t, &recordingIntake{})

	res, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.False(t, res.DashboardUpdated)
	assert.NoFileExists(t, filepath.Join(h.vault.Root(), dashboard.DefaultFile))
}

func TestRunCycle_CreatesMissingStages(t *testing.T) {
	h := newHarness(t, &recordingIntake{})
	require.NoError(t, os.RemoveAll(h.vault.Dir(vault.StageApproved)))

	_, err := h.orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.DirExists(t, h.vault.Dir(vault.StageApproved))
}

type panickingIntake struct {
	calls chan struct{}
}

func (p *panickingIntake) Name() string { return "panicking" }

func (p *panickingIntake) Process(context.Context, []item.ActionItem) ([]string, error) {
	p.calls <- struct{}{}
	panic("boom")
}

func TestRunCycle_RecoversPanic(t *testing.T) {
	h := newHarness(t, &panickingIntake{calls: make(chan struct{}, 1)})
	h.put(t, vault.StageNeedsAction, "A.md", "a")

	_, err := h.orch.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRun_SurvivesCycleFailures(t *testing.T) {
	intake := &panickingIntake{calls: make(chan struct{}, 4)}
	h := newHarness(t, intake)
	h.orch.interval = time.Hour
	h.put(t, vault.StageNeedsAction, "A.md", "a")

	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx, wake) }()

	waitFor := func() {
		select {
		case <-intake.calls:
		case <-time.After(5 * time.Second):
			t.Fatal("cycle did not run")
		}
	}

	waitFor()
	wake <- struct{}{}
	waitFor()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	var cycleErrors int
	for _, e := range h.logEntries(t) {
		if e.ActionType == ActionCycleError {
			cycleErrors++
			assert.Equal(t, actionlog.StatusFailed, e.Status)
			assert.True(t, strings.Contains(e.Details, "boom"))
		}
	}
	assert.GreaterOrEqual(t, cycleErrors, 1)
}

func TestRunCycle_PlanningSkipsFailedDraftButHandlesRest(t *testing.T) {
	h := newHarness(t, nil)
	p := h.orch.intake.(*PlanningProcessor)
	p.drafter = failingDrafter{failOn: "BAD.md"}

	h.putAged(t, vault.StageNeedsAction, "BAD.md", email("a@yourcompany.com", "Hello", "x"), time.Hour)
	h.put(t, vault.StageNeedsAction, "GOOD.md", email("a@yourcompany.com", "Hello", "x"))

	res, err := h.orch.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD.md")
	assert.Equal(t, 1, res.Handled)

	assert.False(t, h.dedup.Seen(DedupKey(vault.StageNeedsAction, "BAD.md")))
	assert.True(t, h.dedup.Seen(DedupKey(vault.StageNeedsAction, "GOOD.md")))
}

type failingDrafter struct {
	failOn string
}

func (f failingDrafter) Draft(_ context.Context, it item.ActionItem) (string, error) {
	if it.Name == f.failOn {
		return "", errors.New("drafter unavailable")
	}
	return "ok", nil
}
