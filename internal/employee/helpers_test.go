package employee

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/subhankaladi/ai-employee/internal/core/actionlog"
	"github.com/subhankaladi/ai-employee/internal/core/approval"
	"github.com/subhankaladi/ai-employee/internal/core/dashboard"
	"github.com/subhankaladi/ai-employee/internal/core/reply"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
	"github.com/subhankaladi/ai-employee/pkg/executil"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type harness struct {
	vault   *vault.Vault
	exec    *executil.RecordingExecutor
	actions *actionlog.Log
	dedup   *Dedup
	orch    *Orchestrator
}

// newHarness builds an orchestrator over a fresh vault. A nil intake means
// the planning strategy with template drafting.
func newHarness(t *testing.T, intake IntakeProcessor) *harness {
	t.Helper()

	v := vault.New(t.TempDir())
	require.NoError(t, v.Ensure())

	rec := &executil.RecordingExecutor{}
	actions := actionlog.New(v.LogsPath(), actionlog.WithClock(fixedClock))
	dedup := NewDedup(nil, zerolog.Nop())

	if intake == nil {
		p := NewPlanningProcessor(v, approval.NewPolicy(approval.DefaultKnownDomains, approval.DefaultSensitiveKeywords), reply.Templates{}, false, zerolog.Nop())
		p.now = fixedClock
		intake = p
	}

	registry := NewRegistry()
	registry.Register("email_send", NewCommandExecutor(rec, []string{"send-email"}, "Email sent", time.Second, v.Root()))

	dash := dashboard.New(filepath.Join(v.Root(), dashboard.DefaultFile), nil)
	orch := NewOrchestrator(v, intake, registry, dedup, dash, actions, zerolog.Nop(), WithClock(fixedClock))

	return &harness{vault: v, exec: rec, actions: actions, dedup: dedup, orch: orch}
}

func (h *harness) put(t *testing.T, stage vault.Stage, name, content string) {
	t.Helper()
	require.NoError(t, h.vault.Write(stage, name, content))
}

// putAged writes an item and backdates it so listing order is deterministic.
func (h *harness) putAged(t *testing.T, stage vault.Stage, name, content string, age time.Duration) {
	t.Helper()
	h.put(t, stage, name, content)
	mt := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(h.vault.Path(stage, name), mt, mt))
}

func (h *harness) names(t *testing.T, stage vault.Stage) []string {
	t.Helper()
	entries, err := h.vault.List(stage)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func (h *harness) logEntries(t *testing.T) []actionlog.Entry {
	t.Helper()
	entries, err := h.actions.Read(testNow)
	require.NoError(t, err)
	return entries
}

func email(to, subject, body string) string {
	return fmt.Sprintf(`---
type: email
from: Bob Client <bob@client.com>
to: %s
subject: %s
received: 2026-03-14T08:00:00
priority: high
message_id: abc123def456
---

## Email Content

%s
`, to, subject, body)
}

func approvedRequest(action, to, subject, body string) string {
	return fmt.Sprintf(`---
type: approval_request
action: %s
to: %s
subject: %s
status: approved
---

# Approval Required: Send Email Reply

## Suggested Reply

%s

## Why Approval Required

- External recipient
`, action, to, subject, body)
}
