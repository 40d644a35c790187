package employee

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhankaladi/ai-employee/internal/core/approval"
	"github.com/subhankaladi/ai-employee/internal/core/frontmatter"
	"github.com/subhankaladi/ai-employee/internal/core/item"
	"github.com/subhankaladi/ai-employee/internal/core/reply"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

func TestBatchInstruction(t *testing.T) {
	got := BatchInstruction([]string{"EMAIL_1.md", "EMAIL_2.md"})

	assert.True(t, strings.HasPrefix(got, "I have 2 item(s) in /Needs_Action that need processing: EMAIL_1.md, EMAIL_2.md\n"))
	for _, want := range []string{
		"Company_Handbook.md",
		"/Plans",
		"/Pending_Approval",
		"/Done",
		"Dashboard.md",
	} {
		assert.Contains(t, got, want)
	}
}

func TestAgentProcessor(t *testing.T) {
	items := []item.ActionItem{
		item.New("A.md", vault.StageNeedsAction, "a"),
		item.New("B.md", vault.StageNeedsAction, "b"),
	}

	t.Run("success handles the whole batch", func(t *testing.T) {
		inv := &countingInvoker{}
		names, err := NewAgentProcessor(inv, zerolog.Nop()).Process(context.Background(), items)
		require.NoError(t, err)
		assert.Equal(t, []string{"A.md", "B.md"}, names)
		assert.Equal(t, int32(1), inv.calls.Load())
	})

	t.Run("failure handles nothing", func(t *testing.T) {
		inv := &countingInvoker{err: errors.New("exit status 1")}
		names, err := NewAgentProcessor(inv, zerolog.Nop()).Process(context.Background(), items)
		require.Error(t, err)
		assert.Empty(t, names)
	})

	t.Run("empty batch is not delegated", func(t *testing.T) {
		inv := &countingInvoker{}
		names, err := NewAgentProcessor(inv, zerolog.Nop()).Process(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, names)
		assert.Zero(t, inv.calls.Load())
	})
}

type fakeAsker struct {
	reply string
	err   error
}

func (f fakeAsker) Ask(context.Context, string) (string, error) { return f.reply, f.err }

func TestPlanningProcessor_AgentDrafting(t *testing.T) {
	v := vault.New(t.TempDir())
	require.NoError(t, v.Ensure())

	drafter := reply.NewAgentDrafter(fakeAsker{reply: "Hi Bob, the invoice is attached."}, nil, zerolog.Nop())
	p := NewPlanningProcessor(v, approval.NewPolicy(approval.DefaultKnownDomains, approval.DefaultSensitiveKeywords), drafter, false, zerolog.Nop())
	p.now = fixedClock

	it := item.New("EMAIL_1.md", vault.StageNeedsAction, email("someone@external.com", "Invoice #4", "payment"))
	names, err := p.Process(context.Background(), []item.ActionItem{it})
	require.NoError(t, err)
	assert.Equal(t, []string{"EMAIL_1.md"}, names)

	content, err := v.Read(vault.StagePendingApproval, "APPROVAL_email_reply_abc123de.md")
	require.NoError(t, err)
	doc := frontmatter.Parse(content)
	assert.Equal(t, "Hi Bob, the invoice is attached.", doc.Section("Suggested Reply"))
	assert.Contains(t, content, "is an external contact")
}

func TestPlanningProcessor_CancelledContext(t *testing.T) {
	v := vault.New(t.TempDir())
	p := NewPlanningProcessor(v, approval.NewPolicy(nil, nil), reply.Templates{}, false, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	names, err := p.Process(ctx, []item.ActionItem{item.New("A.md", vault.StageNeedsAction, "a")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, names)
}
