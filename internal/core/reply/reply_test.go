package reply

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhankaladi/ai-employee/internal/core/item"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

func newItem(subject, body string) item.ActionItem {
	content := fmt.Sprintf("---\nfrom: Bob <bob@external.com>\nsubject: %s\n---\n# Email Content\n%s\n", subject, body)
	return item.New("EMAIL_1.md", vault.StageNeedsAction, content)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{name: "greeting subject", subject: "Greetings!", body: "", want: "greeting"},
		{name: "how are you body", subject: "Hi", body: "How are you doing?", want: "greeting"},
		{name: "invoice subject", subject: "Invoice #4", body: "please check the payment", want: "invoice"},
		{name: "payment subject", subject: "Payment reminder", body: "", want: "invoice"},
		{name: "urgent subject", subject: "URGENT: server down", body: "", want: "urgent"},
		{name: "asap body", subject: "Hi", body: "need this ASAP", want: "urgent"},
		{name: "greeting wins over invoice", subject: "Greeting and invoice", body: "", want: "greeting"},
		{name: "payment only in body is generic", subject: "Question", body: "about payment", want: "generic"},
		{name: "generic", subject: "Meeting notes", body: "attached", want: "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Match(newItem(tt.subject, tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplates_Draft(t *testing.T) {
	text, err := Templates{}.Draft(context.Background(), newItem("Invoice #4", "payment"))
	require.NoError(t, err)
	assert.Contains(t, text, "regarding the invoice")
}

type fakeAsker struct {
	out    string
	err    error
	prompt string
}

func (f *fakeAsker) Ask(_ context.Context, instruction string) (string, error) {
	f.prompt = instruction
	return f.out, f.err
}

func TestAgentDrafter(t *testing.T) {
	ctx := context.Background()

	t.Run("uses agent output", func(t *testing.T) {
		asker := &fakeAsker{out: "  Thanks Bob, will do.\n"}
		d := NewAgentDrafter(asker, nil, zerolog.Nop())

		text, err := d.Draft(ctx, newItem("Hello", "Can you send the deck?"))
		require.NoError(t, err)
		assert.Equal(t, "Thanks Bob, will do.", text)
		assert.Contains(t, asker.prompt, "Subject: Hello")
		assert.Contains(t, asker.prompt, "Can you send the deck?")
	})

	t.Run("falls back on error", func(t *testing.T) {
		d := NewAgentDrafter(&fakeAsker{err: errors.New("boom")}, nil, zerolog.Nop())

		text, err := d.Draft(ctx, newItem("Urgent", ""))
		require.NoError(t, err)
		assert.Contains(t, text, "urgent message")
	})

	t.Run("falls back on empty output", func(t *testing.T) {
		d := NewAgentDrafter(&fakeAsker{out: "   "}, nil, zerolog.Nop())

		text, err := d.Draft(ctx, newItem("Hi", ""))
		require.NoError(t, err)
		assert.Contains(t, text, "Thank you for your email")
	})
}
