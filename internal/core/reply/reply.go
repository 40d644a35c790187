// Package reply drafts responses to action items. Drafting is a swappable
// capability: Templates is a deterministic keyword heuristic, AgentDrafter
// delegates to the reasoning agent.
package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/subhankaladi/ai-employee/internal/core/item"
)

// Drafter produces the text of a reply to an item.
type Drafter interface {
	Draft(ctx context.Context, it item.ActionItem) (string, error)
}

const (
	greetingReply = `Hi,

Thank you for your message! I'm doing well, thank you.

Hope you're doing great too.

Best regards`

	invoiceReply = `Dear Valued Client,

Thank you for your inquiry regarding the invoice.

I will process your request and send the invoice shortly.

Best regards`

	urgentReply = `Dear Sender,

I received your urgent message and will respond as soon as possible.

Thank you for your patience.

Best regards`

	genericReply = `Dear Sender,

Thank you for your email. I have received your message and will respond shortly.

Best regards`
)

type template struct {
	name  string
	match func(subject, body string) bool
	text  string
}

// templates are checked in order; the first match wins.
var templates = []template{
	{
		name: "greeting",
		match: func(subject, body string) bool {
			return strings.Contains(subject, "greeting") || strings.Contains(body, "how are you")
		},
		text: greetingReply,
	},
	{
		name: "invoice",
		match: func(subject, _ string) bool {
			return strings.Contains(subject, "invoice") || strings.Contains(subject, "payment")
		},
		text: invoiceReply,
	},
	{
		name: "urgent",
		match: func(subject, body string) bool {
			return strings.Contains(subject, "urgent") || strings.Contains(body, "asap")
		},
		text: urgentReply,
	},
}

// Templates drafts replies from a fixed set of keyword-triggered templates.
type Templates struct{}

// Draft never fails.
func (Templates) Draft(_ context.Context, it item.ActionItem) (string, error) {
	_, text := Match(it)
	return text, nil
}

// Match returns the name and text of the template chosen for an item.
// "generic" is returned when no keyword matched.
func Match(it item.ActionItem) (string, string) {
	subject := strings.ToLower(it.Subject())
	body := strings.ToLower(it.Message())
	for _, t := range templates {
		if t.match(subject, body) {
			return t.name, t.text
		}
	}
	return "generic", genericReply
}

// Asker is the part of the reasoning agent AgentDrafter needs.
type Asker interface {
	Ask(ctx context.Context, instruction string) (string, error)
}

// AgentDrafter asks the reasoning agent for a reply and falls back to another
// Drafter when the agent fails or answers with nothing.
type AgentDrafter struct {
	agent    Asker
	fallback Drafter
	log      zerolog.Logger
}

// NewAgentDrafter creates an agent-backed drafter. A nil fallback means
// Templates.
func NewAgentDrafter(agent Asker, fallback Drafter, log zerolog.Logger) *AgentDrafter {
	if fallback == nil {
		fallback = Templates{}
	}
	return &AgentDrafter{
		agent:    agent,
		fallback: fallback,
		log:      log.With().Str("component", "agent-drafter").Logger(),
	}
}

// Draft implements Drafter.
func (d *AgentDrafter) Draft(ctx context.Context, it item.ActionItem) (string, error) {
	out, err := d.agent.Ask(ctx, Instruction(it))
	if err == nil {
		if text := strings.TrimSpace(out); text != "" {
			return text, nil
		}
		err = fmt.Errorf("agent returned an empty reply")
	}

	d.log.Warn().Err(err).Str("item", it.Name).Msg("agent draft failed, using fallback")
	return d.fallback.Draft(ctx, it)
}

// Instruction builds the natural-language request for a single reply.
func Instruction(it item.ActionItem) string {
	var b strings.Builder
	b.WriteString("Draft a short, professional reply to the message below. ")
	b.WriteString("Print only the reply text, without a subject line or commentary.\n\n")
	fmt.Fprintf(&b, "From: %s\n", it.From())
	fmt.Fprintf(&b, "Subject: %s\n\n", it.Subject())
	b.WriteString(it.Message())
	return b.String()
}
