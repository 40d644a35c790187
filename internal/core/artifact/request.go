package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/subhankaladi/ai-employee/internal/core/frontmatter"
	"github.com/subhankaladi/ai-employee/internal/core/item"
)

// Request statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Document types written in the type header field.
const (
	TypeApprovalRequest = "approval_request"
	TypeActionRequest   = "action_request"
)

// ActionEmailSend is the action tag of an outbound email reply.
const ActionEmailSend = "email_send"

// Request is a proposed outbound action. As an approval request it waits in
// Pending_Approval until a human moves it; as an action request it is written
// straight to Approved.
type Request struct {
	Type     string
	Action   string
	To       string
	Subject  string
	Created  time.Time
	Expires  time.Time
	Status   string
	Priority string
	Source   string
	Reply    string
	Reasons  []string

	id   string
	kind string
}

// NewApprovalRequest proposes a reply to it that needs human sign-off. The
// request expires at 23:59 on the day it was created.
func NewApprovalRequest(it item.ActionItem, reply string, reasons []string, now time.Time) Request {
	r := newRequest(it, reply, now)
	r.Type = TypeApprovalRequest
	r.Status = StatusPending
	r.Reasons = reasons
	return r
}

// NewActionRequest proposes a reply that was cleared without approval.
func NewActionRequest(it item.ActionItem, reply string, now time.Time) Request {
	r := newRequest(it, reply, now)
	r.Type = TypeActionRequest
	r.Status = StatusApproved
	return r
}

func newRequest(it item.ActionItem, reply string, now time.Time) Request {
	return Request{
		Action:   ActionEmailSend,
		To:       it.ReplyAddress(),
		Subject:  replySubject(it.Get(item.KeySubject, "No Subject")),
		Created:  now,
		Expires:  time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location()),
		Priority: it.Priority(),
		Source:   it.Name,
		Reply:    reply,
		id:       it.ShortID(now),
		kind:     it.Kind(),
	}
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// Name is the request's file name.
func (r Request) Name() string {
	if r.Type == TypeActionRequest {
		return fmt.Sprintf("ACTION_%s_reply_%s.md", r.kind, r.id)
	}
	return fmt.Sprintf("APPROVAL_%s_reply_%s.md", r.kind, r.id)
}

// Render returns the request document.
func (r Request) Render() string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "type: %s\n", r.Type)
	fmt.Fprintf(&b, "action: %s\n", r.Action)
	fmt.Fprintf(&b, "to: %s\n", r.To)
	fmt.Fprintf(&b, "subject: %s\n", r.Subject)
	fmt.Fprintf(&b, "created: %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(&b, "expires: %s\n", r.Expires.Format(time.RFC3339))
	fmt.Fprintf(&b, "status: %s\n", r.Status)
	fmt.Fprintf(&b, "priority: %s\n", r.Priority)
	fmt.Fprintf(&b, "source: %s\n", r.Source)
	b.WriteString("---\n\n")

	if r.Type == TypeApprovalRequest {
		b.WriteString("# Approval Required: Send Email Reply\n\n")
	} else {
		b.WriteString("# Action: Send Email Reply\n\n")
	}

	b.WriteString("## Email Details\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	fmt.Fprintf(&b, "| To | %s |\n", r.To)
	fmt.Fprintf(&b, "| Subject | %s |\n", r.Subject)
	fmt.Fprintf(&b, "| Original Priority | %s |\n\n", r.Priority)

	b.WriteString("## Suggested Reply\n\n")
	b.WriteString(frontmatter.EscapeBlock(strings.TrimSpace(r.Reply)))
	b.WriteString("\n\n")

	if r.Type == TypeApprovalRequest {
		b.WriteString("## Why Approval Required\n\n")
		b.WriteString("This email requires human approval before sending because:\n")
		for _, reason := range r.Reasons {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
		b.WriteString("- Ensure response is appropriate and accurate\n\n")
		b.WriteString("---\n\n")
		b.WriteString("## To Approve\n\nMove this file to `/Approved` folder.\n\n")
		b.WriteString("## To Reject\n\nMove this file to `/Rejected` folder and add a comment.\n\n")
	}

	b.WriteString("---\n")
	b.WriteString("*Generated automatically by AI Employee*\n")

	return b.String()
}
