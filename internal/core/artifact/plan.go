// Package artifact renders the documents derived from an action item: the
// plan checklist and the approval request.
package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/subhankaladi/ai-employee/internal/core/item"
)

// Step is one checklist entry of a plan.
type Step struct {
	Title   string
	Details []string
	Done    bool
}

// Plan is the advisory checklist generated for an item. It is written once
// and never updated by the engine.
type Plan struct {
	ID               string
	Created          time.Time
	Objective        string
	RelatedTo        string
	ApprovalRequired bool
	Steps            []Step

	Subject  string
	From     string
	To       string
	Received string
	Priority string

	kind string
}

// GeneratePlan builds the fixed four-step plan for an item.
func GeneratePlan(it item.ActionItem, needsApproval bool, now time.Time) Plan {
	priority := it.Priority()

	third := Step{Title: "Send reply", Details: []string{"Send reply via the configured executor"}}
	if needsApproval {
		third = Step{Title: "Request approval", Details: []string{"Approval request created in /Pending_Approval/"}}
	}

	return Plan{
		ID:               it.ShortID(now),
		Created:          now,
		Objective:        fmt.Sprintf("Process %s and send reply", it.Kind()),
		RelatedTo:        it.Name,
		ApprovalRequired: needsApproval,
		Steps: []Step{
			{
				Title:   "Read and analyze " + it.Kind(),
				Details: []string{"Item received and parsed", "Priority determined: " + priority},
				Done:    true,
			},
			{
				Title:   "Draft reply",
				Details: []string{"Compose appropriate response", "Review for tone and accuracy"},
			},
			third,
			{
				Title:   "Log and archive",
				Details: []string{"Log action in /Logs/", "Move item to /Done/"},
			},
		},
		Subject:  it.Get(item.KeySubject, "No Subject"),
		From:     it.Get(item.KeyFrom, "Unknown"),
		To:       it.Get(item.KeyTo, "N/A"),
		Received: it.Get(item.KeyReceived, "Unknown"),
		Priority: priority,
		kind:     it.Kind(),
	}
}

// Name is the plan's file name. Plans for items sharing a short id collide
// and the last one written wins.
func (p Plan) Name() string {
	return fmt.Sprintf("PLAN_%s_%s.md", p.kind, p.ID)
}

// Render returns the plan document.
func (p Plan) Render() string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "created: %s\n", p.Created.Format(time.RFC3339))
	b.WriteString("status: in_progress\n")
	fmt.Fprintf(&b, "objective: %s\n", p.Objective)
	fmt.Fprintf(&b, "related_to: %s\n", p.RelatedTo)
	fmt.Fprintf(&b, "approval_required: %t\n", p.ApprovalRequired)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# Plan: Process %s - %s\n\n", strings.ToUpper(p.kind[:1])+p.kind[1:], p.Subject)

	b.WriteString("## Objective\n")
	fmt.Fprintf(&b, "%s.\n\n", p.Objective)

	b.WriteString("## Details\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	fmt.Fprintf(&b, "| From | %s |\n", p.From)
	fmt.Fprintf(&b, "| To | %s |\n", p.To)
	fmt.Fprintf(&b, "| Subject | %s |\n", p.Subject)
	fmt.Fprintf(&b, "| Received | %s |\n", p.Received)
	fmt.Fprintf(&b, "| Priority | %s |\n\n", p.Priority)

	b.WriteString("## Steps\n\n")
	for i, s := range p.Steps {
		mark := " "
		if s.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] **Step %d: %s**\n", mark, i+1, s.Title)
		for _, d := range s.Details {
			fmt.Fprintf(&b, "  - %s\n", d)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	b.WriteString("*Generated automatically by AI Employee*\n")

	return b.String()
}
