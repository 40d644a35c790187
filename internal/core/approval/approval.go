// Package approval decides whether an action item needs a human to sign off
// before anything is sent on its behalf.
//
// The policy is keyword and domain based. It accepts false positives (asking
// for approval when none was needed) and avoids false negatives.
package approval

import (
	"fmt"
	"strings"

	"github.com/subhankaladi/ai-employee/internal/core/item"
)

// DefaultKnownDomains are the recipient domains treated as internal.
var DefaultKnownDomains = []string{"yourcompany.com", "yourdomain.com"}

// DefaultSensitiveKeywords trigger approval wherever they appear.
var DefaultSensitiveKeywords = []string{"payment", "invoice", "contract", "legal", "money", "bank"}

// Decision is the outcome of evaluating an item.
type Decision struct {
	NeedsApproval bool
	Reasons       []string
}

// Policy holds the allow-list and keyword set.
type Policy struct {
	knownDomains map[string]struct{}
	keywords     []string
}

// NewPolicy normalises the allow-list and keywords. Domains may be given with
// or without a leading "@".
func NewPolicy(knownDomains, keywords []string) *Policy {
	p := &Policy{knownDomains: make(map[string]struct{}, len(knownDomains))}
	for _, d := range knownDomains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" {
			p.knownDomains[d] = struct{}{}
		}
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			p.keywords = append(p.keywords, kw)
		}
	}
	return p
}

// Decide reports whether the item needs human approval.
func (p *Policy) Decide(it item.ActionItem) bool {
	return p.Evaluate(it).NeedsApproval
}

// Evaluate applies the rules in order and stops at the first that fires:
//  1. a recipient outside the known domains (or no usable recipient at all)
//  2. a sensitive keyword in the subject or body
//
// No match means no approval.
func (p *Policy) Evaluate(it item.ActionItem) Decision {
	if reason, ok := p.unknownRecipient(it.To()); ok {
		return Decision{NeedsApproval: true, Reasons: []string{reason}}
	}
	if kw, ok := p.sensitiveKeyword(it.Text()); ok {
		return Decision{
			NeedsApproval: true,
			Reasons:       []string{fmt.Sprintf("Mentions sensitive topic %q", kw)},
		}
	}
	return Decision{}
}

func (p *Policy) unknownRecipient(to string) (string, bool) {
	addrs := item.Addresses(to)
	if len(addrs) == 0 {
		return "No recipient could be determined", true
	}
	for _, addr := range addrs {
		domain := Domain(addr)
		if domain == "" {
			return fmt.Sprintf("Recipient %q has no domain", addr), true
		}
		if _, ok := p.knownDomains[domain]; !ok {
			return fmt.Sprintf("Recipient %s is an external contact", addr), true
		}
	}
	return "", false
}

func (p *Policy) sensitiveKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range p.keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

// Domain returns the lower-cased domain part of an address.
func Domain(addr string) string {
	i := strings.LastIndex(addr, "@")
	if i < 0 || i == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr[i+1:]))
}
