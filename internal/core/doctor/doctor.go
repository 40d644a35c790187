// Package doctor runs health checks against an employee vault and its
// surrounding setup before the engine is trusted to run unattended.
package doctor

import (
	"context"
	"fmt"
	"strings"
)

// Status is the outcome of one checked item.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckItem is a single line of a check, such as one stage directory or one
// external command.
type CheckItem struct {
	Label   string `json:"label"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Fixable bool   `json:"fixable,omitempty"`
}

// Result groups the items of one check.
type Result struct {
	Name  string      `json:"name"`
	Items []CheckItem `json:"items"`
}

// Check inspects one area: configuration, vault layout, tools or the run lock.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// RunAll executes checks in order. A check with no items is reported as a
// single passing line so every area shows up in the report.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		result := check.Run(ctx)
		if result.Name == "" {
			result.Name = check.Name()
		}
		if len(result.Items) == 0 {
			result.Items = []CheckItem{{Label: "nothing to check", Status: StatusPass}}
		}
		results = append(results, result)
	}
	return results
}

// Report tallies a doctor run.
type Report struct {
	Passed  int `json:"passed"`
	Warned  int `json:"warned"`
	Failed  int `json:"failed"`
	Fixable int `json:"fixable"`
}

// Summarize counts item outcomes. Fixable counts only items that are not
// passing, since those are what --autofix would change.
func Summarize(results []Result) Report {
	var r Report
	for _, res := range results {
		for _, item := range res.Items {
			switch item.Status {
			case StatusPass:
				r.Passed++
			case StatusWarn:
				r.Warned++
			case StatusFail:
				r.Failed++
			}
			if item.Fixable && item.Status != StatusPass {
				r.Fixable++
			}
		}
	}
	return r
}

// Ready reports whether the engine can run against the vault. Warnings do
// not block a run.
func (r Report) Ready() bool { return r.Failed == 0 }

// Verdict is the one-line conclusion printed under the report.
func (r Report) Verdict() string {
	switch {
	case r.Failed > 0:
		return fmt.Sprintf("Vault is not ready: %s need fixing before 'employee run'", plural(r.Failed, "problem"))
	case r.Warned > 0:
		return fmt.Sprintf("Vault is ready with %s", plural(r.Warned, "warning"))
	default:
		return "Vault is ready"
	}
}

// String renders the counts, e.g. "5 passed, 1 warning, 0 failed".
func (r Report) String() string {
	parts := []string{
		fmt.Sprintf("%d passed", r.Passed),
		plural(r.Warned, "warning"),
		fmt.Sprintf("%d failed", r.Failed),
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
