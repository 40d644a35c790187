// Package dashboard keeps the counters of the vault's status document current.
//
// Only the frontmatter "last_updated" field and table rows of the form
// "| **Label** | 12 |" are touched; everything else in the document is left
// byte for byte as it was.
package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/subhankaladi/ai-employee/internal/core/frontmatter"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// DefaultFile is the dashboard document name relative to the vault root.
const DefaultFile = "Dashboard.md"

// Row binds a table label to the stage whose item count it shows.
type Row struct {
	Label string
	Stage vault.Stage
}

// DefaultRows are the rows the stock dashboard carries.
var DefaultRows = []Row{
	{Label: "Pending Items", Stage: vault.StageNeedsAction},
	{Label: "Awaiting Approval", Stage: vault.StagePendingApproval},
}

// Counts holds the number of items per stage.
type Counts map[vault.Stage]int

const lastUpdatedKey = "last_updated:"

// Rewrite returns content with the timestamp and row counts replaced.
// Rows missing from content stay missing.
func Rewrite(content string, counts Counts, rows []Row, now time.Time) string {
	lines := strings.Split(content, "\n")

	start, end, hasHeader := frontmatter.Bounds(lines)
	if hasHeader {
		for i := start + 1; i < end; i++ {
			if strings.HasPrefix(lines[i], lastUpdatedKey) {
				eol := ""
				if strings.HasSuffix(lines[i], "\r") {
					eol = "\r"
				}
				lines[i] = lastUpdatedKey + " " + now.Format(time.RFC3339) + eol
			}
		}
	}

	matchers := make([]*regexp.Regexp, len(rows))
	for i, r := range rows {
		matchers[i] = rowPattern(r.Label)
	}

	for i, line := range lines {
		if hasHeader && i <= end {
			continue
		}
		for j, re := range matchers {
			loc := re.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			// loc[2:4] is the count group
			lines[i] = line[:loc[2]] + strconv.Itoa(counts[rows[j].Stage]) + line[loc[3]:]
			break
		}
	}

	return strings.Join(lines, "\n")
}

func rowPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`^\| \*\*` + regexp.QuoteMeta(label) + `\*\* \| (\d+) \|`)
}

// Synchronizer rewrites a dashboard file in place.
type Synchronizer struct {
	path string
	rows []Row
}

// New returns a synchronizer for the dashboard at path. A nil rows slice
// means DefaultRows.
func New(path string, rows []Row) *Synchronizer {
	if rows == nil {
		rows = DefaultRows
	}
	return &Synchronizer{path: path, rows: rows}
}

// Path returns the dashboard file path.
func (s *Synchronizer) Path() string { return s.path }

// Sync updates the dashboard. It never creates the file: a missing dashboard
// is a no-op. The file is only written when its content changes. It reports
// whether a write happened.
func (s *Synchronizer) Sync(counts Counts, now time.Time) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read dashboard: %w", err)
	}

	updated := Rewrite(string(data), counts, s.rows, now)
	if updated == string(data) {
		return false, nil
	}

	if err := vault.WriteFileAtomic(s.path, []byte(updated)); err != nil {
		return false, fmt.Errorf("write dashboard: %w", err)
	}
	return true, nil
}

// Template is the starter dashboard written by "employee init".
func Template(now time.Time) string {
	return fmt.Sprintf(`---
last_updated: %s
---

# AI Employee Dashboard

## Status

| Metric | Value |
|--------|-------|
| **Pending Items** | 0 |
| **Awaiting Approval** | 0 |

## Recent Activity

*No activity yet.*
`, now.Format(time.RFC3339))
}
