// Package actionlog records every side-effecting action the engine takes.
// Entries are appended to one JSON-lines file per calendar day and are never
// rewritten.
package actionlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status is the outcome of a logged action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// DefaultActor is recorded when no actor is configured.
const DefaultActor = "orchestrator"

const dateLayout = "2006-01-02"

// Entry is one line of the action log.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	ActionType string    `json:"action_type"`
	Actor      string    `json:"actor"`
	Details    string    `json:"details"`
	Status     Status    `json:"status"`
}

// Log appends entries under a directory.
type Log struct {
	dir   string
	actor string
	now   func() time.Time
	mu    sync.Mutex
}

// Option customizes a Log.
type Option func(*Log)

// WithClock overrides the clock used for timestamps and file selection.
func WithClock(clock func() time.Time) Option {
	return func(l *Log) { l.now = clock }
}

// WithActor sets the actor recorded on entries.
func WithActor(actor string) Option {
	return func(l *Log) { l.actor = actor }
}

// New creates a log writing into dir.
func New(dir string, opts ...Option) *Log {
	l := &Log{dir: dir, actor: DefaultActor, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the directory holding the log files.
func (l *Log) Dir() string { return l.dir }

// Path returns the file entries for the given day go to.
func (l *Log) Path(day time.Time) string {
	return filepath.Join(l.dir, day.Format(dateLayout)+".jsonl")
}

// Append writes an entry. Zero Timestamp and empty Actor are filled in.
func (l *Log) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if e.Actor == "" {
		e.Actor = l.actor
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(l.Path(e.Timestamp), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

// Success appends a successful action.
func (l *Log) Success(actionType, details string) error {
	return l.Append(Entry{ActionType: actionType, Details: details, Status: StatusSuccess})
}

// Failure appends a failed action.
func (l *Log) Failure(actionType, details string) error {
	return l.Append(Entry{ActionType: actionType, Details: details, Status: StatusFailed})
}

// Read returns the entries logged on day. A day without a file has no entries.
// Lines that do not decode are skipped.
func (l *Log) Read(day time.Time) ([]Entry, error) {
	f, err := os.Open(l.Path(day))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read log file: %w", err)
	}
	return entries, nil
}

// ParseDay parses a YYYY-MM-DD date in the local time zone.
func ParseDay(v string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, v, time.Local)
}
