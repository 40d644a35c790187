// Package vault implements the directory-backed item store. Each stage of the
// pipeline is a subdirectory of the vault root and the presence of a file in a
// stage directory is that item's state.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNotFound is returned when an item does not exist in the requested stage.
	ErrNotFound = errors.New("item not found")
	// ErrConflict is returned when a move would overwrite an existing item.
	ErrConflict = errors.New("item already exists in destination stage")
)

// DefaultPattern matches the markdown documents produced by watchers.
const DefaultPattern = "*.md"

// LogsDir holds the per-day action log files. It is not a stage.
const LogsDir = "Logs"

// Entry describes one item file found in a stage directory.
type Entry struct {
	Name    string
	Stage   Stage
	Path    string
	ModTime time.Time
}

// Vault is the root of the stage directory hierarchy.
type Vault struct {
	root    string
	pattern string
}

// Option customizes a Vault during construction.
type Option func(*Vault)

// WithPattern sets the doublestar pattern item file names must match.
func WithPattern(pattern string) Option {
	return func(v *Vault) {
		if pattern != "" {
			v.pattern = pattern
		}
	}
}

// New returns a vault rooted at root.
func New(root string, opts ...Option) *Vault {
	v := &Vault{root: root, pattern: DefaultPattern}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Root returns the vault root directory.
func (v *Vault) Root() string { return v.root }

// Pattern returns the item file name pattern.
func (v *Vault) Pattern() string { return v.pattern }

// Dir returns the absolute directory for a stage.
func (v *Vault) Dir(stage Stage) string {
	return filepath.Join(v.root, stage.Dir())
}

// Path returns the path an item with the given name has in a stage.
func (v *Vault) Path(stage Stage, name string) string {
	return filepath.Join(v.Dir(stage), name)
}

// LogsPath returns the directory holding action logs.
func (v *Vault) LogsPath() string {
	return filepath.Join(v.root, LogsDir)
}

// Ensure creates every stage directory and the logs directory.
func (v *Vault) Ensure() error {
	dirs := make([]string, 0, len(Stages)+1)
	for _, s := range Stages {
		dirs = append(dirs, v.Dir(s))
	}
	dirs = append(dirs, v.LogsPath())

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Missing returns the stages whose directories do not exist.
func (v *Vault) Missing() []Stage {
	var missing []Stage
	for _, s := range Stages {
		info, err := os.Stat(v.Dir(s))
		if err != nil || !info.IsDir() {
			missing = append(missing, s)
		}
	}
	return missing
}

// Matches reports whether a file name is treated as an item.
func (v *Vault) Matches(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	for _, suffix := range []string{".tmp", ".swp", ".swx", "~"} {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	ok, err := doublestar.Match(v.pattern, name)
	return err == nil && ok
}

// List returns the items in a stage, oldest modification time first.
// A missing stage directory yields an empty list.
func (v *Vault) List(stage Stage) ([]Entry, error) {
	dir := v.Dir(stage)
	des, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", stage, err)
	}

	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		if de.IsDir() || !v.Matches(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Stage:   stage,
			Path:    filepath.Join(dir, de.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ModTime.Before(entries[j].ModTime)
	})

	return entries, nil
}

// Count returns the number of items in every stage.
func (v *Vault) Count() (map[Stage]int, error) {
	counts := make(map[Stage]int, len(Stages))
	for _, s := range Stages {
		entries, err := v.List(s)
		if err != nil {
			return nil, err
		}
		counts[s] = len(entries)
	}
	return counts, nil
}

// Exists reports whether an item is present in a stage.
func (v *Vault) Exists(stage Stage, name string) bool {
	info, err := os.Stat(v.Path(stage, name))
	return err == nil && !info.IsDir()
}

// Read returns the content of an item.
func (v *Vault) Read(stage Stage, name string) (string, error) {
	data, err := os.ReadFile(v.Path(stage, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s/%s: %w", stage, name, ErrNotFound)
		}
		return "", fmt.Errorf("read %s/%s: %w", stage, name, err)
	}
	return string(data), nil
}

// Write stores content as an item in a stage. An existing item with the same
// name is replaced. The write goes through a temp file so readers never see a
// partial document.
func (v *Vault) Write(stage Stage, name, content string) error {
	if err := validName(name); err != nil {
		return err
	}
	dir := v.Dir(stage)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return WriteFileAtomic(filepath.Join(dir, name), []byte(content))
}

// Move transitions an item between stages with a single rename. It refuses to
// overwrite an item of the same name already present in the destination.
func (v *Vault) Move(name string, from, to Stage) error {
	return v.rename(name, from, name, to)
}

// MoveUnique moves an item like Move but never fails on a name clash: when
// the destination already holds name, the item is stored under the first
// free name from FreeName. It returns the name used.
func (v *Vault) MoveUnique(name string, from, to Stage) (string, error) {
	dst := v.FreeName(name, to)
	if err := v.rename(name, from, dst, to); err != nil {
		return "", err
	}
	return dst, nil
}

// FreeName returns name if no stage in stages holds it, otherwise the first
// "<stem>_<n><ext>" (n from 2) that none of them holds.
func (v *Vault) FreeName(name string, stages ...Stage) string {
	taken := func(candidate string) bool {
		for _, s := range stages {
			if v.Exists(s, candidate) {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (v *Vault) rename(name string, from Stage, newName string, to Stage) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := validName(newName); err != nil {
		return err
	}
	src := v.Path(from, name)
	dst := v.Path(to, newName)

	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", from, name, ErrNotFound)
		}
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%s/%s: %w", to, newName, ErrConflict)
	}
	if err := os.MkdirAll(v.Dir(to), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", v.Dir(to), err)
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s from %s to %s: %w", name, from, to, err)
	}
	return nil
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid item name %q", name)
	}
	return nil
}
