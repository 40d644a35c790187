// Package frontmatter parses the flat key/value header and markdown body of
// vault documents. Parsing never fails: a missing or malformed header yields an
// empty Header and the whole text as body.
package frontmatter

import (
	"strings"
)

const fence = "---"

// ReplySections are the accepted headings for a drafted reply, in priority order.
var ReplySections = []string{"Suggested Reply", "Reply Content", "Content", "Email Body"}

// Header is an ordered key/value mapping.
type Header struct {
	keys   []string
	values map[string]string
}

// Get returns the value for key, or def when the key is absent or empty.
// This is the "missing field yields default" policy every caller relies on.
func (h Header) Get(key, def string) string {
	if v, ok := h.values[key]; ok && v != "" {
		return v
	}
	return def
}

// Lookup returns the raw value for key and whether it was present.
func (h Header) Lookup(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Keys returns the header keys in document order.
func (h Header) Keys() []string {
	return append([]string(nil), h.keys...)
}

// Len returns the number of keys.
func (h Header) Len() int { return len(h.keys) }

// Map returns a copy of the header as a plain map.
func (h Header) Map() map[string]string {
	m := make(map[string]string, len(h.values))
	for k, v := range h.values {
		m[k] = v
	}
	return m
}

func (h *Header) set(key, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Document is a parsed vault document.
type Document struct {
	Header Header
	// Body is everything after the closing fence, or the whole text when no
	// header was found.
	Body string
	// HasHeader reports whether a fenced header block was found.
	HasHeader bool
}

// Parse splits text into header and body.
//
// The header is the block between the first two "---" lines, where the first
// must be the first non-blank line. Each header line is "key: value"; the value
// is everything after the first colon, trimmed, with one pair of matching
// surrounding quotes removed. Lines without a colon are ignored.
func Parse(text string) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(text, "\n")

	start, end, ok := Bounds(lines)
	if !ok {
		return Document{Body: text}
	}

	var h Header
	for _, line := range lines[start+1 : end] {
		key, value, ok := splitField(line)
		if !ok {
			continue
		}
		h.set(key, value)
	}

	return Document{
		Header:    h,
		Body:      strings.Join(lines[end+1:], "\n"),
		HasHeader: true,
	}
}

// Bounds locates the header fences in lines: the opening "---" must be the
// first non-blank line. Lines may still carry a trailing "\r" and the first a
// byte order mark.
func Bounds(lines []string) (start, end int, ok bool) {
	for start < len(lines) && isBlank(lines[start], start) {
		start++
	}
	if start >= len(lines) || !isFence(lines[start], start) {
		return 0, 0, false
	}
	for i := start + 1; i < len(lines); i++ {
		if isFence(lines[i], i) {
			return start, i, true
		}
	}
	return 0, 0, false
}

func isFence(line string, i int) bool {
	return trimLine(line, i) == fence
}

func isBlank(line string, i int) bool {
	return trimLine(line, i) == ""
}

func trimLine(line string, i int) string {
	if i == 0 {
		line = strings.TrimPrefix(line, "\ufeff")
	}
	return strings.TrimSpace(line)
}

func splitField(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	key, value, ok := strings.Cut(trimmed, ":")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, unquote(strings.TrimSpace(value)), true
}

func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// Section returns the text under the first heading whose title matches one of
// names (case-insensitive, earlier names win). The section ends at the next
// heading or horizontal rule. When no named section has content, Section falls
// back to the whole body with heading lines removed, so callers always get
// some text for a non-empty document.
func (d Document) Section(names ...string) string {
	lines := strings.Split(d.Body, "\n")

	for _, name := range names {
		for i, line := range lines {
			title, ok := headingTitle(line)
			if !ok || !strings.EqualFold(title, name) {
				continue
			}
			if text := collectSection(lines[i+1:]); text != "" {
				return text
			}
		}
	}

	return d.StrippedBody()
}

// StrippedBody returns the body without heading lines, trimmed.
func (d Document) StrippedBody() string {
	var kept []string
	for _, line := range strings.Split(d.Body, "\n") {
		if _, ok := headingTitle(line); ok {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func collectSection(lines []string) string {
	var out []string
	for _, line := range lines {
		if _, ok := headingTitle(line); ok || isRule(line) {
			break
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	title := strings.TrimLeft(trimmed, "#")
	if title != "" && title[0] != ' ' && title[0] != '\t' {
		// "#tag" is not a heading
		return "", false
	}
	return strings.TrimSpace(title), true
}

func isRule(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	for _, marker := range []string{"-", "*", "_"} {
		if strings.Trim(trimmed, marker) == "" {
			return true
		}
	}
	return false
}

// EscapeBlock prefixes a backslash to every line that Section would treat as
// a boundary (headings and horizontal rules) and to lines already starting
// with a backslash, so the text can sit inside a section unchanged.
// UnescapeBlock reverses it.
func EscapeBlock(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if needsEscape(line) {
			lines[i] = insertAtIndent(line, `\`)
		}
	}
	return strings.Join(lines, "\n")
}

// UnescapeBlock removes one leading backslash (after indentation) from each
// line.
func UnescapeBlock(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if strings.HasPrefix(line[indent:], `\`) {
			lines[i] = line[:indent] + line[indent+1:]
		}
	}
	return strings.Join(lines, "\n")
}

func needsEscape(line string) bool {
	if _, ok := headingTitle(line); ok {
		return true
	}
	return isRule(line) || strings.HasPrefix(strings.TrimLeft(line, " \t"), `\`)
}

func insertAtIndent(line, s string) string {
	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	return line[:indent] + s + line[indent:]
}
