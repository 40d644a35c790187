// Package item defines the ActionItem, a vault document with a structured
// header and a free-text body.
package item

import (
	"net/mail"
	"strings"
	"time"

	"github.com/subhankaladi/ai-employee/internal/core/frontmatter"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// Header keys written by watchers and by the plan generator.
const (
	KeyType      = "type"
	KeyFrom      = "from"
	KeyTo        = "to"
	KeySubject   = "subject"
	KeyReceived  = "received"
	KeyPriority  = "priority"
	KeyStatus    = "status"
	KeyMessageID = "message_id"
	KeyAction    = "action"
)

// BodySections are the headings watchers put the original message under.
var BodySections = []string{"Email Content", "Message", "Content"}

// ActionItem is one document in the vault. Its identity is the file name,
// which stays the same across stage moves.
type ActionItem struct {
	Name    string
	Stage   vault.Stage
	ModTime time.Time
	Doc     frontmatter.Document
}

// New parses content into an ActionItem.
func New(name string, stage vault.Stage, content string) ActionItem {
	return ActionItem{
		Name:  name,
		Stage: stage,
		Doc:   frontmatter.Parse(content),
	}
}

// Load reads and parses a listed vault entry.
func Load(v *vault.Vault, e vault.Entry) (ActionItem, error) {
	content, err := v.Read(e.Stage, e.Name)
	if err != nil {
		return ActionItem{}, err
	}
	it := New(e.Name, e.Stage, content)
	it.ModTime = e.ModTime
	return it, nil
}

// Key identifies the item within its stage, e.g. "needs_action/EMAIL_1.md".
func (i ActionItem) Key() string {
	return string(i.Stage) + "/" + i.Name
}

// Get returns a header field or def when it is missing or empty.
func (i ActionItem) Get(key, def string) string {
	return i.Doc.Header.Get(key, def)
}

func (i ActionItem) Type() string { return i.Get(KeyType, "") }
func (i ActionItem) From() string { return i.Get(KeyFrom, "") }
func (i ActionItem) To() string { return i.Get(KeyTo, "") }
func (i ActionItem) Subject() string { return i.Get(KeySubject, "") }
func (i ActionItem) Received() string { return i.Get(KeyReceived, "") }
func (i ActionItem) Priority() string { return i.Get(KeyPriority, "normal") }
func (i ActionItem) Status() string { return i.Get(KeyStatus, "") }
func (i ActionItem) MessageID() string { return i.Get(KeyMessageID, "") }
func (i ActionItem) Action() string { return i.Get(KeyAction, "") }

// Kind is the item type used in generated file names. Defaults to "email".
func (i ActionItem) Kind() string {
	kind := strings.ToLower(strings.TrimSpace(i.Type()))
	if kind == "" {
		return "email"
	}
	return strings.NewReplacer(" ", "_", "/", "_").Replace(kind)
}

// Body returns the complete body text.
func (i ActionItem) Body() string {
	return i.Doc.Body
}

// Message returns the original message text under a known heading, falling
// back to the body with headings stripped.
func (i ActionItem) Message() string {
	return i.Doc.Section(BodySections...)
}

// Reply returns the drafted reply of a request document, with any line
// escaping from rendering undone.
func (i ActionItem) Reply() string {
	return frontmatter.UnescapeBlock(i.Doc.Section(frontmatter.ReplySections...))
}

// Text is the subject and body joined, used for keyword matching.
func (i ActionItem) Text() string {
	return i.Subject() + "\n" + i.Body()
}

// ReplyAddress returns the bare address of the sender, for replies.
func (i ActionItem) ReplyAddress() string {
	return Address(i.From())
}

// ShortID derives a stable short identifier: the first 8 characters of the
// message id, or of a timestamp when the item has none. Two items without ids
// on the same day share an id.
func (i ActionItem) ShortID(now time.Time) string {
	id := i.MessageID()
	if id == "" {
		id = now.Format("20060102_150405")
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

// Address extracts the bare address from "Name <addr>" or returns the trimmed
// input when it is not in that form.
func Address(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(v); err == nil {
		return addr.Address
	}
	if i := strings.LastIndex(v, "<"); i >= 0 {
		return strings.TrimSpace(strings.TrimSuffix(v[i+1:], ">"))
	}
	return v
}

// Addresses splits a comma separated recipient list into bare addresses.
func Addresses(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	if list, err := mail.ParseAddressList(v); err == nil {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.Address)
		}
		return out
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if a := Address(part); a != "" {
			out = append(out, a)
		}
	}
	return out
}
