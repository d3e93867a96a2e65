package models

import "strings"

// Header is a single name/value header line attached to a message part.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PartBody holds either inline transport-encoded data or a reference to an
// attachment that must be fetched separately.
type PartBody struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	Data         string `json:"data,omitempty"` // URL-safe base64 as sent by the provider
	Size         int64  `json:"size"`
}

// Part is a node in a message's content tree. Leaves carry a body, branches
// carry child parts. Depth is provider-controlled.
type Part struct {
	PartID   string   `json:"partId,omitempty"`
	MimeType string   `json:"mimeType"`
	Filename string   `json:"filename,omitempty"`
	Headers  []Header `json:"headers,omitempty"`
	Body     PartBody `json:"body"`
	Parts    []*Part  `json:"parts,omitempty"`
}

// IsLeaf reports whether the part has no children.
func (p *Part) IsLeaf() bool {
	return len(p.Parts) == 0
}

// Header returns the value of the first header called name, or "" when the
// part has no such header. Names are compared case-insensitively.
func (p *Part) Header(name string) string {
	if p == nil {
		return ""
	}
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// HasHeader reports whether a header called name is present at all.
func (p *Part) HasHeader(name string) bool {
	if p == nil {
		return false
	}
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// Message is a provider message as fetched from the mail API, independent of
// the provider SDK types.
type Message struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds,omitempty"`
	Snippet      string   `json:"snippet,omitempty"`
	InternalDate int64    `json:"internalDate"` // milliseconds since epoch
	Payload      *Part    `json:"payload,omitempty"`
}

// HasLabel reports whether the message carries label.
func (m *Message) HasLabel(label string) bool {
	for _, l := range m.LabelIDs {
		if l == label {
			return true
		}
	}
	return false
}

// Header is a shortcut for the top-level payload header lookup.
func (m *Message) Header(name string) string {
	return m.Payload.Header(name)
}

// BodyParts returns the part list used for rendering. A message without a
// parts array is treated as a single-part tree made of its payload.
func (m *Message) BodyParts() []*Part {
	if m.Payload == nil {
		return nil
	}
	if len(m.Payload.Parts) > 0 {
		return m.Payload.Parts
	}
	return []*Part{m.Payload}
}

// Thread is an ordered list of messages sharing a provider thread id.
type Thread struct {
	ID       string     `json:"id"`
	Messages []*Message `json:"messages,omitempty"`
}

// MessageRef identifies a message returned by a list call.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}
