package models

// BodyKind tells the client how to display a RenderedBody.
type BodyKind string

const (
	BodyHTML BodyKind = "html"
	BodyText BodyKind = "text"
	BodyNone BodyKind = "none"
)

// RenderedBody is the single body chosen for display.
type RenderedBody struct {
	Kind    BodyKind `json:"type"`
	Content string   `json:"data"`
}

// Recipient is one parsed address from a From/To/Cc/Bcc header.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AttachmentRef points at an attachment of a specific message.
type AttachmentRef struct {
	Filename     string `json:"filename"`
	AttachmentID string `json:"attachmentId"`
	MimeType     string `json:"mimeType,omitempty"`
	Size         int64  `json:"size"`
}

// RenderedMessage is the per-message view model of a thread.
type RenderedMessage struct {
	ID             string          `json:"id"`
	SenderName     string          `json:"senderName"`
	SenderEmail    string          `json:"senderEmail"`
	ReceiverName   string          `json:"receiverName"`
	RecipientsTo   []Recipient     `json:"to"`
	RecipientsCc   []Recipient     `json:"cc"`
	RecipientsBcc  []Recipient     `json:"bcc"`
	IsSent         bool            `json:"isSent"`
	WasBlindCopied bool            `json:"wasBlindCopied"`
	Body           RenderedBody    `json:"message"`
	Attachments    []AttachmentRef `json:"attachments"`
	TimestampMs    int64           `json:"time"`
	Labels         []string        `json:"labels"`
	IsStarred      bool            `json:"isStarred"`
}

// RenderedThread lists messages oldest to newest, as returned by the provider.
type RenderedThread struct {
	ThreadID string            `json:"threadId"`
	Subject  string            `json:"subject"`
	Messages []RenderedMessage `json:"threads"`
}

// MessageSummary is the condensed metadata shown in mailbox listings.
type MessageSummary struct {
	MessageID   string    `json:"messageId"`
	ThreadID    string    `json:"threadId"`
	TimestampMs int64     `json:"time"`
	Labels      []string  `json:"labelIds"`
	IsRead      bool      `json:"isRead"`
	Subject     string    `json:"subject"`
	Sender      Recipient `json:"sender"`
}

// MailboxPage is one page of a label listing.
type MailboxPage struct {
	Items          []MessageSummary `json:"messages"`
	NextPageCursor string           `json:"nextPageToken"`
	TotalEstimate  int64            `json:"resultSizeEstimate"`
}

// MailboxSnapshot maps a view name to its page. It is either complete or not
// returned at all.
type MailboxSnapshot map[string]MailboxPage

// Attachment is a decoded attachment ready to be streamed to a client.
type Attachment struct {
	MimeType string
	Filename string
	Data     []byte
}
