package mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/gmail/v1"
)

var (
	firstNames = []string{"John", "Jane", "Bob", "Alice", "Charlie", "Diana", "Eve", "Frank"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}
	domains    = []string{"example.com", "company.com", "business.org", "enterprise.net"}
	subjects   = []string{
		"Meeting tomorrow",
		"Project update",
		"Budget review",
		"Team lunch",
		"Quarterly report",
		"Client feedback",
		"Urgent: Action required",
		"Follow up",
	}
	// Label sets cycled over generated messages so every mailbox view has content.
	labelSets = [][]string{
		{"INBOX", "UNREAD", "CATEGORY_PERSONAL"},
		{"INBOX", "CATEGORY_UPDATES"},
		{"SENT"},
		{"DRAFT"},
		{"SPAM", "UNREAD"},
		{"CATEGORY_PERSONAL"}, // archived
		{"INBOX", "STARRED"},
	}
)

// NewID returns a provider-style hex message id.
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}

// Encode applies the provider's inline body encoding.
func Encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

// Seed fills store with count generated messages addressed to owner, plus one
// two-message conversation with a quoted reply and a PDF attachment.
func Seed(store *Store, owner string, count int, now time.Time) {
	for i := 0; i < count; i++ {
		store.Add(generateMessage(owner, i, now.Add(-time.Duration(i)*time.Hour)))
	}
	seedConversation(store, owner, now)
}

// GeneratePeriodically delivers 0-3 new inbox messages to owner every interval
// until ctx is done.
func GeneratePeriodically(ctx context.Context, store *Store, owner string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	index := 0
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for n := rand.Intn(4); n > 0; n-- {
				msg := generateMessage(owner, index*len(labelSets), now.Add(-time.Duration(rand.Intn(30))*time.Second))
				store.Add(msg)
				index++
			}
		}
	}
}

func generateMessage(owner string, index int, receivedAt time.Time) *gmail.Message {
	firstName := firstNames[index%len(firstNames)]
	lastName := lastNames[index%len(lastNames)]
	domain := domains[index%len(domains)]
	subject := fmt.Sprintf("%s [%d]", subjects[rand.Intn(len(subjects))], index)
	sender := fmt.Sprintf("%s %s <%s.%s@%s>", firstName, lastName, strings.ToLower(firstName), strings.ToLower(lastName), domain)
	labels := append([]string(nil), labelSets[index%len(labelSets)]...)

	from, to := sender, owner
	if contains(labels, "SENT") || contains(labels, "DRAFT") {
		from, to = owner, sender
	}

	text := fmt.Sprintf("Hi,\n\nThis is mock message %d about %q.\n\nBest regards,\n%s", index, subject, firstName)
	html := fmt.Sprintf("<div dir=\"ltr\"><p>Hi,</p><p>This is mock message %d about %q.</p><p>Best regards,<br>%s</p></div>", index, subject, firstName)

	id := NewID()
	return &gmail.Message{
		Id:           id,
		ThreadId:     id,
		LabelIds:     labels,
		Snippet:      fmt.Sprintf("This is mock message %d", index),
		InternalDate: receivedAt.UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "To", Value: to},
				{Name: "Subject", Value: subject},
				{Name: "Date", Value: receivedAt.Format(time.RFC1123Z)},
			},
			Parts: []*gmail.MessagePart{
				{PartId: "0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: Encode(text), Size: int64(len(text))}},
				{PartId: "1", MimeType: "text/html", Body: &gmail.MessagePartBody{Data: Encode(html), Size: int64(len(html))}},
			},
		},
	}
}

func seedConversation(store *Store, owner string, now time.Time) {
	threadID := NewID()
	firstID, replyID := threadID, NewID()
	attachmentID := "ANGjdJ" + NewID()
	pdf := []byte("%PDF-1.4 mock deck")

	first := "<div dir=\"ltr\">Here is the deck for Thursday.</div>"
	reply := "<div dir=\"ltr\">Thanks, I will review it tonight.</div><br>" +
		"<div class=\"gmail_quote gmail_quote_container\"><div dir=\"ltr\" class=\"gmail_attr\">On Thu, Diana Garcia wrote:<br></div>" +
		"<blockquote class=\"gmail_quote\">" + first + "</blockquote></div>"

	store.Add(&gmail.Message{
		Id:           firstID,
		ThreadId:     threadID,
		LabelIds:     []string{"INBOX", "IMPORTANT"},
		Snippet:      "Here is the deck for Thursday.",
		InternalDate: now.Add(-2 * time.Hour).UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Diana Garcia <diana.garcia@business.org>"},
				{Name: "To", Value: owner},
				{Name: "Cc", Value: `"Smith, John" <john.smith@example.com>`},
				{Name: "Subject", Value: "Thursday deck"},
			},
			Parts: []*gmail.MessagePart{
				{
					PartId:   "0",
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{PartId: "0.0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: Encode("Here is the deck for Thursday.")}},
						{PartId: "0.1", MimeType: "text/html", Body: &gmail.MessagePartBody{Data: Encode(first)}},
					},
				},
				{
					PartId:   "1",
					MimeType: "application/pdf",
					Filename: "deck.pdf",
					Body:     &gmail.MessagePartBody{AttachmentId: attachmentID, Size: int64(len(pdf))},
				},
			},
		},
	})
	store.AddAttachment(firstID, attachmentID, pdf)

	store.Add(&gmail.Message{
		Id:           replyID,
		ThreadId:     threadID,
		LabelIds:     []string{"SENT"},
		Snippet:      "Thanks, I will review it tonight.",
		InternalDate: now.Add(-1 * time.Hour).UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: owner},
				{Name: "To", Value: "Diana Garcia <diana.garcia@business.org>"},
				{Name: "Subject", Value: "Re: Thursday deck"},
			},
			Parts: []*gmail.MessagePart{
				{PartId: "0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: Encode("Thanks, I will review it tonight.\n\nOn Thu, Diana Garcia wrote:\n> Here is the deck")}},
				{PartId: "1", MimeType: "text/html", Body: &gmail.MessagePartBody{Data: Encode(reply)}},
			},
		},
	})
}
