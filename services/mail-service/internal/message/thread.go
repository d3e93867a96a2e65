package message

import (
	"strings"

	"github.com/stoik/mailview/internal/models"
	"github.com/stoik/mailview/services/mail-service/internal/apperr"
)

// Provider labels that drive derived flags.
const (
	LabelUnread  = "UNREAD"
	LabelStarred = "STARRED"
	LabelBcc     = "BCC"
)

// AssembleThread renders every message of a thread for userEmail, keeping the
// provider's order. The subject comes from the first message present. A thread
// with no messages is a not-found condition.
func AssembleThread(thread *models.Thread, userEmail string) (models.RenderedThread, error) {
	if thread == nil {
		return models.RenderedThread{}, apperr.NotFoundf("Thread not found or is empty.")
	}

	rendered := models.RenderedThread{
		ThreadID: thread.ID,
		Messages: make([]models.RenderedMessage, 0, len(thread.Messages)),
	}
	for _, msg := range thread.Messages {
		if msg == nil {
			continue
		}
		if len(rendered.Messages) == 0 {
			rendered.Subject = msg.Header(HeaderSubject)
		}
		rendered.Messages = append(rendered.Messages, RenderMessage(msg, userEmail))
	}
	if len(rendered.Messages) == 0 {
		return models.RenderedThread{}, apperr.NotFoundf("Thread not found or is empty.")
	}
	return rendered, nil
}

// RenderMessage builds the view model of one message.
func RenderMessage(msg *models.Message, userEmail string) models.RenderedMessage {
	from := msg.Header(HeaderFrom)
	to := ParseRecipients(msg.Header(HeaderTo))

	sender := models.Recipient{Name: from}
	if senders := ParseRecipients(from); len(senders) > 0 {
		sender = senders[0]
	}
	var receiverName string
	if len(to) > 0 {
		receiverName = to[0].Name
	}

	labels := msg.LabelIDs
	if labels == nil {
		labels = []string{}
	}
	parts := msg.BodyParts()

	return models.RenderedMessage{
		ID:             msg.ID,
		SenderName:     sender.Name,
		SenderEmail:    sender.Email,
		ReceiverName:   receiverName,
		RecipientsTo:   to,
		RecipientsCc:   ParseRecipients(msg.Header(HeaderCc)),
		RecipientsBcc:  ParseRecipients(msg.Header(HeaderBcc)),
		IsSent:         IsSentBy(from, userEmail),
		WasBlindCopied: msg.HasLabel(LabelBcc),
		Body:           Render(parts),
		Attachments:    Attachments(parts),
		TimestampMs:    msg.InternalDate,
		Labels:         labels,
		IsStarred:      msg.HasLabel(LabelStarred),
	}
}

// IsSentBy reports whether the From header contains userEmail. This is a
// case-insensitive substring test, so an address that merely contains
// userEmail also matches.
func IsSentBy(from, userEmail string) bool {
	if userEmail == "" {
		return false
	}
	return strings.Contains(strings.ToLower(from), strings.ToLower(userEmail))
}
