// Package mailbox serves mailbox listings, rendered threads and attachment
// downloads on top of a mail Provider.
package mailbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stoik/mailview/internal/models"
	"github.com/stoik/mailview/services/mail-service/internal/apperr"
	"github.com/stoik/mailview/services/mail-service/internal/logger"
	"github.com/stoik/mailview/services/mail-service/internal/message"
	"github.com/stoik/mailview/services/mail-service/internal/provider"
)

const (
	DefaultPageSize = 20

	NoSubject     = "(No Subject)"
	UnknownSender = "Unknown"

	labelUnread = "UNREAD"
)

// Views are the mailbox tabs returned together by Snapshot, in display order.
var Views = []string{"inbox", "sent", "drafts", "archive", "spam"}

// metadataHeaders are the only headers requested for listing rows.
var metadataHeaders = []string{message.HeaderSubject, message.HeaderFrom}

// Query returns the provider search query for a mailbox view.
func Query(view string) (string, error) {
	for _, v := range Views {
		if v == view {
			return "in:" + view, nil
		}
	}
	return "", apperr.Invalid(fmt.Sprintf("Unknown mailbox view %q.", view))
}

type Service struct {
	provider provider.Provider
	pageSize int64
}

// NewService creates a mailbox service. A non-positive pageSize selects
// DefaultPageSize.
func NewService(p provider.Provider, pageSize int64) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{provider: p, pageSize: pageSize}
}

// FetchPage lists one page of messages matching query and fetches the
// metadata of every listed message in parallel. Any failed fetch fails the
// page.
func (s *Service) FetchPage(ctx context.Context, token, cursor, query string) (models.MailboxPage, error) {
	if token == "" {
		return models.MailboxPage{}, apperr.Invalid("Access token is missing.")
	}

	list, err := s.provider.ListMessages(ctx, token, query, cursor, s.pageSize)
	if err != nil {
		return models.MailboxPage{}, err
	}

	page := models.MailboxPage{
		Items:          make([]models.MessageSummary, len(list.Refs)),
		NextPageCursor: list.NextPageToken,
		TotalEstimate:  list.ResultSizeEstimate,
	}
	if len(list.Refs) == 0 {
		return page, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range list.Refs {
		g.Go(func() error {
			msg, err := s.provider.GetMessageMetadata(gctx, token, ref.ID, metadataHeaders...)
			if err != nil {
				return err
			}
			page.Items[i] = summarize(msg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Logger.Warn("Failed to fetch page metadata",
			zap.String("query", query),
			zap.Int("messages", len(list.Refs)),
			zap.Error(err),
		)
		return models.MailboxPage{}, err
	}
	return page, nil
}

// summarize builds a listing row from a metadata-only message.
func summarize(msg *models.Message) models.MessageSummary {
	subject := msg.Header(message.HeaderSubject)
	if subject == "" {
		subject = NoSubject
	}

	sender := models.Recipient{Name: UnknownSender}
	if msg.Payload.HasHeader(message.HeaderFrom) {
		sender = message.ParseSender(msg.Header(message.HeaderFrom))
	}

	labels := msg.LabelIDs
	if labels == nil {
		labels = []string{}
	}

	return models.MessageSummary{
		MessageID:   msg.ID,
		ThreadID:    msg.ThreadID,
		TimestampMs: msg.InternalDate,
		Labels:      labels,
		IsRead:      !msg.HasLabel(labelUnread),
		Subject:     subject,
		Sender:      sender,
	}
}

// Snapshot fetches the first (or cursor-selected) page of every view
// concurrently. It returns either all views or an error.
func (s *Service) Snapshot(ctx context.Context, token string, cursors map[string]string) (models.MailboxSnapshot, error) {
	if token == "" {
		return nil, apperr.Invalid("Access token is missing.")
	}

	pages := make([]models.MailboxPage, len(Views))
	g, gctx := errgroup.WithContext(ctx)
	for i, view := range Views {
		g.Go(func() error {
			query, err := Query(view)
			if err != nil {
				return err
			}
			page, err := s.FetchPage(gctx, token, cursors[view], query)
			if err != nil {
				return fmt.Errorf("view %s: %w", view, err)
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := make(models.MailboxSnapshot, len(Views))
	for i, view := range Views {
		snapshot[view] = pages[i]
	}
	return snapshot, nil
}

// SameCursor applies one cursor to every view.
func SameCursor(cursor string) map[string]string {
	cursors := make(map[string]string, len(Views))
	for _, v := range Views {
		cursors[v] = cursor
	}
	return cursors
}

// Page fetches a single view, used for "load more" on one tab.
func (s *Service) Page(ctx context.Context, token, cursor, view string) (models.MailboxPage, error) {
	if token == "" {
		return models.MailboxPage{}, apperr.Invalid("Access token is missing.")
	}
	query, err := Query(view)
	if err != nil {
		return models.MailboxPage{}, err
	}
	return s.FetchPage(ctx, token, cursor, query)
}

// Thread marks messageID read, then fetches and renders threadID for userEmail.
func (s *Service) Thread(ctx context.Context, token, messageID, threadID, userEmail string) (models.RenderedThread, error) {
	if token == "" || messageID == "" || threadID == "" {
		return models.RenderedThread{}, apperr.Invalid("Missing required parameters.")
	}

	if err := s.provider.MarkRead(ctx, token, messageID); err != nil {
		return models.RenderedThread{}, err
	}

	thread, err := s.provider.GetThread(ctx, token, threadID)
	if err != nil {
		return models.RenderedThread{}, err
	}

	rendered, err := message.AssembleThread(thread, userEmail)
	if err != nil {
		logger.Logger.Info("Thread empty", zap.String("threadId", threadID))
		return models.RenderedThread{}, err
	}
	return rendered, nil
}

// Attachment resolves an attachment in messageID's part tree and downloads it.
// filenameHint is only used when no part carries attachmentID.
func (s *Service) Attachment(ctx context.Context, token, messageID, attachmentID, filenameHint string) (*models.Attachment, error) {
	if token == "" || messageID == "" || attachmentID == "" {
		return nil, apperr.Invalid("Missing required parameters.")
	}

	msg, err := s.provider.GetMessage(ctx, token, messageID)
	if err != nil {
		return nil, err
	}

	var parts []*models.Part
	if msg.Payload != nil {
		parts = []*models.Part{msg.Payload}
	}
	part := message.ResolveAttachment(parts, attachmentID, filenameHint)
	if part == nil {
		logger.Logger.Info("Attachment not found",
			zap.String("messageId", messageID),
			zap.String("attachmentId", attachmentID),
			zap.String("filename", filenameHint),
		)
		return nil, apperr.NotFoundf("Attachment not found.")
	}

	// The id in the request is the one the provider will accept; the id on a
	// freshly fetched part may differ.
	data, err := s.provider.GetAttachment(ctx, token, messageID, attachmentID)
	if err != nil {
		return nil, err
	}

	mimeType := part.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &models.Attachment{
		MimeType: mimeType,
		Filename: message.AttachmentFilename(part),
		Data:     data,
	}, nil
}
