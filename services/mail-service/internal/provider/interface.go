package provider

import (
	"context"

	"github.com/stoik/mailview/internal/models"
)

// ListResult is one page of message references.
type ListResult struct {
	Refs               []models.MessageRef
	NextPageToken      string
	ResultSizeEstimate int64
}

// Provider is the mail REST API as seen by the mailbox service. Every call is
// authorized with the caller's access token; failures are *apperr.Error values
// of kind Provider (upstream answered) or Unavailable (no answer).
type Provider interface {
	// ListMessages returns up to pageSize message ids matching query.
	ListMessages(ctx context.Context, token, query, pageToken string, pageSize int64) (*ListResult, error)

	// GetMessageMetadata fetches labels, date and the named top-level headers only.
	GetMessageMetadata(ctx context.Context, token, id string, headers ...string) (*models.Message, error)

	// GetMessage fetches a message with its full part tree.
	GetMessage(ctx context.Context, token, id string) (*models.Message, error)

	// GetThread fetches every message of a thread in full, oldest first.
	GetThread(ctx context.Context, token, id string) (*models.Thread, error)

	// GetAttachment downloads and decodes an attachment body.
	GetAttachment(ctx context.Context, token, messageID, attachmentID string) ([]byte, error)

	// MarkRead removes the UNREAD label from a message.
	MarkRead(ctx context.Context, token, id string) error
}
