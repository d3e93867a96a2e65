package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/stoik/mailview/internal/models"
	"github.com/stoik/mailview/services/mail-service/internal/apperr"
	"github.com/stoik/mailview/services/mail-service/internal/config"
	"github.com/stoik/mailview/services/mail-service/internal/message"
)

const labelUnread = "UNREAD"

// GmailProvider implements Provider on top of the Gmail v1 REST API.
type GmailProvider struct {
	endpoint string
	userID   string
	client   *http.Client
}

// NewGmailProvider creates a client for cfg.APIURL. The URL is the API root,
// e.g. https://gmail.googleapis.com/ or the mock server in development.
func NewGmailProvider(cfg config.ProviderConfig) *GmailProvider {
	endpoint := cfg.APIURL
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	userID := cfg.User
	if userID == "" {
		userID = "me"
	}
	return &GmailProvider{
		endpoint: endpoint,
		userID:   userID,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// service builds a Gmail client that sends token as a bearer credential.
func (g *GmailProvider) service(ctx context.Context, token string) (*gmail.Service, error) {
	if token == "" {
		return nil, apperr.Invalid("Access token is missing.")
	}
	base := context.WithValue(ctx, oauth2.HTTPClient, g.client)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	svc, err := gmail.NewService(ctx,
		option.WithHTTPClient(oauth2.NewClient(base, src)),
		option.WithEndpoint(g.endpoint),
	)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("failed to create gmail client: %w", err))
	}
	return svc, nil
}

// ListMessages implements Provider.ListMessages.
func (g *GmailProvider) ListMessages(ctx context.Context, token, query, pageToken string, pageSize int64) (*ListResult, error) {
	svc, err := g.service(ctx, token)
	if err != nil {
		return nil, err
	}

	call := svc.Users.Messages.List(g.userID).Q(query).Context(ctx)
	if pageSize > 0 {
		call = call.MaxResults(pageSize)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, classify(err, "failed to list messages")
	}

	result := &ListResult{
		Refs:               make([]models.MessageRef, 0, len(resp.Messages)),
		NextPageToken:      resp.NextPageToken,
		ResultSizeEstimate: resp.ResultSizeEstimate,
	}
	for _, m := range resp.Messages {
		result.Refs = append(result.Refs, models.MessageRef{ID: m.Id, ThreadID: m.ThreadId})
	}
	return result, nil
}

// GetMessageMetadata implements Provider.GetMessageMetadata.
func (g *GmailProvider) GetMessageMetadata(ctx context.Context, token, id string, headers ...string) (*models.Message, error) {
	svc, err := g.service(ctx, token)
	if err != nil {
		return nil, err
	}
	msg, err := svc.Users.Messages.Get(g.userID, id).
		Format("metadata").
		MetadataHeaders(headers...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err, "failed to get message metadata")
	}
	return toMessage(msg), nil
}

// GetMessage implements Provider.GetMessage.
func (g *GmailProvider) GetMessage(ctx context.Context, token, id string) (*models.Message, error) {
	svc, err := g.service(ctx, token)
	if err != nil {
		return nil, err
	}
	msg, err := svc.Users.Messages.Get(g.userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "failed to get message")
	}
	return toMessage(msg), nil
}

// GetThread implements Provider.GetThread.
func (g *GmailProvider) GetThread(ctx context.Context, token, id string) (*models.Thread, error) {
	svc, err := g.service(ctx, token)
	if err != nil {
		return nil, err
	}
	thread, err := svc.Users.Threads.Get(g.userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "failed to get thread")
	}

	out := &models.Thread{ID: thread.Id, Messages: make([]*models.Message, 0, len(thread.Messages))}
	for _, m := range thread.Messages {
		out.Messages = append(out.Messages, toMessage(m))
	}
	return out, nil
}

// GetAttachment implements Provider.GetAttachment.
func (g *GmailProvider) GetAttachment(ctx context.Context, token, messageID, attachmentID string) ([]byte, error) {
	svc, err := g.service(ctx, token)
	if err != nil {
		return nil, err
	}
	body, err := svc.Users.Messages.Attachments.Get(g.userID, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "failed to get attachment")
	}
	data, err := message.DecodeData(body.Data)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("failed to decode attachment %s: %w", attachmentID, err))
	}
	return data, nil
}

// MarkRead implements Provider.MarkRead.
func (g *GmailProvider) MarkRead(ctx context.Context, token, id string) error {
	svc, err := g.service(ctx, token)
	if err != nil {
		return err
	}
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{labelUnread}}
	if _, err := svc.Users.Messages.Modify(g.userID, id, req).Context(ctx).Do(); err != nil {
		return classify(err, "failed to mark message as read")
	}
	return nil
}

// classify turns a client error into an *apperr.Error. An answer from the API
// keeps its status and raw body; a transport failure is Unavailable.
func classify(err error, op string) error {
	wrapped := fmt.Errorf("%s: %w", op, err)

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apperr.FromProvider(apiErr.Code, apiErr.Body, wrapped)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Unreachable(wrapped)
	}
	return apperr.Wrap(wrapped)
}

func toMessage(m *gmail.Message) *models.Message {
	if m == nil {
		return nil
	}
	return &models.Message{
		ID:           m.Id,
		ThreadID:     m.ThreadId,
		LabelIDs:     m.LabelIds,
		Snippet:      m.Snippet,
		InternalDate: m.InternalDate,
		Payload:      toPart(m.Payload),
	}
}

func toPart(p *gmail.MessagePart) *models.Part {
	if p == nil {
		return nil
	}
	part := &models.Part{
		PartID:   p.PartId,
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	if len(p.Headers) > 0 {
		part.Headers = make([]models.Header, 0, len(p.Headers))
		for _, h := range p.Headers {
			if h != nil {
				part.Headers = append(part.Headers, models.Header{Name: h.Name, Value: h.Value})
			}
		}
	}
	if p.Body != nil {
		part.Body = models.PartBody{AttachmentID: p.Body.AttachmentId, Data: p.Body.Data, Size: p.Body.Size}
	}
	for _, child := range p.Parts {
		if c := toPart(child); c != nil {
			part.Parts = append(part.Parts, c)
		}
	}
	return part
}
