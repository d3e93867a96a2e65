package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stoik/mailview/services/mail-service/internal/apperr"
	"github.com/stoik/mailview/services/mail-service/internal/mailbox"
)

type mailHandler struct {
	mailbox *mailbox.Service
}

type allMailRequest struct {
	AccessToken    string `json:"accessToken"`
	SelectedPageID string `json:"selectedPageId"`
	// PageTokens optionally gives each view its own cursor.
	PageTokens map[string]string `json:"pageTokens"`
}

type pageRequest struct {
	AccessToken string `json:"accessToken"`
	PageToken   string `json:"pageToken"`
	View        string `json:"view"`
}

type mailDataRequest struct {
	AccessToken string `json:"accessToken"`
	MessageID   string `json:"messageId"`
	ThreadID    string `json:"threadId"`
}

type attachmentRequest struct {
	AccessToken  string `json:"accessToken"`
	MessageID    string `json:"messageId"`
	AttachmentID string `json:"attachmentId"`
	FileName     string `json:"fileName"`
}

func missingToken(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access token is missing."})
}

// bind decodes the JSON body into req. An empty body leaves req zero-valued
// so the handler's own field checks pick the status.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, apperr.Invalid("Invalid request body."))
		return false
	}
	return true
}

func (h *mailHandler) allMail(c *gin.Context) {
	var req allMailRequest
	if !bind(c, &req) {
		return
	}
	if req.AccessToken == "" {
		missingToken(c)
		return
	}

	cursors := req.PageTokens
	if cursors == nil {
		cursors = mailbox.SameCursor(req.SelectedPageID)
	}
	snapshot, err := h.mailbox.Snapshot(c.Request.Context(), req.AccessToken, cursors)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *mailHandler) page(c *gin.Context) {
	var req pageRequest
	if !bind(c, &req) {
		return
	}
	if req.AccessToken == "" {
		missingToken(c)
		return
	}

	page, err := h.mailbox.Page(c.Request.Context(), req.AccessToken, req.PageToken, req.View)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *mailHandler) mailData(c *gin.Context) {
	var req mailDataRequest
	if !bind(c, &req) {
		return
	}
	if req.AccessToken == "" || req.MessageID == "" || req.ThreadID == "" {
		writeError(c, apperr.Invalid("Missing required parameters."))
		return
	}

	var userEmail string
	if claims := sessionClaims(c); claims != nil {
		userEmail = claims.Email
	}

	thread, err := h.mailbox.Thread(c.Request.Context(), req.AccessToken, req.MessageID, req.ThreadID, userEmail)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *mailHandler) attachment(c *gin.Context) {
	var req attachmentRequest
	if !bind(c, &req) {
		return
	}
	if req.AccessToken == "" || req.MessageID == "" || req.AttachmentID == "" {
		writeError(c, apperr.Invalid("Missing required parameters."))
		return
	}

	att, err := h.mailbox.Attachment(c.Request.Context(), req.AccessToken, req.MessageID, req.AttachmentID, req.FileName)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, quoteFilename(att.Filename)))
	c.Data(http.StatusOK, att.MimeType, att.Data)
}

// quoteFilename escapes a filename for a quoted Content-Disposition value.
func quoteFilename(name string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "").Replace(name)
}
