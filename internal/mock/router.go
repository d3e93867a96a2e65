package mock

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/gmail/v1"
)

// NewRouter serves store under the Gmail REST paths used by the mail service,
// plus a few /admin endpoints for driving tests and local runs.
func NewRouter(store *Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handler{store: store}
	users := r.Group("/gmail/v1/users/:userId", requireBearer)
	{
		users.GET("/messages", h.listMessages)
		users.GET("/messages/:id", h.getMessage)
		users.POST("/messages/:id/modify", h.modifyMessage)
		users.GET("/messages/:id/attachments/:attachmentId", h.getAttachment)
		users.GET("/threads/:id", h.getThread)
	}

	admin := r.Group("/admin")
	{
		admin.POST("/messages", h.addMessage)
		admin.POST("/fail", h.failQuery)
	}
	return r
}

type handler struct {
	store *Store
}

// apiError writes the Google JSON error envelope so client libraries parse it.
func apiError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"status":  strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_")),
		},
	})
}

func requireBearer(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") == "" {
		apiError(c, http.StatusUnauthorized, "Request is missing required authentication credential.")
		return
	}
	if strings.TrimPrefix(auth, "Bearer ") == ExpiredToken {
		apiError(c, http.StatusUnauthorized, "Request had invalid authentication credentials.")
		return
	}
	c.Next()
}

// ExpiredToken is an access token the mock always rejects with 401.
const ExpiredToken = "expired-token"

func (h *handler) listMessages(c *gin.Context) {
	query := c.Query("q")
	if status := h.store.failureFor(query); status != 0 {
		apiError(c, status, "Forced failure for query "+query)
		return
	}

	offset, err := parseOffset(c.Query("pageToken"))
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	limit := 100
	if v := c.Query("maxResults"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	refs, next, total := h.store.List(query, offset, limit)
	c.JSON(http.StatusOK, &gmail.ListMessagesResponse{
		Messages:           refs,
		NextPageToken:      pageToken(next),
		ResultSizeEstimate: int64(total),
	})
}

func (h *handler) getMessage(c *gin.Context) {
	msg := h.store.Get(c.Param("id"))
	if msg == nil {
		apiError(c, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	if c.Query("format") == "metadata" {
		msg = metadataOnly(msg, c.QueryArray("metadataHeaders"))
	}
	c.JSON(http.StatusOK, msg)
}

// metadataOnly strips bodies and keeps the requested top-level headers.
func metadataOnly(msg *gmail.Message, headers []string) *gmail.Message {
	if msg.Payload == nil {
		return msg
	}
	payload := &gmail.MessagePart{MimeType: msg.Payload.MimeType}
	for _, hdr := range msg.Payload.Headers {
		if len(headers) == 0 || containsFold(headers, hdr.Name) {
			payload.Headers = append(payload.Headers, hdr)
		}
	}
	msg.Payload = payload
	return msg
}

func containsFold(list []string, item string) bool {
	for _, v := range list {
		if strings.EqualFold(v, item) {
			return true
		}
	}
	return false
}

func (h *handler) modifyMessage(c *gin.Context) {
	var req gmail.ModifyMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	msg := h.store.Modify(c.Param("id"), req.AddLabelIds, req.RemoveLabelIds)
	if msg == nil {
		apiError(c, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	c.JSON(http.StatusOK, &gmail.Message{Id: msg.Id, ThreadId: msg.ThreadId, LabelIds: msg.LabelIds})
}

func (h *handler) getAttachment(c *gin.Context) {
	body := h.store.Attachment(c.Param("id"), c.Param("attachmentId"))
	if body == nil {
		apiError(c, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *handler) getThread(c *gin.Context) {
	thread := h.store.Thread(c.Param("id"))
	if thread == nil {
		apiError(c, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *handler) addMessage(c *gin.Context) {
	var msg gmail.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg.Id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	h.store.Add(&msg)
	c.JSON(http.StatusOK, gin.H{"id": msg.Id})
}

func (h *handler) failQuery(c *gin.Context) {
	var req struct {
		Query  string `json:"query"`
		Status int    `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.store.FailQuery(req.Query, req.Status)
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "status": req.Status})
}
