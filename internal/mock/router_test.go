package mock

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nalgeon/be"
	"google.golang.org/api/gmail/v1"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListPaginates(t *testing.T) {
	store := NewStore()
	now := time.Now()
	for i := 0; i < 5; i++ {
		store.Add(&gmail.Message{Id: NewID(), LabelIds: []string{"INBOX"}, InternalDate: now.Add(-time.Duration(i) * time.Minute).UnixMilli()})
	}
	r := NewRouter(store)

	w := do(t, r, http.MethodGet, "/gmail/v1/users/me/messages?q=in:inbox&maxResults=3", "")
	be.Equal(t, w.Code, http.StatusOK)
	var page gmail.ListMessagesResponse
	be.Err(t, json.Unmarshal(w.Body.Bytes(), &page), nil)
	be.Equal(t, len(page.Messages), 3)
	be.Equal(t, page.NextPageToken, "page-3")
	be.Equal(t, page.ResultSizeEstimate, int64(5))

	w = do(t, r, http.MethodGet, "/gmail/v1/users/me/messages?q=in:inbox&maxResults=3&pageToken=page-3", "")
	page = gmail.ListMessagesResponse{}
	be.Err(t, json.Unmarshal(w.Body.Bytes(), &page), nil)
	be.Equal(t, len(page.Messages), 2)
	be.Equal(t, page.NextPageToken, "")
}

func TestRequiresBearer(t *testing.T) {
	r := NewRouter(NewStore())
	req := httptest.NewRequest(http.MethodGet, "/gmail/v1/users/me/messages", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	be.Equal(t, w.Code, http.StatusUnauthorized)
}

func TestMetadataFormatStripsBodies(t *testing.T) {
	store := NewStore()
	Seed(store, "me@example.com", 1, time.Now())
	refs, _, _ := store.List("in:inbox", 0, 10)
	be.True(t, len(refs) > 0)

	w := do(t, NewRouter(store), http.MethodGet,
		"/gmail/v1/users/me/messages/"+refs[0].Id+"?format=metadata&metadataHeaders=Subject&metadataHeaders=From", "")
	be.Equal(t, w.Code, http.StatusOK)
	var msg gmail.Message
	be.Err(t, json.Unmarshal(w.Body.Bytes(), &msg), nil)
	be.Equal(t, len(msg.Payload.Parts), 0)
	be.Equal(t, len(msg.Payload.Headers), 2)
}

func TestModifyRemovesLabel(t *testing.T) {
	store := NewStore()
	store.Add(&gmail.Message{Id: "m1", LabelIds: []string{"INBOX", "UNREAD"}})
	w := do(t, NewRouter(store), http.MethodPost, "/gmail/v1/users/me/messages/m1/modify", `{"removeLabelIds":["UNREAD"]}`)
	be.Equal(t, w.Code, http.StatusOK)
	be.Equal(t, store.Get("m1").LabelIds, []string{"INBOX"})
}

func TestForcedFailure(t *testing.T) {
	store := NewStore()
	r := NewRouter(store)
	w := do(t, r, http.MethodPost, "/admin/fail", `{"query":"in:sent","status":500}`)
	be.Equal(t, w.Code, http.StatusOK)

	w = do(t, r, http.MethodGet, "/gmail/v1/users/me/messages?q=in:sent", "")
	be.Equal(t, w.Code, http.StatusInternalServerError)
	be.True(t, strings.Contains(w.Body.String(), `"code":500`))
}

func TestArchiveView(t *testing.T) {
	archived := &gmail.Message{LabelIds: []string{"CATEGORY_PERSONAL"}}
	inbox := &gmail.Message{LabelIds: []string{"INBOX"}}
	be.True(t, matchesQuery(archived, "in:archive"))
	be.True(t, !matchesQuery(inbox, "in:archive"))
	be.True(t, matchesQuery(inbox, "in:inbox"))
}
