package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nalgeon/be"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"

	"github.com/stoik/mailview/internal/mock"
	"github.com/stoik/mailview/internal/models"
	"github.com/stoik/mailview/services/mail-service/internal/auth"
	"github.com/stoik/mailview/services/mail-service/internal/config"
	"github.com/stoik/mailview/services/mail-service/internal/mailbox"
	"github.com/stoik/mailview/services/mail-service/internal/provider"
	"github.com/stoik/mailview/services/mail-service/internal/users"
)

const owner = "me@example.com"

var testUserID = uuid.MustParse("6f1c1b1e-3c4e-4a43-9f1a-2f5c8b7a9d01")

type stubOAuth struct {
	refreshErr error
}

func (s *stubOAuth) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (s *stubOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code != "good-code" {
		return nil, errors.New("invalid_grant")
	}
	return &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
}

func (s *stubOAuth) Profile(ctx context.Context, tok *oauth2.Token) (*auth.Profile, error) {
	return &auth.Profile{Name: "Me", Email: owner}, nil
}

func (s *stubOAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return &oauth2.Token{AccessToken: "access-2"}, nil
}

type memUsers struct {
	byID map[uuid.UUID]models.User
}

func (m *memUsers) Upsert(ctx context.Context, u models.User) (models.User, error) {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			u.ID = existing.ID
		}
	}
	if u.ID == uuid.Nil {
		u.ID = testUserID
	}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, users.ErrNotFound
	}
	return u, nil
}

type env struct {
	router   http.Handler
	store    *mock.Store
	sessions *auth.Sessions
	oauth    *stubOAuth
	users    *memUsers
	session  string
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := mock.NewStore()
	srv := httptest.NewServer(mock.NewRouter(store))
	t.Cleanup(srv.Close)

	p := provider.NewGmailProvider(config.ProviderConfig{APIURL: srv.URL, Timeout: 5 * time.Second})
	e := &env{
		store:    store,
		sessions: auth.NewSessions("secret", time.Hour),
		oauth:    &stubOAuth{},
		users:    &memUsers{byID: map[uuid.UUID]models.User{}},
	}
	e.router = NewRouter(Deps{
		Mailbox:     mailbox.NewService(p, 20),
		Sessions:    e.sessions,
		OAuth:       e.oauth,
		Users:       e.users,
		FrontendURL: "http://localhost:3000",
	})

	session, err := e.sessions.Issue(models.User{ID: testUserID, Email: owner, Name: "Me", Provider: "google"})
	be.Err(t, err, nil)
	e.session = session
	return e
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.session)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	be.Err(t, json.Unmarshal(w.Body.Bytes(), v), nil)
}

func TestHealth(t *testing.T) {
	e := setup(t)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	be.Equal(t, w.Code, http.StatusOK)
	be.True(t, w.Header().Get(requestIDHeader) != "")
}

func TestSessionRequired(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/mail/allmail", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	be.Equal(t, w.Code, http.StatusUnauthorized)
	be.True(t, strings.Contains(w.Body.String(), "No token provided or invalid format"))

	req = httptest.NewRequest(http.MethodPost, "/api/mail/allmail", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer forged")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	be.Equal(t, w.Code, http.StatusUnauthorized)
	be.True(t, strings.Contains(w.Body.String(), "Invalid or expired token"))
}

func TestAllMail(t *testing.T) {
	e := setup(t)
	mock.Seed(e.store, owner, 14, time.Now())

	w := e.do(http.MethodPost, "/api/mail/allmail", `{"accessToken":"tok","selectedPageId":""}`)
	be.Equal(t, w.Code, http.StatusOK)

	var snap map[string]models.MailboxPage
	decode(t, w, &snap)
	be.Equal(t, len(snap), 5)
	be.True(t, len(snap["inbox"].Items) > 0)
}

func TestAllMailMissingToken(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodPost, "/api/mail/allmail", `{"selectedPageId":""}`)
	be.Equal(t, w.Code, http.StatusUnauthorized)
	be.True(t, strings.Contains(w.Body.String(), "Access token is missing."))
}

func TestAllMailProviderFailure(t *testing.T) {
	e := setup(t)
	mock.Seed(e.store, owner, 14, time.Now())
	e.store.FailQuery("in:sent", http.StatusTooManyRequests)

	w := e.do(http.MethodPost, "/api/mail/allmail", `{"accessToken":"tok"}`)
	be.Equal(t, w.Code, http.StatusTooManyRequests)

	var body struct {
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	}
	decode(t, w, &body)
	be.Equal(t, body.Message, "API error")
	be.True(t, body.Details["error"] != nil)
}

func TestPageUnknownView(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodPost, "/api/mail/page", `{"accessToken":"tok","view":"everything"}`)
	be.Equal(t, w.Code, http.StatusBadRequest)
}

func TestPage(t *testing.T) {
	e := setup(t)
	mock.Seed(e.store, owner, 14, time.Now())

	w := e.do(http.MethodPost, "/api/mail/page", `{"accessToken":"tok","view":"sent"}`)
	be.Equal(t, w.Code, http.StatusOK)
	var page models.MailboxPage
	decode(t, w, &page)
	be.True(t, len(page.Items) > 0)
}

func addThread(store *mock.Store) {
	store.Add(&gmail.Message{
		Id: "m1", ThreadId: "t1", LabelIds: []string{"INBOX", "UNREAD"}, InternalDate: 1000,
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Jane <jane@example.com>"},
				{Name: "To", Value: owner},
				{Name: "Subject", Value: "Report"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: mock.Encode("see attached")}},
				{MimeType: "application/pdf", Filename: `q"1".pdf`, Body: &gmail.MessagePartBody{AttachmentId: "att-1"}},
			},
		},
	})
	store.AddAttachment("m1", "att-1", []byte("%PDF"))
}

func TestGetMailData(t *testing.T) {
	e := setup(t)
	addThread(e.store)

	w := e.do(http.MethodPost, "/api/mail/getMailData", `{"accessToken":"tok","messageId":"m1","threadId":"t1"}`)
	be.Equal(t, w.Code, http.StatusOK)

	var thread models.RenderedThread
	decode(t, w, &thread)
	be.Equal(t, thread.Subject, "Report")
	be.Equal(t, len(thread.Messages), 1)
	be.Equal(t, thread.Messages[0].Body.Kind, models.BodyText)
	be.Equal(t, thread.Messages[0].IsSent, false)
	be.Equal(t, e.store.Get("m1").LabelIds, []string{"INBOX"})
}

func TestGetMailDataMissingParameters(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodPost, "/api/mail/getMailData", `{"accessToken":"tok","messageId":"m1"}`)
	be.Equal(t, w.Code, http.StatusBadRequest)
	be.True(t, strings.Contains(w.Body.String(), "Missing required parameters."))
}

func TestGetMailDataExpiredAccessToken(t *testing.T) {
	e := setup(t)
	addThread(e.store)

	body := `{"accessToken":"` + mock.ExpiredToken + `","messageId":"m1","threadId":"t1"}`
	w := e.do(http.MethodPost, "/api/mail/getMailData", body)
	be.Equal(t, w.Code, http.StatusUnauthorized)
	be.True(t, strings.Contains(w.Body.String(), "API error"))
}

func TestGetAttachment(t *testing.T) {
	e := setup(t)
	addThread(e.store)

	w := e.do(http.MethodPost, "/api/mail/getAttachment", `{"accessToken":"tok","messageId":"m1","attachmentId":"att-1"}`)
	be.Equal(t, w.Code, http.StatusOK)
	be.Equal(t, w.Header().Get("Content-Type"), "application/pdf")
	be.Equal(t, w.Header().Get("Content-Disposition"), `attachment; filename="q\"1\".pdf"`)
	be.Equal(t, w.Body.String(), "%PDF")
}

func TestGetAttachmentNotFound(t *testing.T) {
	e := setup(t)
	addThread(e.store)

	w := e.do(http.MethodPost, "/api/mail/getAttachment", `{"accessToken":"tok","messageId":"m1","attachmentId":"nope"}`)
	be.Equal(t, w.Code, http.StatusNotFound)
	be.True(t, strings.Contains(w.Body.String(), "Attachment not found."))
}

func TestProviderUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	sessions := auth.NewSessions("secret", time.Hour)
	r := NewRouter(Deps{
		Mailbox:  mailbox.NewService(provider.NewGmailProvider(config.ProviderConfig{APIURL: srv.URL, Timeout: time.Second}), 20),
		Sessions: sessions,
	})
	session, err := sessions.Issue(models.User{ID: testUserID, Email: owner})
	be.Err(t, err, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/mail/page", strings.NewReader(`{"accessToken":"tok","view":"inbox"}`))
	req.Header.Set("Authorization", "Bearer "+session)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	be.Equal(t, w.Code, http.StatusServiceUnavailable)
	be.True(t, strings.Contains(w.Body.String(), "Service unavailable."))
}

func TestAuthURL(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodGet, "/auth/google/url", "")
	be.Equal(t, w.Code, http.StatusOK)
	var body struct {
		URL string `json:"url"`
	}
	decode(t, w, &body)
	be.True(t, strings.HasPrefix(body.URL, "https://accounts.example.com/auth?state="))
}

func TestCallback(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodGet, "/auth/google/callback?code=good-code", "")
	be.Equal(t, w.Code, http.StatusFound)
	be.Equal(t, w.Header().Get("Location"), "http://localhost:3000/mail")

	cookies := map[string]string{}
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck.Value
	}
	be.Equal(t, cookies[accessTokenCookie], "access-1")
	claims, err := e.sessions.Verify(cookies[sessionCookie])
	be.Err(t, err, nil)
	be.Equal(t, claims.Email, owner)

	u, err := e.users.GetByID(context.Background(), testUserID)
	be.Err(t, err, nil)
	be.Equal(t, u.RefreshToken, "refresh-1")
}

func TestCallbackFailure(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodGet, "/auth/google/callback?code=bad", "")
	be.Equal(t, w.Code, http.StatusInternalServerError)
	be.Equal(t, w.Body.String(), "Authentication failed")
}

func TestAccessToken(t *testing.T) {
	e := setup(t)
	e.users.byID[testUserID] = models.User{ID: testUserID, Email: owner, RefreshToken: "refresh-1"}

	w := e.do(http.MethodGet, "/api/gmail/accessToken", "")
	be.Equal(t, w.Code, http.StatusOK)
	be.True(t, strings.Contains(w.Body.String(), `"accessToken":"access-2"`))
}

func TestAccessTokenUnknownUser(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodGet, "/api/gmail/accessToken", "")
	be.Equal(t, w.Code, http.StatusUnauthorized)
}

func TestAccessTokenRefreshFails(t *testing.T) {
	e := setup(t)
	e.users.byID[testUserID] = models.User{ID: testUserID, Email: owner, RefreshToken: "refresh-1"}
	e.oauth.refreshErr = errors.New("invalid_grant")

	w := e.do(http.MethodGet, "/api/gmail/accessToken", "")
	be.Equal(t, w.Code, http.StatusInternalServerError)
}

func TestCORSPreflight(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/mail/allmail", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	be.Equal(t, w.Code, http.StatusNoContent)
	be.Equal(t, w.Header().Get("Access-Control-Allow-Origin"), "http://localhost:3000")
	be.Equal(t, w.Header().Get("Access-Control-Allow-Credentials"), "true")
}

func TestCORSOtherOrigin(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/mail/allmail", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	be.Equal(t, w.Header().Get("Access-Control-Allow-Origin"), "")
}

func TestEmptyBodyIsMissingToken(t *testing.T) {
	e := setup(t)
	for _, path := range []string{"/api/mail/allmail", "/api/mail/page"} {
		w := e.do(http.MethodPost, path, "")
		be.Equal(t, w.Code, http.StatusUnauthorized)
		be.True(t, strings.Contains(w.Body.String(), "Access token is missing."))
	}
}

func TestEmptyBodyIsMissingParameters(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodPost, "/api/mail/getAttachment", "")
	be.Equal(t, w.Code, http.StatusBadRequest)
	be.True(t, strings.Contains(w.Body.String(), "Missing required parameters."))
}
