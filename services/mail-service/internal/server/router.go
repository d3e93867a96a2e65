package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/stoik/mailview/internal/models"
	"github.com/stoik/mailview/services/mail-service/internal/auth"
	"github.com/stoik/mailview/services/mail-service/internal/mailbox"
)

// OAuthFlow is the login flow the auth handlers drive.
type OAuthFlow interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, tok *oauth2.Token) (*auth.Profile, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// UserStore persists accounts.
type UserStore interface {
	Upsert(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// Deps are the collaborators of the HTTP layer. OAuth and Users may be nil,
// in which case the login and token-refresh routes are not registered.
type Deps struct {
	Mailbox       *mailbox.Service
	Sessions      *auth.Sessions
	OAuth         OAuthFlow
	Users         UserStore
	FrontendURL   string
	SecureCookies bool
}

// CORS lets the web client at origin call the API with a session header and
// cookies. Preflight requests are answered with 204.
func CORS(origin string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{strings.TrimSuffix(origin, "/")},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// NewRouter builds the gin engine serving the mail API.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), GinLogger())
	if d.FrontendURL != "" {
		r.Use(CORS(d.FrontendURL))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var a *authHandler
	if d.OAuth != nil && d.Users != nil {
		a = &authHandler{oauth: d.OAuth, users: d.Users, sessions: d.Sessions, frontendURL: d.FrontendURL, secure: d.SecureCookies}
		g := r.Group("/auth/google")
		{
			g.GET("/url", a.authURL)
			g.GET("/callback", a.callback)
		}
	}

	api := r.Group("/api", SessionAuth(d.Sessions))
	{
		m := &mailHandler{mailbox: d.Mailbox}
		mail := api.Group("/mail")
		{
			mail.POST("/allmail", m.allMail)
			mail.POST("/page", m.page)
			mail.POST("/getMailData", m.mailData)
			mail.POST("/getAttachment", m.attachment)
		}

		if a != nil {
			api.GET("/gmail/accessToken", a.accessToken)
		}
	}

	return r
}
