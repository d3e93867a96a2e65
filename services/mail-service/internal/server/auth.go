package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stoik/mailview/internal/models"
	"github.com/stoik/mailview/services/mail-service/internal/auth"
	"github.com/stoik/mailview/services/mail-service/internal/logger"
	"github.com/stoik/mailview/services/mail-service/internal/users"
)

const (
	sessionCookie     = "jwtToken"
	accessTokenCookie = "accessToken"
	sessionCookieTTL  = 180 * 24 * time.Hour
	accessCookieTTL   = time.Hour
)

type authHandler struct {
	oauth       OAuthFlow
	users       UserStore
	sessions    *auth.Sessions
	frontendURL string
	secure      bool
}

func (h *authHandler) authURL(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"url": h.oauth.AuthURL(uuid.NewString())})
}

// callback completes the login: it stores the account, issues a session and
// sends the browser back to the web client.
func (h *authHandler) callback(c *gin.Context) {
	ctx := c.Request.Context()
	fail := func(err error) {
		logger.Logger.Error("Authentication failed",
			zap.String("requestId", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Authentication failed")
	}

	code := c.Query("code")
	if code == "" {
		fail(errors.New("missing authorization code"))
		return
	}

	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		fail(err)
		return
	}
	profile, err := h.oauth.Profile(ctx, tok)
	if err != nil {
		fail(err)
		return
	}

	user, err := h.users.Upsert(ctx, models.User{
		Name:         profile.Name,
		Email:        profile.Email,
		ProfileImage: profile.Picture,
		Provider:     "google",
		RefreshToken: tok.RefreshToken,
	})
	if err != nil {
		fail(err)
		return
	}

	session, err := h.sessions.Issue(user)
	if err != nil {
		fail(err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, session, int(sessionCookieTTL.Seconds()), "/", "", h.secure, false)
	c.SetCookie(accessTokenCookie, tok.AccessToken, int(accessCookieTTL.Seconds()), "/", "", h.secure, false)

	logger.Logger.Info("User signed in", zap.String("userId", user.ID.String()))
	c.Redirect(http.StatusFound, strings.TrimSuffix(h.frontendURL, "/")+"/mail")
}

// accessToken trades the caller's stored refresh token for a new access token.
func (h *authHandler) accessToken(c *gin.Context) {
	notFound := func() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User or refresh token not found."})
	}

	claims := sessionClaims(c)
	if claims == nil {
		notFound()
		return
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		notFound()
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if errors.Is(err, users.ErrNotFound) {
		notFound()
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if user.RefreshToken == "" {
		notFound()
		return
	}

	tok, err := h.oauth.Refresh(c.Request.Context(), user.RefreshToken)
	if err != nil {
		logger.Logger.Error("Token refresh failed", zap.String("userId", user.ID.String()), zap.Error(err))
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve a new Google access token."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": tok.AccessToken})
}
