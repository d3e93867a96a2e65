package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/stoik/mailview/services/mail-service/internal/config"
)

// Scopes requested at login. Modify covers reading and the read-marker.
var Scopes = []string{
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
	oauth2api.OpenIDScope,
	gmail.GmailModifyScope,
	gmail.GmailComposeScope,
}

// Profile is the signed-in account as reported by the userinfo endpoint.
type Profile struct {
	Name    string
	Email   string
	Picture string
}

// Google runs the authorization-code flow against Google's OAuth endpoints.
type Google struct {
	config *oauth2.Config
	// apiOptions are passed to the userinfo client; tests point it elsewhere.
	apiOptions []option.ClientOption
}

func NewGoogle(cfg config.OAuthConfig) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the consent page URL. Offline access with a forced consent
// prompt makes Google return a refresh token on every login.
func (g *Google) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (g *Google) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// Profile reads the account's name, email and picture with tok.
func (g *Google) Profile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(g.config.TokenSource(ctx, tok))}, g.apiOptions...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return &Profile{Name: info.Name, Email: info.Email, Picture: info.Picture}, nil
}

// Refresh obtains a new access token from a stored refresh token.
func (g *Google) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	tok, err := g.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}
	return tok, nil
}
