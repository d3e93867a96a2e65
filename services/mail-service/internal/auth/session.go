// Package auth issues and verifies session tokens and drives the Google
// OAuth login flow.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stoik/mailview/internal/models"
)

var ErrInvalidSession = errors.New("invalid or expired session token")

// Claims is the session payload handed to the web client.
type Claims struct {
	UserID           string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Provider         string `json:"provider"`
	ProfileImage     string `json:"profileImage"`
	SubscriptionTier string `json:"subscriptionTier,omitempty"`
	jwt.RegisteredClaims
}

// Sessions signs HS256 session tokens with a shared secret.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a session token for user.
func (s *Sessions) Issue(user models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:           user.ID.String(),
		Name:             user.Name,
		Email:            user.Email,
		Provider:         user.Provider,
		ProfileImage:     user.ProfileImage,
		SubscriptionTier: user.SubscriptionTier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (s *Sessions) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return claims, nil
}
