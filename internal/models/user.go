package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted account record. The refresh token is the only
// long-lived provider credential kept by the service.
type User struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	ProfileImage     string    `db:"profile_image" json:"profileImage,omitempty"`
	Provider         string    `db:"provider" json:"provider"`
	RefreshToken     string    `db:"refresh_token" json:"-"`
	SubscriptionTier string    `db:"subscription_tier" json:"subscriptionTier"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
