// Package users persists signed-in accounts in Postgres.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stoik/mailview/internal/models"
)

var ErrNotFound = errors.New("user not found")

// Schema creates the users table.
const Schema = `
	CREATE TABLE IF NOT EXISTS users (
	    id UUID PRIMARY KEY,
	    name VARCHAR(255) NOT NULL DEFAULT '',
	    email VARCHAR(255) NOT NULL UNIQUE,
	    profile_image TEXT NOT NULL DEFAULT '',
	    provider VARCHAR(32) NOT NULL DEFAULT 'google',
	    refresh_token TEXT NOT NULL DEFAULT '',
	    subscription_tier VARCHAR(32) NOT NULL DEFAULT 'free',
	    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
`

const columns = `id, name, email, profile_image, provider, refresh_token, subscription_tier, created_at, updated_at`

// DBTX is the subset of *pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db DBTX
}

func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Upsert inserts u or updates the row with the same email. An empty refresh
// token keeps the stored one, since Google only returns it on some logins.
func (s *Store) Upsert(ctx context.Context, u models.User) (models.User, error) {
	if u.Email == "" {
		return models.User{}, fmt.Errorf("user email is required")
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, name, email, profile_image, provider, refresh_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
		    name = EXCLUDED.name,
		    profile_image = EXCLUDED.profile_image,
		    provider = EXCLUDED.provider,
		    refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), users.refresh_token),
		    updated_at = now()
		RETURNING ` + columns

	row := s.db.QueryRow(ctx, query, u.ID, u.Name, u.Email, u.ProfileImage, u.Provider, u.RefreshToken)
	saved, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to upsert user %s: %w", u.Email, err)
	}
	return saved, nil
}

// GetByID returns the user or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.ProfileImage,
		&u.Provider,
		&u.RefreshToken,
		&u.SubscriptionTier,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
