package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nalgeon/be"

	"github.com/stoik/mailview/internal/models"
)

// fakeRow scans a prepared user or returns err.
type fakeRow struct {
	user models.User
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*uuid.UUID) = r.user.ID
	*dest[1].(*string) = r.user.Name
	*dest[2].(*string) = r.user.Email
	*dest[3].(*string) = r.user.ProfileImage
	*dest[4].(*string) = r.user.Provider
	*dest[5].(*string) = r.user.RefreshToken
	*dest[6].(*string) = r.user.SubscriptionTier
	*dest[7].(*time.Time) = r.user.CreatedAt
	*dest[8].(*time.Time) = r.user.UpdatedAt
	return nil
}

type fakeDB struct {
	sql  string
	args []any
	row  fakeRow
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.sql, f.args = sql, args
	return f.row
}

func TestUpsertAssignsID(t *testing.T) {
	db := &fakeDB{}
	db.row = fakeRow{user: models.User{ID: uuid.New(), Email: "jane@example.com", SubscriptionTier: "free"}}
	store := NewStore(db)

	saved, err := store.Upsert(context.Background(), models.User{Email: "jane@example.com", Name: "Jane"})
	be.Err(t, err, nil)
	be.Equal(t, saved.SubscriptionTier, "free")
	be.True(t, strings.Contains(db.sql, "ON CONFLICT (email)"))
	be.True(t, db.args[0].(uuid.UUID) != uuid.Nil)
	be.Equal(t, db.args[2], any("jane@example.com"))
}

func TestUpsertRequiresEmail(t *testing.T) {
	_, err := NewStore(&fakeDB{}).Upsert(context.Background(), models.User{Name: "Jane"})
	be.True(t, err != nil)
}

func TestGetByIDNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	_, err := NewStore(db).GetByID(context.Background(), uuid.New())
	be.True(t, errors.Is(err, ErrNotFound))
}

func TestGetByID(t *testing.T) {
	id := uuid.New()
	db := &fakeDB{row: fakeRow{user: models.User{ID: id, Email: "jane@example.com", RefreshToken: "r"}}}
	u, err := NewStore(db).GetByID(context.Background(), id)
	be.Err(t, err, nil)
	be.Equal(t, u.ID, id)
	be.Equal(t, u.RefreshToken, "r")
}
