package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carshare-web/internal/config"
	"github.com/iliyamo/carshare-web/internal/database"
)

// newRepo connects to the MySQL database named by DB_HOST, DB_USER,
// DB_PASS, DB_PORT and DB_NAME, skipping when DB_HOST is unset.
func newRepo(t *testing.T) *SessionRepo {
	t.Helper()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set")
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "3306"
	}
	db, err := database.Open(config.DBConfig{
		User: os.Getenv("DB_USER"),
		Pass: os.Getenv("DB_PASS"),
		Host: os.Getenv("DB_HOST"),
		Port: port,
		Name: os.Getenv("DB_NAME"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSessionRepo(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func row(id string, expires time.Time) SessionRow {
	now := time.Now().UTC().Truncate(time.Second)
	return SessionRow{
		ID:          id,
		UserID:      7,
		UserJSON:    []byte(`{"id":7,"username":"alice","role":"owner"}`),
		TokenSealed: []byte{0x01, 0x02, 0x03},
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   expires.UTC().Truncate(time.Second),
	}
}

func TestSessionRepo_RoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { _ = repo.Delete(ctx, id) })

	want := row(id, time.Now().Add(time.Hour))
	require.NoError(t, repo.Upsert(ctx, want))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want.UserID, got.UserID)
	assert.JSONEq(t, string(want.UserJSON), string(got.UserJSON))
	assert.Equal(t, want.TokenSealed, got.TokenSealed)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	// An update keeps created_at and replaces the rest.
	next := want
	next.UserJSON = []byte(`{"id":7,"username":"alice","role":"admin"}`)
	next.TokenSealed = []byte{0x09}
	next.CreatedAt = want.CreatedAt.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, next))

	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09}, got.TokenSealed)
	assert.JSONEq(t, string(next.UserJSON), string(got.UserJSON))
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, repo.Delete(ctx, id))
}

func TestSessionRepo_Expired(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { _ = repo.Delete(ctx, id) })

	require.NoError(t, repo.Upsert(ctx, row(id, time.Now().Add(-time.Minute))))
	_, err := repo.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestSessionRepo_UnknownID(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
