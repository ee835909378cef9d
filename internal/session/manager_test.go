package session

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carshare-web/internal/model"
	"github.com/iliyamo/carshare-web/internal/utils"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newManager(store Store) *Manager {
	return NewManager(store, utils.NewSealer("test-secret"), time.Hour, quiet)
}

func TestHandle_SignedOut(t *testing.T) {
	h := newManager(NewMemoryStore()).Handle("")
	ctx := context.Background()
	assert.Nil(t, h.Session(ctx))
	assert.Nil(t, h.User(ctx))
	assert.Empty(t, h.Token(ctx))
	assert.Empty(t, h.ID())
	assert.ErrorIs(t, h.UpdateUser(ctx, model.User{ID: 1}), ErrNotFound)
}

func TestHandle_SetSessionMintsID(t *testing.T) {
	h := newManager(NewMemoryStore()).Handle("")
	ctx := context.Background()
	user := model.User{ID: 9, Username: "dana", Role: model.RoleOwner}

	require.NoError(t, h.SetSession(ctx, "tok-1", user))
	assert.NotEmpty(t, h.ID())
	assert.Equal(t, "tok-1", h.Token(ctx))
	assert.Equal(t, &user, h.User(ctx))
}

func TestHandle_SurvivesReload(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	user := model.User{ID: 3, Username: "lee", Role: model.RoleAdmin}

	first := newManager(store).Handle("")
	require.NoError(t, first.SetSession(ctx, "tok-3", user))
	id := first.ID()

	// A fresh manager over the same backend stands in for a restarted process.
	reloaded := newManager(store).Handle(id)
	s := reloaded.Session(ctx)
	require.NotNil(t, s)
	assert.Equal(t, "tok-3", s.Token)
	assert.Equal(t, user, s.User)
	assert.Equal(t, id, s.ID)
}

func TestHandle_TokenIsSealedAtRest(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	h := newManager(store).Handle("")
	require.NoError(t, h.SetSession(ctx, "plain-token", model.User{ID: 1}))

	rec, err := store.Load(ctx, h.ID())
	require.NoError(t, err)
	assert.NotContains(t, string(rec.TokenSealed), "plain-token")

	other := NewManager(store, utils.NewSealer("other-secret"), time.Hour, quiet).Handle(h.ID())
	assert.Nil(t, other.Session(ctx))
}

func TestHandle_SetSessionRotatesID(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, m *Manager) string
	}{
		{
			name:    "id unknown to the store",
			prepare: func(*testing.T, *Manager) string { return "planted-sid" },
		},
		{
			name: "id of a signed-out session",
			prepare: func(t *testing.T, m *Manager) string {
				h := m.Handle("")
				require.NoError(t, h.SetSession(context.Background(), "attacker-tok", model.User{ID: 1}))
				id := h.ID()
				require.NoError(t, h.Clear(context.Background()))
				return id
			},
		},
		{
			name: "id of a live session",
			prepare: func(t *testing.T, m *Manager) string {
				h := m.Handle("")
				require.NoError(t, h.SetSession(context.Background(), "old-tok", model.User{ID: 1}))
				return h.ID()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newManager(NewMemoryStore())
			before := tt.prepare(t, m)

			h := m.Handle(before)
			require.NoError(t, h.SetSession(ctx, "victim-tok", model.User{ID: 42, Role: model.RoleAdmin}))
			assert.NotEqual(t, before, h.ID())
			assert.Equal(t, "victim-tok", m.Handle(h.ID()).Token(ctx))

			old := m.Handle(before)
			assert.Nil(t, old.Session(ctx))
			assert.Empty(t, old.Token(ctx))
		})
	}
}

func TestHandle_UpdateUserKeepsTokenAndCreatedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	m := newManager(store)
	h := m.Handle("")
	require.NoError(t, h.SetSession(ctx, "tok", model.User{ID: 5, Role: model.RoleRegular}))
	created := h.Session(ctx).CreatedAt

	id := h.ID()
	require.NoError(t, h.UpdateUser(ctx, model.User{ID: 5, Role: model.RoleOwner}))
	assert.Equal(t, id, h.ID())
	s := m.Handle(id).Session(ctx)
	require.NotNil(t, s)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, model.RoleOwner, s.User.Role)
	assert.True(t, created.Equal(s.CreatedAt))
}

func TestHandle_ExpireClearsStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	m := newManager(store)
	h := m.Handle("")
	require.NoError(t, h.SetSession(ctx, "tok", model.User{ID: 2}))
	id := h.ID()

	h.Expire(ctx)
	assert.Nil(t, h.Session(ctx))
	assert.Empty(t, h.Token(ctx))

	_, err := store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, m.Handle(id).Session(ctx))
}

func TestHandle_UnknownID(t *testing.T) {
	h := newManager(NewMemoryStore()).Handle("missing")
	assert.Nil(t, h.Session(context.Background()))
}

func TestMemoryStore_TTL(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{ID: "a"}, time.Minute))
	_, err := store.Load(ctx, "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	store := NewRedisStore(rdb, "session-test")
	h := newManager(store).Handle("")
	require.NoError(t, h.SetSession(ctx, "redis-tok", model.User{ID: 11}))
	t.Cleanup(func() { _ = store.Delete(ctx, h.ID()) })

	s := newManager(store).Handle(h.ID()).Session(ctx)
	require.NotNil(t, s)
	assert.Equal(t, "redis-tok", s.Token)
	assert.Equal(t, int64(11), s.User.ID)
}
