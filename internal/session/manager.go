package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/carshare-web/internal/metrics"
	"github.com/iliyamo/carshare-web/internal/model"
	"github.com/iliyamo/carshare-web/internal/utils"
)

// DefaultTTL is how long an idle session is kept by backends that expire.
const DefaultTTL = 14 * 24 * time.Hour

// Manager hands out per-browser handles over a Store. The API token is
// sealed before it reaches the store.
type Manager struct {
	store  Store
	sealer *utils.Sealer
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

// NewManager builds a manager. A nil logger uses slog.Default.
func NewManager(store Store, sealer *utils.Sealer, ttl time.Duration, log *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, sealer: sealer, ttl: ttl, log: log, now: time.Now}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// NewID returns a fresh random session id.
func (m *Manager) NewID() string { return uuid.NewString() }

// Handle returns the handle for a browser's session id. An empty or unknown
// id gives a signed-out handle; SetSession always mints a new id.
func (m *Manager) Handle(id string) *Handle {
	return &Handle{m: m, id: id}
}

// Handle is one browser's view of its session. It loads lazily and at most
// once; writes update the in-memory copy so later reads in the same request
// observe them.
type Handle struct {
	m  *Manager
	id string

	mu      sync.Mutex
	loaded  bool
	current *model.Session
}

// ID returns the session id ("" when none has been issued).
func (h *Handle) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

func (h *Handle) load(ctx context.Context) *model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded {
		return h.current
	}
	h.loaded = true
	if h.id == "" {
		return nil
	}
	rec, err := h.m.store.Load(ctx, h.id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.m.log.Warn("session load failed", slog.String("session_id", h.id), slog.Any("err", err))
		}
		return nil
	}
	token, err := h.m.sealer.Open(rec.TokenSealed)
	if err != nil {
		h.m.log.Warn("session token unseal failed", slog.String("session_id", h.id), slog.Any("err", err))
		return nil
	}
	h.current = &model.Session{ID: rec.ID, Token: token, User: rec.User, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}
	return h.current
}

// SetSession stores a token and user under a freshly minted id and drops
// the record held under the previous id, so an id known before sign-in
// never carries the new identity. It must complete before any read that
// depends on the new identity is issued.
func (h *Handle) SetSession(ctx context.Context, token string, user model.User) error {
	return h.save(ctx, token, user, true)
}

// UpdateUser replaces the stored user record, keeping the id, the token and
// the creation time.
func (h *Handle) UpdateUser(ctx context.Context, user model.User) error {
	s := h.load(ctx)
	if s == nil {
		return ErrNotFound
	}
	return h.save(ctx, s.Token, user, false)
}

func (h *Handle) save(ctx context.Context, token string, user model.User, rotate bool) error {
	sealed, err := h.m.sealer.Seal(token)
	if err != nil {
		return err
	}
	existing := h.load(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.m.now().UTC()
	id, created := h.id, now
	if rotate || id == "" {
		id = h.m.NewID()
	} else if existing != nil {
		created = existing.CreatedAt
	}
	rec := Record{ID: id, User: user, TokenSealed: sealed, CreatedAt: created, UpdatedAt: now}
	if err := h.m.store.Save(ctx, rec, h.m.ttl); err != nil {
		return err
	}
	if h.id != "" && h.id != id {
		if err := h.m.store.Delete(context.WithoutCancel(ctx), h.id); err != nil {
			h.m.log.Warn("previous session delete failed", slog.String("session_id", h.id), slog.Any("err", err))
		}
	}
	h.id = id
	h.current = &model.Session{ID: id, Token: token, User: user, CreatedAt: created, UpdatedAt: now}
	h.loaded = true
	return nil
}

// Session returns a copy of the current session, or nil when signed out.
func (h *Handle) Session(ctx context.Context) *model.Session {
	s := h.load(ctx)
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Token returns the API token or "" when signed out.
func (h *Handle) Token(ctx context.Context) string {
	if s := h.load(ctx); s != nil {
		return s.Token
	}
	return ""
}

// User returns the signed-in user or nil.
func (h *Handle) User(ctx context.Context) *model.User {
	if s := h.load(ctx); s != nil {
		u := s.User
		return &u
	}
	return nil
}

// Clear deletes the session from the store.
func (h *Handle) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaded = true
	h.current = nil
	if h.id == "" {
		return nil
	}
	return h.m.store.Delete(context.WithoutCancel(ctx), h.id)
}

// Expire is called by the API client when the token is rejected.
func (h *Handle) Expire(ctx context.Context) {
	metrics.SessionsExpired.Inc()
	if err := h.Clear(ctx); err != nil {
		h.m.log.Warn("session clear failed", slog.String("session_id", h.ID()), slog.Any("err", err))
	}
}
