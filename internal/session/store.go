// Package session keeps browser sessions (API token plus user record) in a
// durable backend so they survive BFF restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/carshare-web/internal/model"
	"github.com/iliyamo/carshare-web/internal/repository"
)

// ErrNotFound is returned by Load for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Record is what backends persist. The token is already sealed.
type Record struct {
	ID          string     `json:"id"`
	User        model.User `json:"user"`
	TokenSealed []byte     `json:"token_sealed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Store is a durable key-value backend for session records.
type Store interface {
	Save(ctx context.Context, r Record, ttl time.Duration) error
	Load(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps serialized records in process memory. It round-trips
// through JSON like the durable backends do.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryItem
	now  func() time.Time
}

type memoryItem struct {
	payload []byte
	expires time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryItem), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, r Record, ttl time.Duration) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item := memoryItem{payload: b}
	if ttl > 0 {
		item.expires = s.now().Add(ttl)
	}
	s.data[r.ID] = item
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	item, ok := s.data[id]
	s.mu.RUnlock()
	if !ok || (!item.expires.IsZero() && s.now().After(item.expires)) {
		return Record{}, ErrNotFound
	}
	var r Record
	if err := json.Unmarshal(item.payload, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

// RedisStore keeps records as JSON under <prefix>:<id> with a TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore builds a store; prefix defaults to "session".
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) Save(ctx context.Context, r Record, ttl time.Duration) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(r.ID), b, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	b, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

// MySQLStore adapts repository.SessionRepo.
type MySQLStore struct {
	repo *repository.SessionRepo
}

// NewMySQLStore wraps repo.
func NewMySQLStore(repo *repository.SessionRepo) *MySQLStore {
	return &MySQLStore{repo: repo}
}

func (s *MySQLStore) Save(ctx context.Context, r Record, ttl time.Duration) error {
	userJSON, err := json.Marshal(r.User)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return s.repo.Upsert(ctx, repository.SessionRow{
		ID:          r.ID,
		UserID:      r.User.ID,
		UserJSON:    userJSON,
		TokenSealed: r.TokenSealed,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ExpiresAt:   r.UpdatedAt.Add(ttl),
	})
}

func (s *MySQLStore) Load(ctx context.Context, id string) (Record, error) {
	row, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	r := Record{ID: row.ID, TokenSealed: row.TokenSealed, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal(row.UserJSON, &r.User); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *MySQLStore) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
