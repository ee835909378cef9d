// Package query implements cached reads and invalidating writes over the
// marketplace API. A Client is an explicitly constructed object; nothing in
// the package is global, so tests can build one per case.
package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/iliyamo/carshare-web/internal/metrics"
	"github.com/iliyamo/carshare-web/internal/notify"
)

// DefaultStaleTime is how long a fetched payload is served without refetching.
const DefaultStaleTime = 5 * time.Minute

// Client binds a cache store to a notification sink and a scope.
type Client struct {
	store     Store
	notifier  notify.Notifier
	log       *slog.Logger
	staleTime time.Duration
	scope     string
	userID    int64
	now       func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithStaleTime sets the freshness window; zero or negative disables it
// (entries stay fresh until invalidated).
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

// WithNotifier sets the process-wide notification sink.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithLogger sets the logger used for query and mutation failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a process-wide client over store.
func NewClient(store Store, opts ...Option) *Client {
	c := &Client{
		store:     store,
		notifier:  notify.Discard,
		log:       slog.Default(),
		staleTime: DefaultStaleTime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// For derives a per-request client: private keys are scoped to userID and
// notifications additionally go to extra (typically a notify.Recorder).
func (c *Client) For(userID int64, extra notify.Notifier) *Client {
	cp := *c
	cp.userID = userID
	cp.scope = ""
	if userID > 0 {
		cp.scope = "user:" + strconv.FormatInt(userID, 10)
	}
	if extra != nil {
		cp.notifier = notify.Multi{c.notifier, extra}
	}
	return &cp
}

// Store exposes the underlying cache store.
func (c *Client) Store() Store { return c.store }

// PrivateKey builds a key scoped to the current user.
func (c *Client) PrivateKey(resource string, params url.Values) Key {
	return Key{Scope: c.scope, Resource: resource, Params: params}
}

// PublicKey builds a key shared by every user.
func (c *Client) PublicKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Params: params}
}

// Invalidate marks every entry of the given resources stale. Store errors
// are logged; a failed invalidation must not turn a successful write into
// a user-facing error.
func (c *Client) Invalidate(ctx context.Context, resources ...string) {
	for _, r := range resources {
		// Invalidation runs even if the request was cancelled after the write.
		if err := c.store.Invalidate(context.WithoutCancel(ctx), r); err != nil {
			c.log.Warn("query cache invalidate failed", slog.String("resource", r), slog.Any("err", err))
			continue
		}
		metrics.Invalidations.WithLabelValues(r).Inc()
	}
}

func (c *Client) fresh(e Entry) bool {
	if e.Stale {
		return false
	}
	if c.staleTime <= 0 {
		return true
	}
	return c.now().Sub(e.FetchedAt) < c.staleTime
}

// Result is the outcome of a read.
type Result[T any] struct {
	Data      T
	Err       error
	Cached    bool
	FetchedAt time.Time
}

// OK reports whether the read succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Query is one cacheable read.
type Query[T any] struct {
	Key   Key
	Fetch func(ctx context.Context) (T, error)
}

// Run serves the read from cache when a fresh entry exists, otherwise it
// fetches and stores the payload. A response that arrives after ctx was
// cancelled is discarded, not cached.
func (q Query[T]) Run(ctx context.Context, c *Client) Result[T] {
	e, ok, err := c.store.Get(ctx, q.Key)
	if err != nil {
		c.log.Warn("query cache read failed", slog.String("key", q.Key.String()), slog.Any("err", err))
	}
	if ok && c.fresh(e) {
		var data T
		if err := json.Unmarshal(e.Data, &data); err == nil {
			metrics.CacheLookups.WithLabelValues(q.Key.Resource, "hit").Inc()
			return Result[T]{Data: data, Cached: true, FetchedAt: e.FetchedAt}
		}
	}
	outcome := "miss"
	if ok {
		outcome = "stale"
	}
	metrics.CacheLookups.WithLabelValues(q.Key.Resource, outcome).Inc()
	return q.fetch(ctx, c)
}

// Refetch always goes to the network and refreshes the cache.
func (q Query[T]) Refetch(ctx context.Context, c *Client) Result[T] {
	return q.fetch(ctx, c)
}

func (q Query[T]) fetch(ctx context.Context, c *Client) Result[T] {
	data, err := q.Fetch(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		var zero T
		return Result[T]{Data: zero, Err: ctxErr}
	}
	if err != nil {
		c.log.Warn("query failed", slog.String("resource", q.Key.Resource), slog.Int64("user_id", c.userID), slog.Any("err", err))
		var zero T
		return Result[T]{Data: zero, Err: err}
	}
	now := c.now()
	if payload, mErr := json.Marshal(data); mErr == nil {
		if sErr := c.store.Set(ctx, q.Key, Entry{Data: payload, FetchedAt: now}); sErr != nil {
			c.log.Warn("query cache write failed", slog.String("key", q.Key.String()), slog.Any("err", sErr))
		}
	}
	return Result[T]{Data: data, FetchedAt: now}
}

