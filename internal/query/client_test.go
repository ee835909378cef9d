package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func counter(n *atomic.Int32, data []string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		n.Add(1)
		return data, nil
	}
}

func TestKey_StringIgnoresParamOrder(t *testing.T) {
	a := Key{Resource: "cars", Params: url.Values{"b": {"2"}, "a": {"1"}}}
	b := Key{Resource: "cars", Params: Params("a", "1", "b", "2")}
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.Hash(), b.Hash())

	scoped := Key{Scope: "user:1", Resource: "cars", Params: a.Params}
	assert.NotEqual(t, a.String(), scoped.String())
}

func TestParams_DropsEmpty(t *testing.T) {
	v := Params("status", "", "search", "  ", "owner_id", "3", "dangling")
	assert.Equal(t, url.Values{"owner_id": {"3"}}, v)
}

func TestFor_Scope(t *testing.T) {
	c := NewClient(NewMemoryStore(), WithLogger(quiet))
	assert.Equal(t, "", c.For(0, nil).PrivateKey("x", nil).Scope)
	assert.Equal(t, "user:42", c.For(42, nil).PrivateKey("x", nil).Scope)
	assert.Equal(t, "", c.For(42, nil).PublicKey("x", nil).Scope)
}

func TestRun_ServesFreshFromCache(t *testing.T) {
	c := NewClient(NewMemoryStore(), WithLogger(quiet))
	var calls atomic.Int32
	q := Query[[]string]{Key: c.PublicKey("cars", nil), Fetch: counter(&calls, []string{"a", "b"})}

	first := q.Run(context.Background(), c)
	require.True(t, first.OK())
	assert.False(t, first.Cached)

	second := q.Run(context.Background(), c)
	require.True(t, second.OK())
	assert.True(t, second.Cached)
	assert.Equal(t, []string{"a", "b"}, second.Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_StaleTimeExpires(t *testing.T) {
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewClient(NewMemoryStore(), WithLogger(quiet), WithStaleTime(time.Minute), WithClock(clk.now))
	var calls atomic.Int32
	q := Query[[]string]{Key: c.PublicKey("cars", nil), Fetch: counter(&calls, nil)}

	q.Run(context.Background(), c)
	clk.advance(30 * time.Second)
	q.Run(context.Background(), c)
	assert.Equal(t, int32(1), calls.Load())

	clk.advance(31 * time.Second)
	res := q.Run(context.Background(), c)
	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRun_ZeroStaleTimeNeverExpires(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := NewClient(NewMemoryStore(), WithLogger(quiet), WithStaleTime(0), WithClock(clk.now))
	var calls atomic.Int32
	q := Query[[]string]{Key: c.PublicKey("cars", nil), Fetch: counter(&calls, nil)}

	q.Run(context.Background(), c)
	clk.advance(24 * time.Hour)
	q.Run(context.Background(), c)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_ScopesDoNotShare(t *testing.T) {
	base := NewClient(NewMemoryStore(), WithLogger(quiet))
	alice, bob := base.For(1, nil), base.For(2, nil)

	var calls atomic.Int32
	fetch := counter(&calls, []string{"t"})
	Query[[]string]{Key: alice.PrivateKey("tickets.user", nil), Fetch: fetch}.Run(context.Background(), alice)
	res := Query[[]string]{Key: bob.PrivateKey("tickets.user", nil), Fetch: fetch}.Run(context.Background(), bob)

	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvalidate_AllScopesAndParams(t *testing.T) {
	store := NewMemoryStore()
	base := NewClient(store, WithLogger(quiet))
	alice, bob := base.For(1, nil), base.For(2, nil)
	ctx := context.Background()

	var calls atomic.Int32
	fetch := counter(&calls, []string{"x"})
	queries := []struct {
		c *Client
		q Query[[]string]
	}{
		{alice, Query[[]string]{Key: alice.PrivateKey("cars.owner", nil), Fetch: fetch}},
		{bob, Query[[]string]{Key: bob.PrivateKey("cars.owner", nil), Fetch: fetch}},
		{bob, Query[[]string]{Key: bob.PrivateKey("cars.owner", Params("status", "pending")), Fetch: fetch}},
	}
	for _, x := range queries {
		x.q.Run(ctx, x.c)
	}
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, 3, store.Len("cars.owner"))

	alice.Invalidate(ctx, "cars.owner")

	for _, x := range queries {
		res := x.q.Run(ctx, x.c)
		assert.False(t, res.Cached)
	}
	assert.Equal(t, int32(6), calls.Load())
}

func TestInvalidate_LeavesOtherResources(t *testing.T) {
	c := NewClient(NewMemoryStore(), WithLogger(quiet))
	ctx := context.Background()
	var calls atomic.Int32
	q := Query[[]string]{Key: c.PublicKey("cars.available", nil), Fetch: counter(&calls, nil)}

	q.Run(ctx, c)
	c.Invalidate(ctx, "tickets")
	res := q.Run(ctx, c)
	assert.True(t, res.Cached)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_CancelledResponseNotCached(t *testing.T) {
	store := NewMemoryStore()
	c := NewClient(store, WithLogger(quiet))
	ctx, cancel := context.WithCancel(context.Background())

	q := Query[[]string]{
		Key: c.PublicKey("cars.available", nil),
		Fetch: func(context.Context) ([]string, error) {
			cancel()
			return []string{"late"}, nil
		},
	}
	res := q.Run(ctx, c)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Nil(t, res.Data)
	assert.Zero(t, store.Len("cars.available"))
}

func TestRun_ErrorNotCached(t *testing.T) {
	store := NewMemoryStore()
	c := NewClient(store, WithLogger(quiet))
	boom := errors.New("boom")

	res := Query[[]string]{
		Key:   c.PublicKey("cars.available", nil),
		Fetch: func(context.Context) ([]string, error) { return nil, boom },
	}.Run(context.Background(), c)

	assert.ErrorIs(t, res.Err, boom)
	assert.False(t, res.OK())
	assert.Zero(t, store.Len("cars.available"))
}

func TestRefetch_BypassesCache(t *testing.T) {
	c := NewClient(NewMemoryStore(), WithLogger(quiet))
	var calls atomic.Int32
	q := Query[[]string]{Key: c.PublicKey("cars", nil), Fetch: counter(&calls, nil)}

	q.Run(context.Background(), c)
	res := q.Refetch(context.Background(), c)
	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), calls.Load())
}
