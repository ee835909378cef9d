package query

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/iliyamo/carshare-web/internal/apiclient"
	"github.com/iliyamo/carshare-web/internal/metrics"
	"github.com/iliyamo/carshare-web/internal/notify"
)

// State is where a mutation is in its lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateSuccess State = "success"
	StateError   State = "error"
)

// ErrPending is returned when Mutate is called while a previous call on the
// same mutation has not settled.
var ErrPending = errors.New("mutation already in progress")

// MutationOptions describe what a write does besides the network call.
type MutationOptions[Out any] struct {
	// Invalidates lists the resources whose cache entries become stale on success.
	Invalidates []string
	// OnSuccess runs before invalidation and notification, e.g. to store a
	// session. An error here fails the mutation.
	OnSuccess func(ctx context.Context, out Out) error
	// SuccessMessage renders the success notification; nil means no notification.
	SuccessMessage func(out Out) string
	// Fallback is the error notification text when the API gives none.
	Fallback string
}

// Mutation is a pessimistic write: the cache only changes after the API
// confirms. There is no retry and no optimistic update.
type Mutation[In, Out any] struct {
	name   string
	client *Client
	do     func(ctx context.Context, in In) (Out, error)
	opts   MutationOptions[Out]

	mu    sync.Mutex
	state State
	err   error
}

// NewMutation binds a write to c.
func NewMutation[In, Out any](c *Client, name string, do func(ctx context.Context, in In) (Out, error), opts MutationOptions[Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{name: name, client: c, do: do, opts: opts, state: StateIdle}
}

// Name returns the mutation name used in logs, metrics and notifications.
func (m *Mutation[In, Out]) Name() string { return m.name }

// State reports the current lifecycle state.
func (m *Mutation[In, Out]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error of the last settled call.
func (m *Mutation[In, Out]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Reset returns a settled mutation to idle.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePending {
		m.state = StateIdle
		m.err = nil
	}
}

// Mutate performs the write. On success the declared resources are
// invalidated and a success notification is emitted; on failure an error
// notification carries the extracted message and the cache is untouched.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	m.mu.Lock()
	if m.state == StatePending {
		m.mu.Unlock()
		var zero Out
		return zero, ErrPending
	}
	m.state = StatePending
	m.err = nil
	m.mu.Unlock()

	out, err := m.do(ctx, in)
	if err == nil && m.opts.OnSuccess != nil {
		err = m.opts.OnSuccess(ctx, out)
	}
	if err != nil {
		m.fail(ctx, err)
		var zero Out
		return zero, err
	}

	c := m.client
	c.Invalidate(ctx, m.opts.Invalidates...)
	if m.opts.SuccessMessage != nil {
		if msg := m.opts.SuccessMessage(out); msg != "" {
			c.notify(ctx, notify.LevelSuccess, m.name, msg)
		}
	}
	metrics.Mutations.WithLabelValues(m.name, "success").Inc()

	m.mu.Lock()
	m.state = StateSuccess
	m.mu.Unlock()
	return out, nil
}

func (m *Mutation[In, Out]) fail(ctx context.Context, err error) {
	c := m.client
	msg := apiclient.MessageOf(err, m.opts.Fallback)
	c.log.Warn("mutation failed",
		slog.String("mutation", m.name),
		slog.Int64("user_id", c.userID),
		slog.String("message", msg),
		slog.Any("err", err),
	)
	c.notify(ctx, notify.LevelError, m.name, msg)
	metrics.Mutations.WithLabelValues(m.name, "error").Inc()

	m.mu.Lock()
	m.state = StateError
	m.err = err
	m.mu.Unlock()
}

func (c *Client) notify(ctx context.Context, level notify.Level, mutation, msg string) {
	n := notify.New(level, mutation, msg)
	n.UserID = c.userID
	c.notifier.Notify(ctx, n)
}
