// Package notify carries user-facing notifications raised by mutations.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity shown to the user.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one toast-style message.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Mutation  string    `json:"mutation,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New stamps a notification with an id and time.
func New(level Level, mutation, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		Mutation:  mutation,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier receives notifications. Implementations must not block the
// request for long and must not fail it.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi fans a notification out to several notifiers, skipping nils.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, x := range m {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}

// Discard drops everything.
var Discard Notifier = Func(func(context.Context, Notification) {})

// Recorder collects the notifications raised while serving one request so
// the handler can return or flash them.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// Items returns a copy of what was recorded, oldest first.
func (r *Recorder) Items() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Logger writes notifications to a structured log.
type Logger struct{ Log *slog.Logger }

func (l Logger) Notify(ctx context.Context, n Notification) {
	lvl := slog.LevelInfo
	if n.Level == LevelError {
		lvl = slog.LevelWarn
	}
	l.Log.LogAttrs(ctx, lvl, "notification",
		slog.String("id", n.ID),
		slog.String("level", string(n.Level)),
		slog.String("mutation", n.Mutation),
		slog.Int64("user_id", n.UserID),
		slog.String("message", n.Message),
	)
}
