// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/carshare-web/internal/notify"
)

// NotificationEvent is published for every notification raised by a
// mutation.  It carries enough context for downstream consumers to log,
// e-mail or feed analytics without calling the marketplace API.
type NotificationEvent struct {
    ID        string `json:"id"`
    Level     string `json:"level"`
    Mutation  string `json:"mutation,omitempty"`
    UserID    int64  `json:"user_id,omitempty"`
    Message   string `json:"message"`
    CreatedAt string `json:"created_at"`
}

// EventFrom converts a notification to its wire form.
func EventFrom(n notify.Notification) NotificationEvent {
    return NotificationEvent{
        ID:        n.ID,
        Level:     string(n.Level),
        Mutation:  n.Mutation,
        UserID:    n.UserID,
        Message:   n.Message,
        CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
    }
}
