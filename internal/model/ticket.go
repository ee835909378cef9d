package model

// TicketStatus is the support workflow state of a ticket.
type TicketStatus string

const (
    TicketOpen       TicketStatus = "open"
    TicketInProgress TicketStatus = "in_progress"
    TicketResolved   TicketStatus = "resolved"
    TicketClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
    switch s {
    case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
        return true
    }
    return false
}

// Reply is one message in a ticket thread.  Threads are append-only and
// kept in the order the API returns them.
type Reply struct {
    ID        int64  `json:"id,omitempty"`
    Author    string `json:"author"`
    Message   string `json:"message"`
    CreatedAt string `json:"created_at"`
}

// Ticket is a support request opened by a user.
type Ticket struct {
    ID          int64        `json:"id"`
    UserID      int64        `json:"user_id,omitempty"`
    Subject     string       `json:"subject"`
    Description string       `json:"description,omitempty"`
    Status      TicketStatus `json:"status"`
    Replies     []Reply      `json:"replies,omitempty"`
    CreatedAt   string       `json:"created_at,omitempty"`
}
