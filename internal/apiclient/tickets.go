package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iliyamo/carshare-web/internal/model"
)

// TicketsService handles support tickets and their reply threads.
type TicketsService struct {
	client *Client
}

// NewTicket opens a ticket.
type NewTicket struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// List returns every ticket visible to the caller.
func (s *TicketsService) List(ctx context.Context) ([]model.Ticket, error) {
	return s.list(ctx, "/tickets/")
}

// Mine returns the caller's own tickets.
func (s *TicketsService) Mine(ctx context.Context) ([]model.Ticket, error) {
	return s.list(ctx, "/tickets/user/")
}

// Admin returns all tickets for support staff.
func (s *TicketsService) Admin(ctx context.Context) ([]model.Ticket, error) {
	return s.list(ctx, "/admin/tickets/")
}

func (s *TicketsService) list(ctx context.Context, path string) ([]model.Ticket, error) {
	var out []model.Ticket
	if err := s.client.get(ctx, path, nil, true, "Could not load tickets.", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Replies returns a ticket's thread in server order.
func (s *TicketsService) Replies(ctx context.Context, id int64) ([]model.Reply, error) {
	var out []model.Reply
	if err := s.client.get(ctx, fmt.Sprintf("/tickets/%d/replies/", id), nil, true, "Could not load replies.", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create opens a new ticket.
func (s *TicketsService) Create(ctx context.Context, in NewTicket) (*model.Ticket, error) {
	var out model.Ticket
	if err := s.client.postJSON(ctx, "/tickets/", in, "Could not create the ticket.", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reply appends a message to a ticket's thread.
func (s *TicketsService) Reply(ctx context.Context, id int64, message string) (*model.Reply, error) {
	var out model.Reply
	body := map[string]string{"message": message}
	if err := s.client.postJSON(ctx, fmt.Sprintf("/tickets/%d/reply/", id), body, "Could not send the reply.", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetStatus moves a ticket to another workflow state.
func (s *TicketsService) SetStatus(ctx context.Context, id int64, status model.TicketStatus) (*model.Ticket, error) {
	var out model.Ticket
	err := s.client.Do(ctx, Request{
		Method:   http.MethodPatch,
		Path:     fmt.Sprintf("/tickets/%d/", id),
		JSON:     map[string]string{"status": string(status)},
		Auth:     true,
		Fallback: "Could not update the ticket.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
