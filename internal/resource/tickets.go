package resource

import (
	"context"
	"strconv"

	"github.com/iliyamo/carshare-web/internal/apiclient"
	"github.com/iliyamo/carshare-web/internal/model"
	"github.com/iliyamo/carshare-web/internal/query"
)

// Tickets covers support tickets and reply threads.
type Tickets struct {
	api *apiclient.Client
	qc  *query.Client
}

func (t *Tickets) list(ctx context.Context, resource string, fetch func(context.Context) ([]model.Ticket, error)) query.Result[[]model.Ticket] {
	return query.Query[[]model.Ticket]{Key: t.qc.PrivateKey(resource, nil), Fetch: fetch}.Run(ctx, t.qc)
}

// All lists every ticket visible to the caller.
func (t *Tickets) All(ctx context.Context) query.Result[[]model.Ticket] {
	return t.list(ctx, ResTickets, t.api.Tickets.List)
}

// Mine lists the caller's own tickets.
func (t *Tickets) Mine(ctx context.Context) query.Result[[]model.Ticket] {
	return t.list(ctx, ResUserTickets, t.api.Tickets.Mine)
}

// Admin lists all tickets for support staff.
func (t *Tickets) Admin(ctx context.Context) query.Result[[]model.Ticket] {
	return t.list(ctx, ResAdminTickets, t.api.Tickets.Admin)
}

// Replies returns one ticket's thread.
func (t *Tickets) Replies(ctx context.Context, id int64) query.Result[[]model.Reply] {
	return query.Query[[]model.Reply]{
		Key: t.qc.PrivateKey(ResTicketReplies, query.Params("ticket", strconv.FormatInt(id, 10))),
		Fetch: func(ctx context.Context) ([]model.Reply, error) {
			return t.api.Tickets.Replies(ctx, id)
		},
	}.Run(ctx, t.qc)
}

// Create opens a ticket.
func (t *Tickets) Create() *query.Mutation[apiclient.NewTicket, *model.Ticket] {
	return query.NewMutation(t.qc, "create-ticket", t.api.Tickets.Create,
		query.MutationOptions[*model.Ticket]{
			Invalidates:    ticketLists,
			SuccessMessage: func(*model.Ticket) string { return "Ticket created. Our team will get back to you." },
			Fallback:       "Could not create the ticket.",
		})
}

// ReplyInput appends a message to a ticket.
type ReplyInput struct {
	TicketID int64
	Message  string
}

// Reply posts to a thread. The thread and every ticket list go stale.
func (t *Tickets) Reply() *query.Mutation[ReplyInput, *model.Reply] {
	return query.NewMutation(t.qc, "ticket-reply",
		func(ctx context.Context, in ReplyInput) (*model.Reply, error) {
			return t.api.Tickets.Reply(ctx, in.TicketID, in.Message)
		},
		query.MutationOptions[*model.Reply]{
			Invalidates:    concat([]string{ResTicketReplies}, ticketLists),
			SuccessMessage: func(*model.Reply) string { return "Reply sent." },
			Fallback:       "Could not send the reply.",
		})
}

// TicketStatusChange moves a ticket through the workflow.
type TicketStatusChange struct {
	TicketID int64
	Status   model.TicketStatus
}

// SetStatus updates a ticket's status.
func (t *Tickets) SetStatus() *query.Mutation[TicketStatusChange, *model.Ticket] {
	return query.NewMutation(t.qc, "ticket-status",
		func(ctx context.Context, in TicketStatusChange) (*model.Ticket, error) {
			return t.api.Tickets.SetStatus(ctx, in.TicketID, in.Status)
		},
		query.MutationOptions[*model.Ticket]{
			Invalidates:    concat([]string{ResTicketReplies}, ticketLists),
			SuccessMessage: func(tk *model.Ticket) string { return "Ticket marked " + string(tk.Status) + "." },
			Fallback:       "Could not update the ticket.",
		})
}
