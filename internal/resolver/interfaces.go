package resolver

import (
	"context"

	"ticket-resolver/internal/models"
	"ticket-resolver/internal/reasoning"
)

// TicketRecords is the slice of the record store the resolver mutates and
// queries. Field updates are whole-value replacements.
type TicketRecords interface {
	UpdateFields(ctx context.Context, ticketID string, fields map[string]interface{}) error
	CountOpenByAssignee(ctx context.Context, name string) (int, error)
	Teams(ctx context.Context) ([]string, error)
}

// InvoiceRecords is the read-only invoice ledger.
type InvoiceRecords interface {
	Search(ctx context.Context, filters map[string]string) ([]models.InvoiceRecord, error)
}

// Directory resolves people and teams to contacts.
type Directory interface {
	EmailForUser(ctx context.Context, name string) (string, error)
	ManagerForTeam(ctx context.Context, team string) (*models.Contact, error)
	ListUsers(ctx context.Context) ([]models.DirectoryUser, error)
}

// Reasoner produces one assistant turn from a transcript and tool schema.
type Reasoner interface {
	Complete(ctx context.Context, messages []reasoning.Message, tools []reasoning.Tool) (*reasoning.Message, error)
}
