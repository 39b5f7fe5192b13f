package resolver

import (
	"context"
	"fmt"

	"ticket-resolver/internal/models"
	"ticket-resolver/internal/notify"
	"ticket-resolver/internal/reasoning"
)

type recordedUpdate struct {
	ticketID string
	fields   map[string]interface{}
}

type fakeTickets struct {
	updates    []recordedUpdate
	updateErr  error
	openCounts map[string]int
	teams      []string
}

func (f *fakeTickets) UpdateFields(ctx context.Context, ticketID string, fields map[string]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, recordedUpdate{ticketID: ticketID, fields: fields})
	return nil
}

func (f *fakeTickets) CountOpenByAssignee(ctx context.Context, name string) (int, error) {
	return f.openCounts[name], nil
}

func (f *fakeTickets) Teams(ctx context.Context) ([]string, error) {
	return f.teams, nil
}

func (f *fakeTickets) lastUpdate() recordedUpdate {
	if len(f.updates) == 0 {
		return recordedUpdate{}
	}
	return f.updates[len(f.updates)-1]
}

type fakeInvoices struct {
	searches  []map[string]string
	results   []models.InvoiceRecord
	queued    [][]models.InvoiceRecord
	searchErr error
}

func (f *fakeInvoices) Search(ctx context.Context, filters map[string]string) ([]models.InvoiceRecord, error) {
	f.searches = append(f.searches, filters)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.queued) > 0 {
		next := f.queued[0]
		f.queued = f.queued[1:]
		return next, nil
	}
	return f.results, nil
}

type fakeDirectory struct {
	emails     map[string]string
	manager    *models.Contact
	managerErr error
	users      []models.DirectoryUser
}

func (f *fakeDirectory) EmailForUser(ctx context.Context, name string) (string, error) {
	return f.emails[name], nil
}

func (f *fakeDirectory) ManagerForTeam(ctx context.Context, team string) (*models.Contact, error) {
	return f.manager, f.managerErr
}

func (f *fakeDirectory) ListUsers(ctx context.Context) ([]models.DirectoryUser, error) {
	return f.users, nil
}

type fakeMailer struct {
	sent    []notify.Email
	sendErr error
}

func (f *fakeMailer) Send(ctx context.Context, email notify.Email) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeAlerts struct {
	published []string
}

func (f *fakeAlerts) PublishApprovalAlert(ctx context.Context, ticketID, team string) error {
	f.published = append(f.published, ticketID)
	return nil
}

type fakeGenerator struct {
	path     string
	err      error
	kinds    []models.DocumentType
	invoices []models.InvoiceRecord
}

func (f *fakeGenerator) Generate(ctx context.Context, kind models.DocumentType, invoice models.InvoiceRecord, contextText string) (string, error) {
	f.kinds = append(f.kinds, kind)
	f.invoices = append(f.invoices, invoice)
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

// scriptedReasoner replays a fixed sequence of assistant turns.
type scriptedReasoner struct {
	turns []reasoning.Message
	err   error
	calls int
}

func (s *scriptedReasoner) Complete(ctx context.Context, messages []reasoning.Message, tools []reasoning.Tool) (*reasoning.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.turns) {
		return nil, fmt.Errorf("scripted reasoner exhausted after %d turns", s.calls)
	}
	turn := s.turns[s.calls]
	s.calls++
	return &turn, nil
}

func assistantToolCall(id, name, arguments string) reasoning.Message {
	return reasoning.Message{
		Role: reasoning.RoleAssistant,
		ToolCalls: []reasoning.ToolCall{{
			ID:   id,
			Type: "function",
			Function: reasoning.FunctionCall{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}
}
