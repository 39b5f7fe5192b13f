package resolver

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-resolver/internal/common/config"
	"ticket-resolver/internal/common/errors"
	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/models"
	"ticket-resolver/internal/reasoning"
)

func newOrchestrator(f *dispatcherFixture, reasoner Reasoner, workflow config.WorkflowConfig) *Orchestrator {
	if workflow.MaxTurns == 0 {
		workflow.MaxTurns = 6
	}
	if workflow.ApprovalPrecedence == "" {
		workflow.ApprovalPrecedence = config.PrecedenceModel
	}
	return NewOrchestrator(reasoner, f.invoices, f.d, workflow, logger.NewNoOpLogger())
}

func TestOrchestrator_SkipsClosedTicket(t *testing.T) {
	f := newDispatcherFixture()
	reasoner := &scriptedReasoner{}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	ticket := openTicket()
	ticket.Status = models.StatusClosed

	outcome, err := o.Process(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome.Kind)
	assert.Zero(t, reasoner.calls)
	assert.Empty(t, f.tickets.updates)
}

func TestOrchestrator_FreeTextLeavesRecordUntouched(t *testing.T) {
	f := newDispatcherFixture()
	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		{Role: reasoning.RoleAssistant, Content: "I am not sure what to do here."},
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	outcome, err := o.Process(context.Background(), openTicket())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFreeText, outcome.Kind)
	assert.Equal(t, "I am not sure what to do here.", outcome.Response)
	assert.Equal(t, 1, outcome.Turns)

	// A free-text turn is terminal but mutates nothing.
	assert.Empty(t, f.tickets.updates)
	assert.Empty(t, f.mailer.sent)
}

func TestOrchestrator_SearchThenResolve(t *testing.T) {
	f := newDispatcherFixture()
	f.invoices.results = []models.InvoiceRecord{{InvoiceNumber: "INV-1016", PaymentStatus: "Paid"}}

	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolSearchInvoices, `{"Invoice Number": "INV-1016"}`),
		assistantToolCall("call-2", toolResolveTicket,
			`{"ticket_id": "TKT-1001", "ai_response": "INV-1016 is paid.", "auto_solved": true, "closure_type": "without_document"}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	outcome, err := o.Process(context.Background(), openTicket())
	require.NoError(t, err)

	assert.Equal(t, OutcomeResolved, outcome.Kind)
	assert.Equal(t, models.CategoryWithoutDocument, outcome.Category)
	assert.Equal(t, 2, outcome.Turns)
	assert.Equal(t, []map[string]string{{"Invoice Number": "INV-1016"}}, f.invoices.searches)
	assert.Equal(t, string(models.StatusClosed), f.tickets.lastUpdate().fields["status"])
	require.Len(t, f.mailer.sent, 1)
	assert.Contains(t, f.mailer.sent[0].Body, "INV-1016 is paid.")
}

func TestOrchestrator_CachedInvoiceFeedsDocumentClose(t *testing.T) {
	f := newDispatcherFixture()
	f.invoices.results = []models.InvoiceRecord{{InvoiceNumber: "INV-1016", PaymentStatus: "Paid"}}

	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolSearchInvoices, `{"Invoice Number": "INV-1016"}`),
		assistantToolCall("call-2", toolResolveTicket,
			`{"ticket_id": "TKT-1001", "ai_response": "Copy attached.", "auto_solved": true, "closure_type": "with_document", "document_type": "invoice_copy"}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	outcome, err := o.Process(context.Background(), openTicket())
	require.NoError(t, err)
	assert.Equal(t, models.CategoryWithDocument, outcome.Category)

	// One search from the conversation, none from the dispatcher: the cached
	// record is reused for generation.
	assert.Len(t, f.invoices.searches, 1)
	require.Len(t, f.documents.kinds, 1)
	assert.Equal(t, models.DocumentInvoiceCopy, f.documents.kinds[0])
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "/tmp/doc.txt", f.mailer.sent[0].AttachmentPath)
}

func TestOrchestrator_LatestSearchWinsForDocumentClose(t *testing.T) {
	f := newDispatcherFixture()
	f.invoices.queued = [][]models.InvoiceRecord{
		{{InvoiceNumber: "INV-1001", PaymentStatus: "Open"}},
		{{InvoiceNumber: "INV-1016", PaymentStatus: "Paid"}},
	}

	// The service refines its search; the second hit replaces the first.
	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolSearchInvoices, `{"Vendor Name": "Acme"}`),
		assistantToolCall("call-2", toolSearchInvoices, `{"Invoice Number": "INV-1016"}`),
		assistantToolCall("call-3", toolResolveTicket,
			`{"ticket_id": "TKT-1001", "ai_response": "Copy attached.", "auto_solved": true, "closure_type": "with_document", "document_type": "invoice_copy"}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	_, err := o.Process(context.Background(), openTicket())
	require.NoError(t, err)

	require.Len(t, f.documents.invoices, 1)
	assert.Equal(t, "INV-1016", f.documents.invoices[0].InvoiceNumber)
}

func TestOrchestrator_ReassignDispatch(t *testing.T) {
	f := newDispatcherFixture()
	f.directory.users = []models.DirectoryUser{
		{Name: "Bob", Email: "bob@example.com", Role: "employee", Team: "AR Team"},
	}

	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolReassignTicket,
			`{"ticket_id": "TKT-1001", "target_team": "AR", "reason": "Credit memo", "ai_response": "Forwarding to billing."}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	outcome, err := o.Process(context.Background(), openTicket())
	require.NoError(t, err)

	assert.Equal(t, models.CategoryReassign, outcome.Category)
	update := f.tickets.lastUpdate()
	assert.Equal(t, string(models.StatusOpen), update.fields["status"])
	assert.Equal(t, "Bob", update.fields["assigned_employee"])
	assert.Len(t, f.mailer.sent, 2)
}

func TestOrchestrator_ClassifierPrecedenceOverridesModel(t *testing.T) {
	f := newDispatcherFixture()
	f.directory.manager = &models.Contact{Name: "Meera", Email: "meera@example.com"}

	ticket := openTicket()
	ticket.Description = "Please put invoice on hold for INV-1016"

	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolResolveTicket,
			`{"ticket_id": "TKT-1001", "ai_response": "On hold request handled.", "auto_solved": true, "closure_type": "without_document"}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{
		ApprovalPrecedence: config.PrecedenceClassifier,
	})

	outcome, err := o.Process(context.Background(), ticket)
	require.NoError(t, err)

	assert.Equal(t, models.CategoryNeedsApproval, outcome.Category)
	assert.Equal(t, string(models.StatusPendingApproval), f.tickets.lastUpdate().fields["status"])
}

func TestOrchestrator_ModelPrecedenceKeepsModelCategory(t *testing.T) {
	f := newDispatcherFixture()

	ticket := openTicket()
	ticket.Description = "Please put invoice on hold for INV-1016"

	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolResolveTicket,
			`{"ticket_id": "TKT-1001", "ai_response": "On hold request handled.", "auto_solved": true, "closure_type": "without_document"}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{
		ApprovalPrecedence: config.PrecedenceModel,
	})

	outcome, err := o.Process(context.Background(), ticket)
	require.NoError(t, err)

	assert.Equal(t, models.CategoryWithoutDocument, outcome.Category)
	assert.Equal(t, string(models.StatusClosed), f.tickets.lastUpdate().fields["status"])
}

func TestOrchestrator_ClassifierPrecedenceRedirectsReassign(t *testing.T) {
	f := newDispatcherFixture()
	f.directory.manager = &models.Contact{Name: "Meera", Email: "meera@example.com"}

	ticket := openTicket()
	ticket.Description = "Please put invoice on hold for INV-1016"

	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolReassignTicket,
			`{"ticket_id": "TKT-1001", "target_team": "AP", "reason": "Hold request", "ai_response": "Forwarding."}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{
		ApprovalPrecedence: config.PrecedenceClassifier,
	})

	outcome, err := o.Process(context.Background(), ticket)
	require.NoError(t, err)

	assert.Equal(t, models.CategoryNeedsApproval, outcome.Category)
	assert.Equal(t, string(models.StatusPendingApproval), f.tickets.lastUpdate().fields["status"])
}

func TestOrchestrator_RejectsMalformedToolArguments(t *testing.T) {
	f := newDispatcherFixture()

	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolResolveTicket,
			`{"ticket_id": "TKT-1001", "closure_type": "shred_everything"}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	_, err := o.Process(context.Background(), openTicket())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidToolCall, errors.CodeOf(err))
	assert.Empty(t, f.tickets.updates)
	assert.Empty(t, f.mailer.sent)
}

func TestOrchestrator_RejectsUnknownTool(t *testing.T) {
	f := newDispatcherFixture()

	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", "delete_ticket", `{}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	_, err := o.Process(context.Background(), openTicket())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidToolCall, errors.CodeOf(err))
}

func TestOrchestrator_TurnBudgetExhaustion(t *testing.T) {
	f := newDispatcherFixture()
	f.invoices.results = []models.InvoiceRecord{{InvoiceNumber: "INV-1016"}}

	// The service keeps searching and never commits to a resolution.
	reasoner := &scriptedReasoner{turns: []reasoning.Message{
		assistantToolCall("call-1", toolSearchInvoices, `{"Invoice Number": "INV-1016"}`),
		assistantToolCall("call-2", toolSearchInvoices, `{"Payment Status": "Open"}`),
	}}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{MaxTurns: 2})

	outcome, err := o.Process(context.Background(), openTicket())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoResolution, outcome.Kind)
	assert.Equal(t, 2, outcome.Turns)

	// The ticket stays as-is for the next sweep to pick up.
	assert.Empty(t, f.tickets.updates)
	assert.Empty(t, f.mailer.sent)
}

func TestOrchestrator_ReasonerFailurePropagates(t *testing.T) {
	f := newDispatcherFixture()
	reasoner := &scriptedReasoner{err: fmt.Errorf("%w: boom", reasoning.ErrServiceFailed)}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	_, err := o.Process(context.Background(), openTicket())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeReasoningServiceFailed, errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))
	assert.Empty(t, f.tickets.updates)
}

func TestOrchestrator_TimeoutMapsToTimeoutCode(t *testing.T) {
	f := newDispatcherFixture()
	reasoner := &scriptedReasoner{err: reasoning.ErrServiceTimeout}
	o := newOrchestrator(f, reasoner, config.WorkflowConfig{})

	_, err := o.Process(context.Background(), openTicket())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeReasoningTimeout, errors.CodeOf(err))
}
