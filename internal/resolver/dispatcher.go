package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticket-resolver/internal/common/errors"
	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/common/metrics"
	"ticket-resolver/internal/document"
	"ticket-resolver/internal/models"
	"ticket-resolver/internal/notify"
)

// Dispatcher applies the side effects of a resolution: record updates,
// outbound emails, generated attachments, and approval alerts. The record
// update always lands before any notification, so a failed send can never
// leave the store claiming an email that was sent, and a failed update
// never produces an email for a state that was not recorded.
type Dispatcher struct {
	tickets   TicketRecords
	invoices  InvoiceRecords
	directory Directory
	mailer    notify.Mailer
	alerts    notify.AlertPublisher
	documents document.Generator
	tokens    *TokenIssuer
	selector  *SpecialistSelector
	logger    logger.Logger
	now       func() time.Time
}

func NewDispatcher(
	tickets TicketRecords,
	invoices InvoiceRecords,
	directory Directory,
	mailer notify.Mailer,
	alerts notify.AlertPublisher,
	documents document.Generator,
	tokens *TokenIssuer,
	selector *SpecialistSelector,
	log logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		tickets:   tickets,
		invoices:  invoices,
		directory: directory,
		mailer:    mailer,
		alerts:    alerts,
		documents: documents,
		tokens:    tokens,
		selector:  selector,
		logger:    log.WithFields(map[string]interface{}{"component": "dispatcher"}),
		now:       time.Now,
	}
}

// ResolveTicket executes a resolve_ticket call for categories 1 to 3.
func (d *Dispatcher) ResolveTicket(ctx context.Context, ticket *models.Ticket, category models.Category, args ResolveTicketArgs, lastInvoice *models.InvoiceRecord) error {
	switch category {
	case models.CategoryWithoutDocument:
		return d.closeWithInfo(ctx, ticket, args)
	case models.CategoryWithDocument:
		return d.closeWithDocument(ctx, ticket, args, lastInvoice)
	case models.CategoryNeedsApproval:
		return d.escalate(ctx, ticket, args)
	}
	return errors.NewInvalidToolCallError(toolResolveTicket, fmt.Sprintf("unknown category %q", category))
}

// closeWithInfo closes the ticket and emails the resolution text.
func (d *Dispatcher) closeWithInfo(ctx context.Context, ticket *models.Ticket, args ResolveTicketArgs) error {
	if err := d.closeRecord(ctx, ticket.ID, args.AIResponse); err != nil {
		return err
	}
	metrics.TicketsResolved.WithLabelValues(string(models.CategoryWithoutDocument)).Inc()

	d.emailRequestor(ctx, ticket, notify.Email{
		Subject: fmt.Sprintf("Ticket %s Resolved", ticket.ID),
		Body: fmt.Sprintf("Dear %s,\n\n%s\n\nYour ticket %s has been resolved and closed.\n\nBest regards,\nFinance Back Office",
			ticket.SafeRequestorName(), args.AIResponse, ticket.ID),
	})
	return nil
}

// closeWithDocument closes the ticket and emails the resolution with a
// generated ledger snapshot attached. Attachment generation is best-effort:
// when no invoice can be located or rendering fails, the ticket still
// closes and the email degrades to a status note.
func (d *Dispatcher) closeWithDocument(ctx context.Context, ticket *models.Ticket, args ResolveTicketArgs, lastInvoice *models.InvoiceRecord) error {
	invoice := d.locateInvoice(ctx, ticket, lastInvoice)

	var attachmentPath string
	if invoice != nil && d.documents != nil {
		kind := models.ParseDocumentType(args.DocumentType)
		if kind == models.DocumentNone {
			kind = models.DocumentInvoiceCopy
		}
		path, err := d.documents.Generate(ctx, kind, *invoice, ticket.Description)
		if err != nil {
			stdErr := errors.NewDocumentGenerationFailedError(err)
			d.logger.WithError(stdErr).Warn("document generation failed, degrading to status note", map[string]interface{}{
				"ticketId":     ticket.ID,
				"documentType": string(kind),
			})
			metrics.DocumentsGenerated.WithLabelValues(string(kind), "error").Inc()
		} else {
			attachmentPath = path
			metrics.DocumentsGenerated.WithLabelValues(string(kind), "success").Inc()
		}
	}

	if err := d.closeRecord(ctx, ticket.ID, args.AIResponse); err != nil {
		return err
	}
	metrics.TicketsResolved.WithLabelValues(string(models.CategoryWithDocument)).Inc()

	body := fmt.Sprintf("Dear %s,\n\n%s\n", ticket.SafeRequestorName(), args.AIResponse)
	if attachmentPath != "" {
		body += "\nThe requested document is attached. It was generated from our system records.\n"
	} else {
		body += fmt.Sprintf("\nWe could not attach the requested document at this time. Our records show the invoice status as: %s.\n",
			invoice.LedgerStatus())
	}
	body += fmt.Sprintf("\nYour ticket %s has been resolved and closed.\n\nBest regards,\nFinance Back Office", ticket.ID)

	d.emailRequestor(ctx, ticket, notify.Email{
		Subject:        fmt.Sprintf("Ticket %s Resolved", ticket.ID),
		Body:           body,
		AttachmentPath: attachmentPath,
	})
	return nil
}

// escalate moves the ticket to manager approval and notifies the manager
// only. The requestor is not emailed until the manager acts.
func (d *Dispatcher) escalate(ctx context.Context, ticket *models.Ticket, args ResolveTicketArgs) error {
	now := d.now().UTC()
	response := args.AIResponse
	if strings.TrimSpace(response) == "" {
		response = fmt.Sprintf("Ticket %s requires manager approval. An approval request has been sent to the %s team manager.",
			ticket.ID, ticket.AssignedTeam)
	}

	fields := map[string]interface{}{
		"status":              string(models.StatusPendingApproval),
		"admin_review_needed": true,
		"auto_solved":         false,
		"updated_date":        now,
		"ai_response":         response,
	}
	if err := d.tickets.UpdateFields(ctx, ticket.ID, fields); err != nil {
		return errors.NewTicketUpdateFailedError(ticket.ID, err)
	}
	metrics.TicketsResolved.WithLabelValues(string(models.CategoryNeedsApproval)).Inc()

	manager, err := d.directory.ManagerForTeam(ctx, ticket.AssignedTeam)
	if err != nil {
		d.logger.WithError(err).Error("manager lookup failed", map[string]interface{}{
			"ticketId": ticket.ID,
			"team":     ticket.AssignedTeam,
		})
	}
	if manager == nil {
		d.logger.Warn("no manager on file for team, approval email skipped", map[string]interface{}{
			"ticketId": ticket.ID,
			"team":     ticket.AssignedTeam,
		})
	} else {
		body := fmt.Sprintf(
			"Dear %s,\n\nTicket %s requires your approval.\n\nRequester: %s\nTeam: %s\n",
			manager.Name, ticket.ID, ticket.SafeRequestorName(), ticket.AssignedTeam)
		if assignee := ticket.AssigneeName(); assignee != "" {
			body += fmt.Sprintf("Assignee: %s\n", assignee)
		}
		body += fmt.Sprintf("Request:\n%s\n\nApprove: %s\nReject: %s\n\nBest regards,\nFinance Back Office",
			ticket.Description, d.tokens.ApproveLink(ticket.ID), d.tokens.RejectLink(ticket.ID))
		d.send(ctx, "manager", notify.Email{
			To:      manager.Email,
			Subject: fmt.Sprintf("[Approval Required] Ticket %s", ticket.ID),
			Body:    body,
		})
	}

	if d.alerts != nil {
		if err := d.alerts.PublishApprovalAlert(ctx, ticket.ID, ticket.AssignedTeam); err != nil {
			d.logger.WithError(err).Warn("approval alert publish failed", map[string]interface{}{
				"ticketId": ticket.ID,
			})
		}
	}
	return nil
}

// Reassign executes a reassign_ticket_and_notify call: the ticket moves to
// the target billing team, picks up the least-loaded specialist, stays
// Open, and both the requestor and the specialist are notified.
func (d *Dispatcher) Reassign(ctx context.Context, ticket *models.Ticket, args ReassignArgs) error {
	teamName := d.canonicalTeam(ctx, args.TargetTeam)

	specialist, err := d.selector.Select(ctx, args.TargetTeam)
	if err != nil {
		return errors.NewTicketQueryFailedError(err)
	}

	now := d.now().UTC()
	fields := map[string]interface{}{
		"status":              string(models.StatusOpen),
		"assigned_team":       teamName,
		"auto_solved":         false,
		"admin_review_needed": false,
		"updated_date":        now,
		"ai_response":         args.AIResponse,
	}
	if specialist != nil {
		fields["assigned_employee"] = specialist.Name
	}
	if err := d.tickets.UpdateFields(ctx, ticket.ID, fields); err != nil {
		return errors.NewTicketUpdateFailedError(ticket.ID, err)
	}
	metrics.TicketsResolved.WithLabelValues(string(models.CategoryReassign)).Inc()

	assigneeNote := "a billing specialist"
	if specialist != nil {
		assigneeNote = specialist.Name
	}
	d.emailRequestor(ctx, ticket, notify.Email{
		Subject: fmt.Sprintf("Ticket %s Reassigned", ticket.ID),
		Body: fmt.Sprintf("Dear %s,\n\n%s\n\nYour ticket %s has been forwarded to the %s team and assigned to %s. They will follow up with you directly.\n\nBest regards,\nFinance Back Office",
			ticket.SafeRequestorName(), args.AIResponse, ticket.ID, teamName, assigneeNote),
	})

	if specialist != nil {
		d.emailSpecialist(ctx, ticket, specialist, teamName, args.Reason)
	}
	return nil
}

// NotifyApprovalOutcome closes a pending-approval ticket after a manager
// decision and informs the requestor of the outcome.
func (d *Dispatcher) NotifyApprovalOutcome(ctx context.Context, ticket *models.Ticket, approved bool) error {
	outcome := "approved and completed"
	if !approved {
		outcome = "reviewed and declined by the team manager"
	}
	response := fmt.Sprintf("Manager decision recorded: request %s.", outcome)

	if err := d.closeRecord(ctx, ticket.ID, response); err != nil {
		return err
	}

	d.emailRequestor(ctx, ticket, notify.Email{
		Subject: fmt.Sprintf("Ticket %s Update", ticket.ID),
		Body: fmt.Sprintf("Dear %s,\n\nYour request in ticket %s has been %s. The ticket is now closed.\n\nBest regards,\nFinance Back Office",
			ticket.SafeRequestorName(), ticket.ID, outcome),
	})
	return nil
}

// closeRecord applies the shared closing field set.
func (d *Dispatcher) closeRecord(ctx context.Context, ticketID, response string) error {
	now := d.now().UTC()
	fields := map[string]interface{}{
		"status":              string(models.StatusClosed),
		"closed_date":         now,
		"updated_date":        now,
		"auto_solved":         true,
		"admin_review_needed": false,
		"ai_response":         response,
	}
	if err := d.tickets.UpdateFields(ctx, ticketID, fields); err != nil {
		return errors.NewTicketUpdateFailedError(ticketID, err)
	}
	return nil
}

// locateInvoice finds the ledger record backing a document request: the
// record cached from the conversation's own search wins, otherwise the
// extractor's candidates are tried in order.
func (d *Dispatcher) locateInvoice(ctx context.Context, ticket *models.Ticket, lastInvoice *models.InvoiceRecord) *models.InvoiceRecord {
	if lastInvoice != nil {
		return lastInvoice
	}
	for _, candidate := range ExtractInvoiceCandidates(ticket) {
		records, err := d.invoices.Search(ctx, map[string]string{"Invoice Number": candidate})
		if err != nil {
			d.logger.WithError(errors.NewInvoiceQueryFailedError(err)).Warn("invoice lookup failed", map[string]interface{}{
				"ticketId":  ticket.ID,
				"candidate": candidate,
			})
			continue
		}
		if len(records) > 0 {
			return &records[0]
		}
	}
	d.logger.Warn("no ledger record found for document request", map[string]interface{}{
		"ticketId": ticket.ID,
	})
	return nil
}

// canonicalTeam maps a tool-supplied team code ("AP"/"AR") onto the team
// name as stored in the records, falling back to the code itself.
func (d *Dispatcher) canonicalTeam(ctx context.Context, code string) string {
	teams, err := d.tickets.Teams(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("team listing failed", map[string]interface{}{"code": code})
		return code
	}
	lower := strings.ToLower(strings.TrimSpace(code))
	for _, team := range teams {
		if strings.Contains(strings.ToLower(team), lower) {
			return team
		}
	}
	return code
}

func (d *Dispatcher) emailRequestor(ctx context.Context, ticket *models.Ticket, email notify.Email) {
	if !ticket.HasRequestorEmail() {
		d.logger.Warn("requestor email missing, notification skipped", map[string]interface{}{
			"ticketId": ticket.ID,
		})
		return
	}
	email.To = strings.TrimSpace(ticket.RequestorEmail)
	d.send(ctx, "requestor", email)
}

func (d *Dispatcher) emailSpecialist(ctx context.Context, ticket *models.Ticket, specialist *models.Contact, teamName, reason string) {
	address := specialist.Email
	if address == "" {
		resolved, err := d.directory.EmailForUser(ctx, specialist.Name)
		if err != nil {
			d.logger.WithError(err).Warn("specialist email lookup failed", map[string]interface{}{
				"specialist": specialist.Name,
			})
			return
		}
		address = resolved
	}
	if address == "" {
		d.logger.Warn("specialist has no email on file, notification skipped", map[string]interface{}{
			"specialist": specialist.Name,
		})
		return
	}

	d.send(ctx, "specialist", notify.Email{
		To:      address,
		Subject: fmt.Sprintf("Ticket %s Assigned to You", ticket.ID),
		Body: fmt.Sprintf("Dear %s,\n\nTicket %s has been assigned to you on the %s team.\n\nRequester: %s\nReason: %s\n\nRequest:\n%s\n\nBest regards,\nFinance Back Office",
			specialist.Name, ticket.ID, teamName, ticket.SafeRequestorName(), reason, ticket.Description),
	})
}

// send delivers one email best-effort. Address validation and transport
// failures are logged and counted, never propagated.
func (d *Dispatcher) send(ctx context.Context, recipient string, email notify.Email) {
	if err := notify.ValidateAddress(email.To); err != nil {
		d.logger.WithError(err).Warn("invalid recipient address, send skipped", map[string]interface{}{
			"recipient": recipient,
		})
		metrics.EmailsSent.WithLabelValues(recipient, "invalid_address").Inc()
		return
	}
	if err := d.mailer.Send(ctx, email); err != nil {
		stdErr := errors.NewEmailSendFailedError(email.To, err)
		d.logger.WithError(stdErr).Error("email send failed", map[string]interface{}{
			"recipient": recipient,
			"subject":   email.Subject,
		})
		metrics.EmailsSent.WithLabelValues(recipient, "error").Inc()
		return
	}
	d.logger.Info("email sent", map[string]interface{}{
		"recipient": recipient,
		"subject":   email.Subject,
	})
	metrics.EmailsSent.WithLabelValues(recipient, "success").Inc()
}
