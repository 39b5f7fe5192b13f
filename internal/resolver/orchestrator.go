package resolver

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"ticket-resolver/internal/common/config"
	"ticket-resolver/internal/common/errors"
	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/models"
	"ticket-resolver/internal/reasoning"
)

// Orchestrator runs one ticket through a bounded tool-calling conversation
// with the reasoning service. The first resolving tool call wins; later
// calls in the same turn are ignored.
type Orchestrator struct {
	reasoner   Reasoner
	invoices   InvoiceRecords
	dispatcher *Dispatcher
	workflow   config.WorkflowConfig
	logger     logger.Logger
}

func NewOrchestrator(reasoner Reasoner, invoices InvoiceRecords, dispatcher *Dispatcher, workflow config.WorkflowConfig, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		reasoner:   reasoner,
		invoices:   invoices,
		dispatcher: dispatcher,
		workflow:   workflow,
		logger:     log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Process resolves a single ticket. Closed tickets are skipped before any
// side effect. Free-text answers and turn-budget exhaustion are terminal
// non-error outcomes that leave the record untouched for the next sweep.
func (o *Orchestrator) Process(ctx context.Context, ticket *models.Ticket) (*Outcome, error) {
	log := o.logger.WithFields(map[string]interface{}{"ticketId": ticket.ID})

	if ticket.IsClosed() {
		log.Info("skipping closed ticket", nil)
		return &Outcome{Kind: OutcomeSkipped}, nil
	}

	classifierHit := NeedsManagerApproval(ticket)
	if classifierHit {
		log.Info("approval classifier matched", map[string]interface{}{
			"precedence": o.workflow.ApprovalPrecedence,
		})
	}

	messages := []reasoning.Message{
		reasoning.SystemMessage(systemPrompt),
		reasoning.UserMessage(fmt.Sprintf(
			"Ticket ID: %s\nDescription: %s\nAssigned Team: %s",
			ticket.ID, ticket.Description, ticket.AssignedTeam)),
	}
	tools := toolDefinitions()

	var lastInvoice *models.InvoiceRecord

	for turn := 1; turn <= o.workflow.MaxTurns; turn++ {
		msg, err := o.reasoner.Complete(ctx, messages, tools)
		if err != nil {
			if stderrors.Is(err, reasoning.ErrServiceTimeout) {
				return nil, errors.NewReasoningTimeoutError(err.Error())
			}
			return nil, errors.NewReasoningServiceFailedError(err)
		}
		messages = append(messages, *msg)

		if len(msg.ToolCalls) == 0 {
			log.Warn("reasoning service answered without a tool call", map[string]interface{}{
				"turn": turn,
			})
			return &Outcome{Kind: OutcomeFreeText, Response: msg.Content, Turns: turn}, nil
		}

		for _, call := range msg.ToolCalls {
			if err := validateToolArgs(call.Function.Name, call.Function.Arguments); err != nil {
				return nil, errors.NewInvalidToolCallError(call.Function.Name, err.Error())
			}

			switch call.Function.Name {
			case toolSearchInvoices:
				result, hit := o.searchInvoices(ctx, log, call.Function.Arguments)
				if hit != nil {
					lastInvoice = hit
				}
				messages = append(messages, reasoning.ToolResultMessage(call, result))

			case toolResolveTicket:
				var args ResolveTicketArgs
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					return nil, errors.NewInvalidToolCallError(toolResolveTicket, err.Error())
				}
				args.TicketID = ticket.ID
				parsed, ok := models.ParseClosureType(args.ClosureType)
				if !ok {
					return nil, errors.NewInvalidToolCallError(toolResolveTicket,
						fmt.Sprintf("unknown closure type %q", args.ClosureType))
				}
				category := o.applyPrecedence(log, parsed, classifierHit)
				if err := o.dispatcher.ResolveTicket(ctx, ticket, category, args, lastInvoice); err != nil {
					return nil, err
				}
				return &Outcome{Kind: OutcomeResolved, Category: category, Response: args.AIResponse, Turns: turn}, nil

			case toolReassignTicket:
				var args ReassignArgs
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					return nil, errors.NewInvalidToolCallError(toolReassignTicket, err.Error())
				}
				args.TicketID = ticket.ID
				if o.workflow.ApprovalPrecedence == config.PrecedenceClassifier && classifierHit {
					log.Warn("classifier override: reassignment routed to manager approval", nil)
					resolve := ResolveTicketArgs{
						TicketID:    ticket.ID,
						AIResponse:  args.AIResponse,
						ClosureType: string(models.CategoryNeedsApproval),
					}
					if err := o.dispatcher.ResolveTicket(ctx, ticket, models.CategoryNeedsApproval, resolve, lastInvoice); err != nil {
						return nil, err
					}
					return &Outcome{Kind: OutcomeResolved, Category: models.CategoryNeedsApproval, Response: args.AIResponse, Turns: turn}, nil
				}
				if err := o.dispatcher.Reassign(ctx, ticket, args); err != nil {
					return nil, err
				}
				return &Outcome{Kind: OutcomeResolved, Category: models.CategoryReassign, Response: args.AIResponse, Turns: turn}, nil

			default:
				return nil, errors.NewInvalidToolCallError(call.Function.Name, "tool is not offered to the reasoning service")
			}
		}
	}

	log.Warn("turn budget exhausted without resolution", map[string]interface{}{
		"maxTurns": o.workflow.MaxTurns,
	})
	return &Outcome{Kind: OutcomeNoResolution, Turns: o.workflow.MaxTurns}, nil
}

// applyPrecedence reconciles the model's closure type with the keyword
// classifier according to the configured precedence mode.
func (o *Orchestrator) applyPrecedence(log logger.Logger, category models.Category, classifierHit bool) models.Category {
	if !classifierHit || category == models.CategoryNeedsApproval {
		return category
	}
	if o.workflow.ApprovalPrecedence == config.PrecedenceClassifier {
		log.Warn("classifier override: closure type forced to manager approval", map[string]interface{}{
			"modelCategory": string(category),
		})
		return models.CategoryNeedsApproval
	}
	log.Info("classifier disagrees with model closure type", map[string]interface{}{
		"modelCategory": string(category),
	})
	return category
}

// searchInvoices executes a ledger search on the model's behalf. Errors are
// reported back into the transcript rather than failing the run, so the
// model can adjust its filters. Returns the serialized result payload and
// the first matching record, if any.
func (o *Orchestrator) searchInvoices(ctx context.Context, log logger.Logger, arguments string) (string, *models.InvoiceRecord) {
	var filters map[string]string
	if err := json.Unmarshal([]byte(arguments), &filters); err != nil {
		return fmt.Sprintf(`{"error": "invalid filters: %s"}`, err.Error()), nil
	}

	records, err := o.invoices.Search(ctx, filters)
	if err != nil {
		log.WithError(errors.NewInvoiceQueryFailedError(err)).Error("invoice search failed", map[string]interface{}{"filters": filters})
		return `{"error": "invoice search failed"}`, nil
	}
	if len(records) == 0 {
		return `{"results": [], "message": "no matching invoices"}`, nil
	}

	payload, err := json.Marshal(map[string]interface{}{"results": records})
	if err != nil {
		return `{"error": "could not serialize results"}`, nil
	}
	log.Debug("invoice search returned records", map[string]interface{}{"count": len(records)})
	return string(payload), &records[0]
}
