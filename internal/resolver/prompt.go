package resolver

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"ticket-resolver/internal/reasoning"
)

// Tool names the reasoning service may invoke. Anything else is rejected
// rather than silently ignored.
const (
	toolSearchInvoices = "search_invoices"
	toolResolveTicket  = "resolve_ticket"
	toolReassignTicket = "reassign_ticket_and_notify"
)

const systemPrompt = `You are a Query Management AI Agent for a finance back office. Analyze tickets and resolve them according to these 4 categories:

CATEGORY 1: "without_document" - Simple Info Response
- Information requests that DON'T need documents
- Examples: payment status, due date, invoice amount, is the invoice paid
- Action: Email with info -> Close ticket. NO DOCUMENT NEEDED.

CATEGORY 2: "with_document" - Document Request
- User EXPLICITLY asks for a document, copy, proof, PDF, or report
- Examples: "Send me invoice copy", "I need payment confirmation document",
  "Provide invoice details in PDF", "Send proof of payment"
- Action: Generate document from ledger data -> Attach to email -> Close ticket
- Document types: "invoice_copy", "payment_confirmation", "invoice_details"

CATEGORY 3: "needs_approval" - Manager Approval Required
- Financial/policy actions requiring manager sign-off
- AP examples: validate vendor, early payment request, put invoice on hold
- AR examples: raise refund, investigate customer, block invoice
- Action: Status -> Pending Manager Approval -> Email manager with approval links

CATEGORY 4: "reassign_billing" - Billing Specialist
- Specialist tasks the agent cannot handle
- AP: reversal request, exchange rate verification
- AR: credit memo, debit memo, partial credit
- Action: Reassign to AP/AR team -> Email requester and assigned specialist -> Keep Open

WORKFLOW:
1. If an invoice/PO/vendor/customer is mentioned -> call search_invoices FIRST
2. Analyze the request -> determine the category
3. Call the appropriate tool (resolve_ticket OR reassign_ticket_and_notify)

KEY RULE: Category 2 documents are snapshots generated from the invoice
ledger. Requester emails must mention that the attachment is generated from
system records.`

var (
	searchInvoicesSchema = json.RawMessage(`{
		"type": "object",
		"properties": {
			"Invoice Number": {"type": "string"},
			"Customer Name": {"type": "string"},
			"Vendor Name": {"type": "string"},
			"Payment Status": {"type": "string"},
			"PO Number": {"type": "string"},
			"Vendor ID": {"type": "string"},
			"Customer ID": {"type": "string"}
		}
	}`)

	resolveTicketSchema = json.RawMessage(`{
		"type": "object",
		"properties": {
			"ticket_id": {"type": "string"},
			"ai_response": {"type": "string", "description": "Resolution summary for email"},
			"auto_solved": {"type": "boolean"},
			"closure_type": {
				"type": "string",
				"enum": ["without_document", "with_document", "needs_approval"]
			},
			"document_type": {
				"type": "string",
				"enum": ["invoice_copy", "payment_confirmation", "invoice_details", "none"],
				"description": "Required for 'with_document'. Use 'none' for others."
			}
		},
		"required": ["ticket_id", "ai_response", "auto_solved", "closure_type"]
	}`)

	reassignTicketSchema = json.RawMessage(`{
		"type": "object",
		"properties": {
			"ticket_id": {"type": "string"},
			"target_team": {"type": "string", "enum": ["AP", "AR"]},
			"reason": {"type": "string"},
			"ai_response": {"type": "string"}
		},
		"required": ["ticket_id", "target_team", "reason", "ai_response"]
	}`)
)

func toolDefinitions() []reasoning.Tool {
	return []reasoning.Tool{
		{
			Type: "function",
			Function: reasoning.FunctionDef{
				Name:        toolSearchInvoices,
				Description: "Search the invoice ledger for matching records.",
				Parameters:  searchInvoicesSchema,
			},
		},
		{
			Type: "function",
			Function: reasoning.FunctionDef{
				Name:        toolResolveTicket,
				Description: "Resolve the ticket (categories 1, 2, or 3).",
				Parameters:  resolveTicketSchema,
			},
		},
		{
			Type: "function",
			Function: reasoning.FunctionDef{
				Name:        toolReassignTicket,
				Description: "Reassign the ticket to an AP/AR billing specialist (category 4).",
				Parameters:  reassignTicketSchema,
			},
		},
	}
}

var toolSchemas = map[string]json.RawMessage{
	toolSearchInvoices: searchInvoicesSchema,
	toolResolveTicket:  resolveTicketSchema,
	toolReassignTicket: reassignTicketSchema,
}

// validateToolArgs checks the model-supplied arguments against the same
// JSON schema published in the tool definitions.
func validateToolArgs(toolName, arguments string) error {
	schema, ok := toolSchemas[toolName]
	if !ok {
		return fmt.Errorf("unknown tool %q", toolName)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewStringLoader(arguments),
	)
	if err != nil {
		return fmt.Errorf("validate %s arguments: %w", toolName, err)
	}
	if !result.Valid() {
		details := ""
		for _, desc := range result.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		return fmt.Errorf("invalid %s arguments: %s", toolName, details)
	}
	return nil
}
