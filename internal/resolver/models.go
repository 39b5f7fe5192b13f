package resolver

import "ticket-resolver/internal/models"

// ResolveTicketArgs carries the arguments of a resolve_ticket tool call.
type ResolveTicketArgs struct {
	TicketID     string `json:"ticket_id"`
	AIResponse   string `json:"ai_response"`
	AutoSolved   bool   `json:"auto_solved"`
	ClosureType  string `json:"closure_type"`
	DocumentType string `json:"document_type,omitempty"`
}

// ReassignArgs carries the arguments of a reassign_ticket_and_notify call.
type ReassignArgs struct {
	TicketID   string `json:"ticket_id"`
	TargetTeam string `json:"target_team"`
	Reason     string `json:"reason"`
	AIResponse string `json:"ai_response"`
}

// OutcomeKind describes how a ticket run ended.
type OutcomeKind string

const (
	// OutcomeResolved means a resolving tool call was dispatched.
	OutcomeResolved OutcomeKind = "resolved"
	// OutcomeFreeText means the service answered without calling a tool.
	OutcomeFreeText OutcomeKind = "free_text"
	// OutcomeNoResolution means the turn budget ran out with no resolving call.
	OutcomeNoResolution OutcomeKind = "no_resolution"
	// OutcomeSkipped means the ticket was already closed.
	OutcomeSkipped OutcomeKind = "skipped"
)

// Outcome is the result of running one ticket through the orchestrator.
type Outcome struct {
	Kind     OutcomeKind
	Category models.Category
	Response string
	Turns    int
}
