package models

import (
	"strings"
	"time"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	StatusOpen            TicketStatus = "Open"
	StatusPendingApproval TicketStatus = "Pending Manager Approval"
	StatusClosed          TicketStatus = "Closed"
	StatusAwaitingReview  TicketStatus = "Awaiting Manual Review"
)

// Ticket is a unit of customer/employee request tracked through the status
// lifecycle. Created by ticket intake (out of scope) and mutated exclusively
// through atomic field updates issued by the dispatcher.
type Ticket struct {
	ID                string       `json:"ticketId"`
	Description       string       `json:"description"`
	AssignedTeam      string       `json:"assignedTeam"`
	TicketType        string       `json:"ticketType"`
	Status            TicketStatus `json:"status"`
	RequestorName     string       `json:"requestorName"`
	RequestorEmail    string       `json:"requestorEmail"`
	AssignedEmployee  string       `json:"assignedEmployee"`
	AutoSolved        bool         `json:"autoSolved"`
	AdminReviewNeeded bool         `json:"adminReviewNeeded"`
	UpdatedDate       *time.Time   `json:"updatedDate,omitempty"`
	ClosedDate        *time.Time   `json:"closedDate,omitempty"`

	// Fields carries the ticket's structured columns beyond the typed
	// attributes above (invoice reference hints and similar), with keys
	// normalized once at ingestion.
	Fields FieldMap `json:"-"`
}

// IsClosed reports whether the ticket has reached its terminal state.
func (t *Ticket) IsClosed() bool {
	return strings.EqualFold(string(t.Status), string(StatusClosed))
}

// nullMarkers are raw values that must never surface in outbound text.
var nullMarkers = map[string]bool{
	"": true, "nan": true, "none": true, "null": true, "n/a": true,
}

// SafeRequestorName returns the requestor's display name, substituting a
// generic placeholder for absent or NaN-like values.
func (t *Ticket) SafeRequestorName() string {
	name := strings.TrimSpace(t.RequestorName)
	if nullMarkers[strings.ToLower(name)] {
		return "Requester"
	}
	return name
}

// HasRequestorEmail reports whether a usable requestor address is present.
func (t *Ticket) HasRequestorEmail() bool {
	email := strings.TrimSpace(t.RequestorEmail)
	return !nullMarkers[strings.ToLower(email)]
}

// AssigneeName returns the assigned employee's name, or "" when the field
// holds an absence marker.
func (t *Ticket) AssigneeName() string {
	name := strings.TrimSpace(t.AssignedEmployee)
	if nullMarkers[strings.ToLower(name)] || strings.EqualFold(name, "unassigned") {
		return ""
	}
	return name
}
