package resolver

import (
	"strings"

	"ticket-resolver/internal/models"
)

// Keyword sets that force manager sign-off, keyed by finance domain. These
// run independently of the reasoning service's own judgment (defense in
// depth); precedence between the two is a workflow configuration choice.
var approvalKeywords = map[string][]string{
	"ap": {
		"validate vendor",
		"vendor detail",
		"early payment",
		"invoice on hold",
	},
	"ar": {
		"refund ticket",
		"raise refund",
		"investigate customer",
		"cancellation reason",
		"block invoice",
	},
}

// NeedsManagerApproval applies the deterministic AP/AR keyword rules to a
// ticket: the ticket must belong to the domain (by type or team) AND its
// description must contain one of the domain's keywords.
func NeedsManagerApproval(ticket *models.Ticket) bool {
	team := strings.ToLower(ticket.AssignedTeam)
	ticketType := strings.ToLower(ticket.TicketType)
	description := strings.ToLower(ticket.Description)

	matches := func(keywords []string) bool {
		for _, keyword := range keywords {
			if strings.Contains(description, keyword) {
				return true
			}
		}
		return false
	}

	if strings.Contains(ticketType, "accounts payable") || strings.Contains(team, "ap") {
		if matches(approvalKeywords["ap"]) {
			return true
		}
	}
	if strings.Contains(ticketType, "accounts receivable") || strings.Contains(team, "ar") {
		if matches(approvalKeywords["ar"]) {
			return true
		}
	}
	return false
}
