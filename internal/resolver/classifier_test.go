package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ticket-resolver/internal/models"
)

func TestNeedsManagerApproval(t *testing.T) {
	tests := []struct {
		name     string
		ticket   *models.Ticket
		expected bool
	}{
		{
			name: "ap keyword with ap team",
			ticket: &models.Ticket{
				AssignedTeam: "AP Team",
				Description:  "Please put invoice on hold until the dispute settles",
			},
			expected: true,
		},
		{
			name: "ap keyword via ticket type",
			ticket: &models.Ticket{
				TicketType:  "Accounts Payable Request",
				Description: "Requesting early payment for vendor Acme",
			},
			expected: true,
		},
		{
			name: "ar keyword with ar team",
			ticket: &models.Ticket{
				AssignedTeam: "AR Team",
				Description:  "Customer wants to raise refund for cancelled order",
			},
			expected: true,
		},
		{
			name: "ar keyword on ap ticket does not trigger",
			ticket: &models.Ticket{
				AssignedTeam: "AP Team",
				TicketType:   "Accounts Payable Request",
				Description:  "Please raise refund for this order",
			},
			expected: false,
		},
		{
			name: "ap keyword on ar ticket does not trigger",
			ticket: &models.Ticket{
				AssignedTeam: "AR Team",
				Description:  "Can you validate vendor details for me",
			},
			expected: false,
		},
		{
			name: "plain info request",
			ticket: &models.Ticket{
				AssignedTeam: "AP Team",
				Description:  "What is the due date of INV-1016?",
			},
			expected: false,
		},
		{
			name: "keyword matching is case insensitive",
			ticket: &models.Ticket{
				AssignedTeam: "ar billing",
				Description:  "BLOCK INVOICE INV-2044 immediately",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NeedsManagerApproval(tt.ticket))
		})
	}
}
