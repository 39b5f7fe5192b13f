package resolver

import (
	"context"
	"strings"

	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/models"
)

// SpecialistSelector picks the AP/AR employee with the lowest current
// open-ticket workload for a reassignment.
type SpecialistSelector struct {
	directory Directory
	tickets   TicketRecords
	logger    logger.Logger
}

func NewSpecialistSelector(directory Directory, tickets TicketRecords, log logger.Logger) *SpecialistSelector {
	return &SpecialistSelector{
		directory: directory,
		tickets:   tickets,
		logger:    log.WithFields(map[string]interface{}{"component": "selector"}),
	}
}

// Select returns the least-loaded specialist for a team code ("AP"/"AR"),
// or nil when the team has no eligible employees. Workload ties break to
// the first candidate in directory listing order.
func (s *SpecialistSelector) Select(ctx context.Context, teamCode string) (*models.Contact, error) {
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	code := strings.ToLower(strings.TrimSpace(teamCode))
	var candidates []models.DirectoryUser
	for _, user := range users {
		if strings.EqualFold(strings.TrimSpace(user.Role), "employee") &&
			strings.Contains(strings.ToLower(user.Team), code) {
			candidates = append(candidates, user)
		}
	}

	if len(candidates) == 0 {
		s.logger.Warn("no specialists available for team", map[string]interface{}{"team": teamCode})
		return nil, nil
	}

	var best *models.DirectoryUser
	bestLoad := 0
	for i := range candidates {
		load, err := s.tickets.CountOpenByAssignee(ctx, candidates[i].Name)
		if err != nil {
			return nil, err
		}
		if best == nil || load < bestLoad {
			best = &candidates[i]
			bestLoad = load
		}
	}

	s.logger.Info("specialist selected", map[string]interface{}{
		"team":       teamCode,
		"specialist": best.Name,
		"openLoad":   bestLoad,
	})
	return &models.Contact{Name: best.Name, Email: best.Email}, nil
}
