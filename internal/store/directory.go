package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/models"
)

// DirectoryStore resolves users, emails, and team managers from the
// directory table. Lookups are performed per resolution and never cached.
type DirectoryStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewDirectoryStore(db *sql.DB, log logger.Logger) *DirectoryStore {
	return &DirectoryStore{db: db, logger: log.WithFields(map[string]interface{}{"store": "directory"})}
}

// EmailForUser returns the email for a display name, or "" when unknown.
func (s *DirectoryStore) EmailForUser(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	var email string
	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM directory_users WHERE LOWER(TRIM(name)) = LOWER($1) LIMIT 1`,
		name,
	).Scan(&email)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup email for %s: %w", name, err)
	}
	return email, nil
}

// ManagerForTeam returns the manager contact for a team, or nil when the
// team has no manager on record. The stored team value may be a bare code
// ("AP") while tickets carry the long form ("AP Team"), so matching is a
// case-insensitive containment check in either direction.
func (s *DirectoryStore) ManagerForTeam(ctx context.Context, team string) (*models.Contact, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return nil, nil
	}
	var contact models.Contact
	err := s.db.QueryRowContext(ctx,
		`SELECT name, email FROM directory_users
		 WHERE LOWER(role) = 'manager'
		   AND (POSITION(LOWER(team) IN LOWER($1)) > 0 OR POSITION(LOWER($1) IN LOWER(team)) > 0)
		 ORDER BY name LIMIT 1`,
		team,
	).Scan(&contact.Name, &contact.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup manager for team %s: %w", team, err)
	}
	return &contact, nil
}

// ListUsers returns every directory entry in insertion order. The order is
// significant: specialist selection breaks workload ties by first
// occurrence in this listing.
func (s *DirectoryStore) ListUsers(ctx context.Context) ([]models.DirectoryUser, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, email, role, team FROM directory_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list directory users: %w", err)
	}
	defer rows.Close()

	var users []models.DirectoryUser
	for rows.Next() {
		var user models.DirectoryUser
		if err := rows.Scan(&user.Name, &user.Email, &user.Role, &user.Team); err != nil {
			return nil, fmt.Errorf("scan directory user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
