// Package store implements the tabular record store and directory lookups
// backing the resolver: ticket search/update, invoice queries, and user/team
// resolution, all over PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/models"
)

// Column keys accepted by UpdateFields. Updates are whole-value
// replacements, never merges; callers supply the complete intended value.
var ticketColumns = map[string]string{
	"status":              "status",
	"ticket status":       "status",
	"closed_date":         "closed_date",
	"ticket closed date":  "closed_date",
	"updated_date":        "updated_date",
	"ticket updated date": "updated_date",
	"auto_solved":         "auto_solved",
	"auto solved":         "auto_solved",
	"admin_review_needed": "admin_review_needed",
	"admin review needed": "admin_review_needed",
	"ai_response":         "ai_response",
	"ai response":         "ai_response",
	"assigned_team":       "assigned_team",
	"assigned team":       "assigned_team",
	"assigned_employee":   "assigned_employee",
	"user name":           "assigned_employee",
}

const ticketSelect = `SELECT ticket_id, description, assigned_team, ticket_type, status,
	requestor_name, requestor_email, assigned_employee, auto_solved,
	admin_review_needed, invoice_reference, updated_date, closed_date
	FROM tickets`

// TicketStore provides search and atomic field updates over the tickets table.
type TicketStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewTicketStore(db *sql.DB, log logger.Logger) *TicketStore {
	return &TicketStore{db: db, logger: log.WithFields(map[string]interface{}{"store": "tickets"})}
}

// Get fetches a single ticket by id.
func (s *TicketStore) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	row := s.db.QueryRowContext(ctx, ticketSelect+" WHERE ticket_id = $1", ticketID)
	ticket, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ticket %s not found", ticketID)
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket: %w", err)
	}
	return ticket, nil
}

// ListOpen returns every ticket that is not Closed, in id order.
func (s *TicketStore) ListOpen(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, ticketSelect+" WHERE status <> $1 ORDER BY ticket_id", string(models.StatusClosed))
	if err != nil {
		return nil, fmt.Errorf("query open tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

// UpdateFields applies a whole-value replacement of the given fields on one
// ticket. Unknown field names are rejected before touching the row.
func (s *TicketStore) UpdateFields(ctx context.Context, ticketID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update for ticket %s", ticketID)
	}

	columns := make([]string, 0, len(fields))
	byColumn := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		column, ok := ticketColumns[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("unknown ticket field %q", name)
		}
		if _, dup := byColumn[column]; !dup {
			columns = append(columns, column)
		}
		byColumn[column] = value
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for i, column := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, byColumn[column])
	}
	args = append(args, ticketID)

	query := fmt.Sprintf("UPDATE tickets SET %s WHERE ticket_id = $%d",
		strings.Join(assignments, ", "), len(columns)+1)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update ticket %s: %w", ticketID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ticket %s: %w", ticketID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update ticket %s: no matching row", ticketID)
	}
	return nil
}

// CountOpenByAssignee counts Open tickets assigned to the named employee,
// matching names case-insensitively after trimming.
func (s *TicketStore) CountOpenByAssignee(ctx context.Context, name string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets
		 WHERE LOWER(TRIM(assigned_employee)) = LOWER(TRIM($1)) AND status = $2`,
		name, string(models.StatusOpen),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open tickets for %s: %w", name, err)
	}
	return count, nil
}

// Teams returns the distinct assigned-team values present in the store,
// used to resolve a bare team code to the stored team name.
func (s *TicketStore) Teams(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT assigned_team FROM tickets WHERE assigned_team IS NOT NULL AND assigned_team <> '' ORDER BY assigned_team`)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []string
	for rows.Next() {
		var team string
		if err := rows.Scan(&team); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var (
		ticket         models.Ticket
		status         string
		requestor      sql.NullString
		requestorEmail sql.NullString
		assignee       sql.NullString
		invoiceRef     sql.NullString
		updatedDate    sql.NullTime
		closedDate     sql.NullTime
	)

	err := row.Scan(
		&ticket.ID, &ticket.Description, &ticket.AssignedTeam, &ticket.TicketType,
		&status, &requestor, &requestorEmail, &assignee, &ticket.AutoSolved,
		&ticket.AdminReviewNeeded, &invoiceRef, &updatedDate, &closedDate,
	)
	if err != nil {
		return nil, err
	}

	ticket.Status = models.TicketStatus(status)
	ticket.RequestorName = requestor.String
	ticket.RequestorEmail = requestorEmail.String
	ticket.AssignedEmployee = assignee.String
	if updatedDate.Valid {
		t := updatedDate.Time
		ticket.UpdatedDate = &t
	}
	if closedDate.Valid {
		t := closedDate.Time
		ticket.ClosedDate = &t
	}

	ticket.Fields = models.FieldMap{}
	if invoiceRef.Valid && strings.TrimSpace(invoiceRef.String) != "" {
		ticket.Fields.Set("Invoice Reference", invoiceRef.String)
	}
	return &ticket, nil
}
