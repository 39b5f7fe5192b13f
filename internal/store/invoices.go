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

// Filter keys the reasoning service may send, normalized (trim+lowercase)
// to ledger columns. Unknown keys are dropped with a warning rather than
// failing the search.
var invoiceColumns = map[string]string{
	"invoice number": "invoice_number",
	"vendor id":      "vendor_id",
	"vendor name":    "vendor_name",
	"customer id":    "customer_id",
	"customer name":  "customer_name",
	"po number":      "po_number",
	"payment status": "payment_status",
}

// InvoiceStore provides read-only queries over the invoice ledger.
type InvoiceStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewInvoiceStore(db *sql.DB, log logger.Logger) *InvoiceStore {
	return &InvoiceStore{db: db, logger: log.WithFields(map[string]interface{}{"store": "invoices"})}
}

// Search returns ledger rows matching every recognized filter exactly
// (case-insensitive). An empty or fully-unrecognized filter set matches
// nothing: the ledger is never dumped wholesale into a transcript.
func (s *InvoiceStore) Search(ctx context.Context, filters map[string]string) ([]models.InvoiceRecord, error) {
	conditions := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))

	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := strings.TrimSpace(filters[key])
		if value == "" {
			continue
		}
		column, ok := invoiceColumns[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			s.logger.Warn("ignoring unrecognized invoice filter", map[string]interface{}{"filter": key})
			continue
		}
		conditions = append(conditions, fmt.Sprintf("LOWER(%s) = LOWER($%d)", column, len(args)+1))
		args = append(args, value)
	}

	if len(conditions) == 0 {
		return nil, nil
	}

	query := `SELECT invoice_number, vendor_id, vendor_name, customer_id, customer_name,
		po_number, po_status, payment_status, payment_term, due_date, clearing_date, amount
		FROM invoices WHERE ` + strings.Join(conditions, " AND ") + " ORDER BY invoice_number"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var records []models.InvoiceRecord
	for rows.Next() {
		var (
			rec          models.InvoiceRecord
			vendorID     sql.NullString
			vendorName   sql.NullString
			customerID   sql.NullString
			customerName sql.NullString
			poNumber     sql.NullString
			poStatus     sql.NullString
			payStatus    sql.NullString
			payTerm      sql.NullString
			dueDate      sql.NullString
			clearingDate sql.NullString
			amount       sql.NullFloat64
		)
		if err := rows.Scan(&rec.InvoiceNumber, &vendorID, &vendorName, &customerID,
			&customerName, &poNumber, &poStatus, &payStatus, &payTerm,
			&dueDate, &clearingDate, &amount); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		rec.VendorID = vendorID.String
		rec.VendorName = vendorName.String
		rec.CustomerID = customerID.String
		rec.CustomerName = customerName.String
		rec.PONumber = poNumber.String
		rec.POStatus = poStatus.String
		rec.PaymentStatus = payStatus.String
		rec.PaymentTerm = payTerm.String
		rec.DueDate = dueDate.String
		rec.ClearingDate = clearingDate.String
		rec.Amount = amount.Float64
		records = append(records, rec)
	}
	return records, rows.Err()
}
