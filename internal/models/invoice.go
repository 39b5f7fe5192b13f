package models

// InvoiceRecord is a read-only row from the invoice ledger. JSON tags match
// the ledger's column headers because serialized records are fed back to the
// reasoning service as tool results.
type InvoiceRecord struct {
	InvoiceNumber string  `json:"Invoice Number"`
	VendorID      string  `json:"Vendor ID,omitempty"`
	VendorName    string  `json:"Vendor Name,omitempty"`
	CustomerID    string  `json:"Customer ID,omitempty"`
	CustomerName  string  `json:"Customer Name,omitempty"`
	PONumber      string  `json:"PO Number,omitempty"`
	POStatus      string  `json:"PO Status,omitempty"`
	PaymentStatus string  `json:"Payment Status,omitempty"`
	PaymentTerm   string  `json:"Payment Term,omitempty"`
	DueDate       string  `json:"Due Date,omitempty"`
	ClearingDate  string  `json:"Clearing Date,omitempty"`
	Amount        float64 `json:"Amount,omitempty"`
}

// LedgerStatus returns the payment status for degraded-path messaging.
func (r *InvoiceRecord) LedgerStatus() string {
	if r == nil || r.PaymentStatus == "" {
		return "N/A"
	}
	return r.PaymentStatus
}
