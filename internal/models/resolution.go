package models

// Category is one of the four resolution classes a ticket can land in.
type Category string

const (
	// CategoryWithoutDocument closes the ticket with a plain info response.
	CategoryWithoutDocument Category = "without_document"
	// CategoryWithDocument closes the ticket with a generated attachment.
	CategoryWithDocument Category = "with_document"
	// CategoryNeedsApproval escalates the ticket to a human manager.
	CategoryNeedsApproval Category = "needs_approval"
	// CategoryReassign hands the ticket to an AP/AR billing specialist.
	CategoryReassign Category = "reassign_billing"
)

// ParseClosureType maps a resolve_ticket closure type onto a Category.
func ParseClosureType(s string) (Category, bool) {
	switch Category(s) {
	case CategoryWithoutDocument, CategoryWithDocument, CategoryNeedsApproval:
		return Category(s), true
	}
	return "", false
}

// DocumentType selects which attachment to render for a with_document close.
type DocumentType string

const (
	DocumentInvoiceCopy         DocumentType = "invoice_copy"
	DocumentPaymentConfirmation DocumentType = "payment_confirmation"
	DocumentInvoiceDetails      DocumentType = "invoice_details"
	DocumentNone                DocumentType = "none"
)

// ParseDocumentType maps tool-call input onto a DocumentType; unknown or
// empty values default to an invoice copy, matching the generator fallback.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case DocumentPaymentConfirmation:
		return DocumentPaymentConfirmation
	case DocumentInvoiceDetails:
		return DocumentInvoiceDetails
	case DocumentNone, "":
		return DocumentNone
	}
	return DocumentInvoiceCopy
}
