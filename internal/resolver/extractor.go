// Package resolver implements the ticket resolution core: invoice reference
// extraction, the approval classifier, specialist selection, approval
// tokens, the bounded conversation orchestrator, and the per-category
// resolution dispatcher.
package resolver

import (
	"regexp"
	"strings"

	"ticket-resolver/internal/models"
)

// Structured columns that may carry an invoice reference, scanned in
// declaration order before any free-text matching.
var invoiceFieldHints = []string{
	"Invoice Number",
	"Invoice",
	"Invoice Reference",
	"Reference Invoice",
	"Invoice ID",
	"Invoice #",
}

var (
	invoiceTokenPattern   = regexp.MustCompile(`(?i)\bINV[\s\-#]?\d+\b`)
	genericInvoicePattern = regexp.MustCompile(`(?i)\bInvoice(?:\s+(?:Number|No\.|#))?\s*[:#-]?\s*(\d[\dA-Z-]*)\b`)
	allDigits             = regexp.MustCompile(`^[0-9]+$`)
)

// NormalizeInvoiceReference canonicalizes a raw invoice reference, e.g.
// "inv1016" and "Invoice #1016" both become "INV-1016". An empty result
// signals absence, not an error.
func NormalizeInvoiceReference(value string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(value))
	if cleaned == "" {
		return ""
	}
	cleaned = strings.ReplaceAll(cleaned, "INVOICE", "INV")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "#", "")

	if strings.HasPrefix(cleaned, "INV") {
		remainder := strings.TrimLeft(cleaned[3:], "-")
		if remainder == "" {
			return "INV"
		}
		return "INV-" + remainder
	}
	if allDigits.MatchString(cleaned) {
		return "INV-" + cleaned
	}
	return cleaned
}

// ExtractInvoiceCandidates collects possible invoice numbers from a
// ticket's structured fields and free-text description. Structured-field
// hits come first (in field order), then "INV…" tokens, then generic
// "Invoice …" references; duplicates collapse to first occurrence.
func ExtractInvoiceCandidates(ticket *models.Ticket) []string {
	var candidates []string

	for _, field := range invoiceFieldHints {
		if normalized := NormalizeInvoiceReference(ticket.Fields.Get(field)); normalized != "" {
			candidates = append(candidates, normalized)
		}
	}

	for _, match := range invoiceTokenPattern.FindAllString(ticket.Description, -1) {
		if normalized := NormalizeInvoiceReference(match); normalized != "" {
			candidates = append(candidates, normalized)
		}
	}

	for _, match := range genericInvoicePattern.FindAllStringSubmatch(ticket.Description, -1) {
		if normalized := NormalizeInvoiceReference(match[1]); normalized != "" {
			candidates = append(candidates, normalized)
		}
	}

	seen := make(map[string]bool, len(candidates))
	ordered := candidates[:0]
	for _, candidate := range candidates {
		if !seen[candidate] {
			seen[candidate] = true
			ordered = append(ordered, candidate)
		}
	}
	return ordered
}
