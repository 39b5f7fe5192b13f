// Package document produces the attachments referenced by with_document
// closures. Actual PDF rendering lives in a separate service; this package
// renders plain-text ledger snapshots through the same contract so the
// dispatcher stays renderer-agnostic.
package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/models"
)

// Generator renders a document of the given kind from invoice ledger data.
// An error signals best-effort degradation, not failure propagation: the
// caller closes the ticket either way.
type Generator interface {
	Generate(ctx context.Context, kind models.DocumentType, invoice models.InvoiceRecord, contextText string) (string, error)
}

var kindTitles = map[models.DocumentType]string{
	models.DocumentInvoiceCopy:         "INVOICE COPY",
	models.DocumentPaymentConfirmation: "PAYMENT CONFIRMATION",
	models.DocumentInvoiceDetails:      "INVOICE DETAILS REPORT",
}

// SnapshotGenerator writes ledger snapshots to a local output directory.
type SnapshotGenerator struct {
	outputDir string
	logger    logger.Logger
}

func NewSnapshotGenerator(outputDir string, log logger.Logger) *SnapshotGenerator {
	return &SnapshotGenerator{
		outputDir: outputDir,
		logger:    log.WithFields(map[string]interface{}{"component": "document"}),
	}
}

func (g *SnapshotGenerator) Generate(ctx context.Context, kind models.DocumentType, invoice models.InvoiceRecord, contextText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	title, ok := kindTitles[kind]
	if !ok {
		title = kindTitles[models.DocumentInvoiceCopy]
		kind = models.DocumentInvoiceCopy
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
	b.WriteString("Generated from system records. This document is an automated\n")
	b.WriteString("snapshot of the invoice ledger, not an officially stamped copy.\n\n")

	writeField(&b, "Invoice Number", invoice.InvoiceNumber)
	writeField(&b, "Vendor", joinIDName(invoice.VendorID, invoice.VendorName))
	writeField(&b, "Customer", joinIDName(invoice.CustomerID, invoice.CustomerName))
	writeField(&b, "PO Number", invoice.PONumber)
	writeField(&b, "PO Status", invoice.POStatus)
	writeField(&b, "Payment Status", invoice.PaymentStatus)
	writeField(&b, "Payment Term", invoice.PaymentTerm)
	writeField(&b, "Due Date", invoice.DueDate)
	writeField(&b, "Clearing Date", invoice.ClearingDate)
	if invoice.Amount != 0 {
		writeField(&b, "Amount", fmt.Sprintf("%.2f", invoice.Amount))
	}

	if strings.TrimSpace(contextText) != "" {
		b.WriteString("\nRequest context:\n")
		b.WriteString(strings.TrimSpace(contextText) + "\n")
	}
	b.WriteString(fmt.Sprintf("\nGenerated at: %s\n", time.Now().UTC().Format(time.RFC3339)))

	reference := invoice.InvoiceNumber
	if reference == "" {
		reference = "unknown"
	}
	filename := fmt.Sprintf("%s_%s_%s.txt", kind, reference, uuid.NewString()[:8])
	path := filepath.Join(g.outputDir, filename)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	g.logger.Info("document generated", map[string]interface{}{
		"documentType": string(kind),
		"path":         path,
	})
	return path, nil
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "%-16s %s\n", label+":", value)
}

func joinIDName(id, name string) string {
	switch {
	case id != "" && name != "":
		return fmt.Sprintf("%s (%s)", name, id)
	case name != "":
		return name
	default:
		return id
	}
}
