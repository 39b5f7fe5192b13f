package notify

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	valid := []string{
		"priya@example.com",
		" bob@mail.example.org ",
	}
	for _, addr := range valid {
		assert.NoError(t, ValidateAddress(addr), addr)
	}

	invalid := []string{
		"",
		"   ",
		"nan",
		"no-at-sign.example.com",
		"@example.com",
		"user@",
		"user@nodot",
	}
	for _, addr := range invalid {
		assert.Error(t, ValidateAddress(addr), addr)
	}
}

func TestBuildMessage_PlainText(t *testing.T) {
	raw, err := buildMessage("backoffice@example.com", Email{
		To:      "priya@example.com",
		Subject: "Ticket TKT-1001 Resolved",
		Body:    "Dear Priya,\n\nAll done.",
	})
	require.NoError(t, err)

	msg := string(raw)
	assert.Contains(t, msg, "From: backoffice@example.com\r\n")
	assert.Contains(t, msg, "To: priya@example.com\r\n")
	assert.Contains(t, msg, "Subject: Ticket TKT-1001 Resolved\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.Contains(t, msg, "Message-ID: <")
	assert.Contains(t, msg, "All done.")
	assert.NotContains(t, msg, "multipart/mixed")
}

func TestBuildMessage_WithAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice_copy_INV-1016.txt")
	content := []byte("INVOICE COPY\nInvoice Number: INV-1016\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	raw, err := buildMessage("backoffice@example.com", Email{
		To:             "priya@example.com",
		Subject:        "Ticket TKT-1001 Resolved",
		Body:           "Document attached.",
		AttachmentPath: path,
	})
	require.NoError(t, err)

	msg := string(raw)
	assert.Contains(t, msg, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, msg, `Content-Disposition: attachment; filename="invoice_copy_INV-1016.txt"`)
	assert.Contains(t, msg, "Content-Transfer-Encoding: base64\r\n")
	assert.Contains(t, msg, "Document attached.")
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString(content))

	// Closing boundary marker present.
	assert.True(t, strings.Contains(msg, "--\r\n"))
}

func TestBuildMessage_MissingAttachment(t *testing.T) {
	_, err := buildMessage("backoffice@example.com", Email{
		To:             "priya@example.com",
		Subject:        "x",
		Body:           "y",
		AttachmentPath: "/nonexistent/file.txt",
	})
	require.Error(t, err)
}
