// Package notify handles outbound notifications: requestor/manager/
// specialist emails and the optional SNS alert raised when a ticket enters
// manager approval. Delivery is best-effort; a failed send never rolls back
// a record update.
package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Email is one outbound message. AttachmentPath optionally names a locally
// generated document to include.
type Email struct {
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

// Mailer delivers a single email. Implementations report failure through
// the returned error; callers log and continue.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// ValidateAddress performs the basic shape check applied before any send.
func ValidateAddress(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("empty email address")
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || !strings.Contains(parts[1], ".") {
		return fmt.Errorf("invalid email address: %s", email)
	}
	return nil
}

// buildMessage renders the raw RFC 822 message, as multipart/mixed when an
// attachment is present.
func buildMessage(from string, email Email) ([]byte, error) {
	var builder strings.Builder

	messageID := fmt.Sprintf("<%s@ticket-resolver>", uuid.NewString())
	builder.WriteString(fmt.Sprintf("From: %s\r\n", from))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	builder.WriteString(fmt.Sprintf("Message-ID: %s\r\n", messageID))
	builder.WriteString("MIME-Version: 1.0\r\n")

	if email.AttachmentPath == "" {
		builder.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		builder.WriteString("\r\n")
		builder.WriteString(email.Body)
		return []byte(builder.String()), nil
	}

	content, err := os.ReadFile(email.AttachmentPath)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	filename := filepath.Base(email.AttachmentPath)
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	boundary := strings.ReplaceAll(uuid.NewString(), "-", "")
	builder.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", boundary))
	builder.WriteString("\r\n")

	builder.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	builder.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(email.Body)
	builder.WriteString("\r\n")

	builder.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	builder.WriteString(fmt.Sprintf("Content-Type: %s; name=%q\r\n", contentType, filename))
	builder.WriteString("Content-Transfer-Encoding: base64\r\n")
	builder.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", filename))
	builder.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 76 {
		builder.WriteString(encoded[:76])
		builder.WriteString("\r\n")
		encoded = encoded[76:]
	}
	builder.WriteString(encoded)
	builder.WriteString("\r\n")
	builder.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return []byte(builder.String()), nil
}
