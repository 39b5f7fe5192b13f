package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"ticket-resolver/internal/common/config"
	"ticket-resolver/internal/common/logger"
)

// SMTPMailer sends mail through a plain or STARTTLS SMTP endpoint.
type SMTPMailer struct {
	config config.EmailConfig
	logger logger.Logger
}

func NewSMTPMailer(cfg config.EmailConfig, log logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"mailer": "smtp"}),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}
	if err := ValidateAddress(email.To); err != nil {
		return err
	}

	message, err := buildMessage(m.config.FromEmail, email)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.config.SMTP.Host, m.config.SMTP.Port)

	var auth smtp.Auth
	if m.config.SMTP.Username != "" && m.config.SMTP.Password != "" {
		auth = smtp.PlainAuth("", m.config.SMTP.Username, m.config.SMTP.Password, m.config.SMTP.Host)
	}

	if m.config.SMTP.UseTLS {
		return m.sendWithTLS(addr, auth, email.To, message)
	}
	return smtp.SendMail(addr, auth, m.config.FromEmail, []string{email.To}, message)
}

func (m *SMTPMailer) sendWithTLS(addr string, auth smtp.Auth, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: m.config.SMTP.Host}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(m.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to finalize message: %w", err)
	}

	return client.Quit()
}
