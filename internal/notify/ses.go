package notify

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"ticket-resolver/internal/common/config"
	"ticket-resolver/internal/common/logger"
)

// SESMailer sends mail through Amazon SES. Raw sending is used so that
// generated documents can ride along as MIME attachments.
type SESMailer struct {
	client *ses.Client
	config config.EmailConfig
	logger logger.Logger
}

func NewSESMailer(ctx context.Context, cfg config.EmailConfig, log logger.Logger) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESMailer{
		client: ses.NewFromConfig(awsCfg),
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"mailer": "ses"}),
	}, nil
}

func (m *SESMailer) Send(ctx context.Context, email Email) error {
	if err := ValidateAddress(email.To); err != nil {
		return err
	}

	message, err := buildMessage(m.config.FromEmail, email)
	if err != nil {
		return err
	}

	_, err = m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage:   &types.RawMessage{Data: message},
		Source:       &m.config.FromEmail,
		Destinations: []string{email.To},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
