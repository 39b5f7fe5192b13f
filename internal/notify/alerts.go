package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"ticket-resolver/internal/common/config"
	"ticket-resolver/internal/common/logger"
)

// AlertPublisher raises an out-of-band alert when a ticket enters manager
// approval, so approvals are not lost to an unread inbox.
type AlertPublisher interface {
	PublishApprovalAlert(ctx context.Context, ticketID, team string) error
}

// SNSAlerts publishes approval alerts to an SNS topic.
type SNSAlerts struct {
	client   *sns.Client
	topicARN string
	logger   logger.Logger
}

func NewSNSAlerts(ctx context.Context, cfg config.AlertsConfig, log logger.Logger) (*SNSAlerts, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSAlerts{
		client:   sns.NewFromConfig(awsCfg),
		topicARN: cfg.TopicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "alerts"}),
	}, nil
}

func (a *SNSAlerts) PublishApprovalAlert(ctx context.Context, ticketID, team string) error {
	message := fmt.Sprintf("Ticket %s (%s) is pending manager approval.", ticketID, team)
	_, err := a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String(fmt.Sprintf("[APPROVAL REQUIRED] Ticket %s", ticketID)),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
