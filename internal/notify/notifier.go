// Package notify tells the outside world about application lifecycle
// changes: an SNS event when an application is submitted and an SES email
// to the applicant when staff change its status.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"loan-intake/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	EventApplicationSubmitted = "loan_application.submitted"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SubmittedEvent is the SNS payload for a newly accepted application.
type SubmittedEvent struct {
	Event         string `json:"event"`
	ApplicationID int64  `json:"application_id"`
	ApplicantID   string `json:"applicant_id"`
	FilePath      string `json:"file_path"`
	SubmittedAt   string `json:"submitted_at"`
}

// StatusChange describes the email sent after a status update.
type StatusChange struct {
	ApplicationID  int64
	RecipientEmail string
	RecipientName  string
	Status         string
}

type Config struct {
	EmailEnabled  bool
	FromEmail     string
	EventsEnabled bool
	TopicARN      string
}

type Notifier struct {
	config    Config
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
	now       func() time.Time
}

// NewNotifier accepts nil clients; the matching channel is then treated as
// disabled regardless of config.
func NewNotifier(cfg Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		now:       time.Now,
	}
}

// ApplicationSubmitted publishes a submitted event to the configured topic.
func (n *Notifier) ApplicationSubmitted(ctx context.Context, applicationID int64, applicantID, filePath string) error {
	if !n.config.EventsEnabled || n.snsClient == nil {
		return nil
	}

	payload, err := json.Marshal(SubmittedEvent{
		Event:         EventApplicationSubmitted,
		ApplicationID: applicationID,
		ApplicantID:   applicantID,
		FilePath:      filePath,
		SubmittedAt:   n.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("%w: marshal event: %v", ErrNotificationSendFailed, err)
	}

	_, err = n.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.TopicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String(EventApplicationSubmitted)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: publish: %v", ErrNotificationSendFailed, err)
	}

	n.logger.Debug("submitted event published", map[string]interface{}{"applicationId": applicationID})
	return nil
}

// StatusChanged emails the applicant about the new status. Applicants
// without an email address are skipped.
func (n *Notifier) StatusChanged(ctx context.Context, change StatusChange) error {
	if !n.config.EmailEnabled || n.sesClient == nil {
		return nil
	}
	if change.RecipientEmail == "" {
		n.logger.Debug("no recipient email, skipping status email", map[string]interface{}{
			"applicationId": change.ApplicationID,
		})
		return nil
	}

	data := map[string]interface{}{
		"name":          change.RecipientName,
		"applicationId": change.ApplicationID,
		"status":        change.Status,
	}
	subject := renderTemplate(statusSubject, data)
	body := renderTemplate(statusBody, data)

	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{change.RecipientEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	if err != nil {
		return fmt.Errorf("%w: send email: %v", ErrNotificationSendFailed, err)
	}
	return nil
}

const (
	statusSubject = "Your loan application #{{applicationId}} is now {{status}}"
	statusBody    = "Dear {{name}},\n\nThe status of your loan application #{{applicationId}} has been updated to: {{status}}.\n"
)

// renderTemplate replaces {{key}} placeholders; unknown placeholders render
// as empty strings.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
