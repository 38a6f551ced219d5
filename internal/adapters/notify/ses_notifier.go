package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

// SendEmailAPI is the subset of the sesv2 client used here
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier emails form owners through Amazon SES
type SESNotifier struct {
	client        SendEmailAPI
	from          string
	subjectPrefix string
	logger        *zap.Logger
}

// NewSESNotifier creates a new SES notifier
func NewSESNotifier(client SendEmailAPI, from, subjectPrefix string, logger *zap.Logger) *SESNotifier {
	return &SESNotifier{
		client:        client,
		from:          from,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}
}

// Notify sends the submission to the form's notify address. Forms without
// one are skipped.
func (n *SESNotifier) Notify(ctx context.Context, form *core.Form, sub *core.Submission) error {
	if form.NotifyEmail == "" {
		return nil
	}

	msg := render(n.subjectPrefix, form, sub)
	out, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination:      &types.Destination{ToAddresses: []string{form.NotifyEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("form_id"), Value: aws.String(form.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send notification via SES: %w", err)
	}

	n.logger.Debug("Notification sent",
		zap.String("form_id", form.ID),
		zap.String("submission_id", sub.ID),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
