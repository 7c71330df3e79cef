package services

import (
	"context"
	"fmt"
	"log/slog"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Notifier sends appointment lifecycle notifications to patients.
type Notifier interface {
	SendAppointmentUpdate(ctx context.Context, email, patientName, doctorName, date, status string) error
}

// AWSSESNotifier sends notifications using AWS SES.
type AWSSESNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESNotifier creates a new AWS SES notifier.
func NewAWSSESNotifier(region, fromAddress string, logger *slog.Logger) (*AWSSESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendAppointmentUpdate emails the patient after the doctor confirms or
// rejects an appointment.
func (s *AWSSESNotifier) SendAppointmentUpdate(ctx context.Context, email, patientName, doctorName, date, status string) error {
	subject := fmt.Sprintf("Your appointment on %s was %s", date, status)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Appointment %s</h1>
        </div>
        <div class="content">
            <p>Hello %s,</p>
            <p>Your appointment with Dr. %s on <strong>%s</strong> has been <strong>%s</strong>.</p>
            <p>You can review your appointments any time from your account.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, titleCase(status), patientName, doctorName, date, status)

	textBody := fmt.Sprintf(`Hello %s,

Your appointment with Dr. %s on %s has been %s.

You can review your appointments any time from your account.

This is an automated message. Please do not reply to this email.
`, patientName, doctorName, date, status)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send appointment email via SES",
			slog.String("email", email),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("appointment email sent",
		slog.String("email", email),
		slog.String("message_id", *result.MessageId))

	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
