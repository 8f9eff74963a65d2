package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"ortografia/internal/logger"
	"ortografia/internal/models"
)

// sesAPI is the part of the SES client used to send mail
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// NotificationService emails parents about changes to their children via
// Amazon SES. Sending is best effort: failures are logged, never returned to
// the operation that triggered them.
type NotificationService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NotificationSettings configures NewNotificationService
type NotificationSettings struct {
	AWSRegion  string
	FromEmail  string
	FromName   string
	AppBaseURL string
	Debug      bool
}

// NewNotificationService creates a notification service. An empty FromEmail
// yields a disabled service that only logs.
func NewNotificationService(ctx context.Context, settings NotificationSettings) (*NotificationService, error) {
	if settings.FromEmail == "" {
		logger.Info("Notifications disabled: SES_FROM_EMAIL not configured")
		return &NotificationService{enabled: false, debug: settings.Debug}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(settings.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("Notifications enabled", "from", settings.FromEmail, "region", settings.AWSRegion)
	return newNotificationService(sesv2.NewFromConfig(cfg), settings), nil
}

func newNotificationService(client sesAPI, settings NotificationSettings) *NotificationService {
	return &NotificationService{
		client:     client,
		fromEmail:  settings.FromEmail,
		fromName:   settings.FromName,
		appBaseURL: settings.AppBaseURL,
		enabled:    client != nil && settings.FromEmail != "",
		debug:      settings.Debug,
	}
}

// IsEnabled returns whether emails are actually sent
func (s *NotificationService) IsEnabled() bool {
	return s != nil && s.enabled
}

// ParentLinked tells a parent they were linked to a child as primary representative
func (s *NotificationService) ParentLinked(ctx context.Context, parent *models.User, childName string) {
	if s == nil {
		return
	}
	subject := fmt.Sprintf("You are now %s's primary representative", childName)
	text := fmt.Sprintf(`Hi %s,

Your account has been linked to %s as primary representative.
You can follow their progress from the parent dashboard: %s

---
This is an automated email from Ortografía. Please do not reply.
`, parent.Name, childName, s.appBaseURL)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your account has been linked to <strong>%s</strong> as primary representative.</p>
<p>You can follow their progress from the <a href="%s">parent dashboard</a>.</p>`,
		html.EscapeString(parent.Name), html.EscapeString(childName), html.EscapeString(s.appBaseURL))

	s.send(ctx, parent.Email, subject, wrapHTML(subject, body), text)
}

// ChildTransferred tells every contact that the child moved classrooms
func (s *NotificationService) ChildTransferred(ctx context.Context, contacts []models.Contact, childName, from, to string) {
	if s == nil {
		return
	}
	subject := fmt.Sprintf("%s changed classroom", childName)
	for _, c := range contacts {
		text := fmt.Sprintf(`Hi %s,

%s has been transferred from "%s" to "%s".

---
This is an automated email from Ortografía. Please do not reply.
`, c.Name, childName, from, to)
		body := fmt.Sprintf(`<p>Hi %s,</p>
<p><strong>%s</strong> has been transferred from &ldquo;%s&rdquo; to &ldquo;%s&rdquo;.</p>`,
			html.EscapeString(c.Name), html.EscapeString(childName), html.EscapeString(from), html.EscapeString(to))
		s.send(ctx, c.Email, subject, wrapHTML(subject, body), text)
	}
}

// ChildUnenrolled tells every contact that the child left a classroom
func (s *NotificationService) ChildUnenrolled(ctx context.Context, contacts []models.Contact, childName, classroom string) {
	if s == nil {
		return
	}
	subject := fmt.Sprintf("%s left %s", childName, classroom)
	for _, c := range contacts {
		text := fmt.Sprintf(`Hi %s,

%s is no longer enrolled in "%s".

---
This is an automated email from Ortografía. Please do not reply.
`, c.Name, childName, classroom)
		body := fmt.Sprintf(`<p>Hi %s,</p>
<p><strong>%s</strong> is no longer enrolled in &ldquo;%s&rdquo;.</p>`,
			html.EscapeString(c.Name), html.EscapeString(childName), html.EscapeString(classroom))
		s.send(ctx, c.Email, subject, wrapHTML(subject, body), text)
	}
}

func wrapHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2e7d5b; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>%s</h1></div>
		<div class="content">%s</div>
		<div class="footer"><p>This is an automated email from Ortografía. Please do not reply.</p></div>
	</div>
</body>
</html>
`, html.EscapeString(title), content)
}

// send delivers one email and logs the outcome
func (s *NotificationService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) {
	if !s.IsEnabled() {
		if s != nil && s.debug {
			logger.Debug("Skipping email send (service disabled)", "to", toEmail, "subject", subject)
		}
		return
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		logger.Warn("Failed to send email", "to", toEmail, "subject", subject, "error", err)
		return
	}
	if s.debug && result != nil && result.MessageId != nil {
		logger.Debug("SES SendEmail succeeded", "message_id", *result.MessageId)
	}
	logger.Info("Email sent", "to", toEmail, "subject", subject)
}
