package service

import (
	"context"
	"fmt"
	"strings"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender is the subset of *sendgrid.Client the email service uses.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client     mailSender
	fromEmail  string
	fromName   string
	recipients []string
}

// NewEmailService returns a SendGrid-backed EmailService. Without an API key or
// recipients it returns one that only logs.
func NewEmailService(apiKey, fromEmail, fromName string, recipients []string) EmailService {
	if apiKey == "" || len(recipients) == 0 {
		return &logEmailService{}
	}
	return newEmailService(sendgrid.NewSendClient(apiKey), fromEmail, fromName, recipients)
}

func newEmailService(client mailSender, fromEmail, fromName string, recipients []string) *emailService {
	return &emailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		recipients: recipients,
	}
}

func (s *emailService) SendNewApplicationNotice(ctx context.Context, app *domain.Application) error {
	subject := fmt.Sprintf("New application from %s", app.Username)
	body := fmt.Sprintf("A new application is waiting for review.\n\n"+
		"ID: %d\nUsername: %s\nDiscord: %s\nExperience: %s\nRole: %s\nAvailability: %s\n",
		app.ID, app.Username, app.Discord, app.Experience, app.Role, strings.Join(app.Availability, ", "))
	return s.send(ctx, "SendNewApplicationNotice", subject, body)
}

func (s *emailService) SendPendingDigest(ctx context.Context, pending []domain.Application) error {
	if len(pending) == 0 {
		return nil
	}
	subject := fmt.Sprintf("%d applications awaiting review", len(pending))
	var b strings.Builder
	b.WriteString("The following applications are still pending:\n\n")
	for _, a := range pending {
		fmt.Fprintf(&b, "#%d %s (%s, %s), submitted %s\n",
			a.ID, a.Username, a.Role, a.Experience, a.SubmittedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	return s.send(ctx, "SendPendingDigest", subject, b.String())
}

func (s *emailService) send(ctx context.Context, operation, subject, body string) error {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.Subject = subject

	personalization := mail.NewPersonalization()
	for _, to := range s.recipients {
		personalization.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/plain", body))

	logger.ExternalServiceCall(ctx, "sendgrid", operation, "recipients", len(s.recipients))
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult(ctx, "sendgrid", operation, err)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// logEmailService stands in when SendGrid is not configured.
type logEmailService struct{}

func (logEmailService) SendNewApplicationNotice(ctx context.Context, app *domain.Application) error {
	logger.InfoContext(ctx, "Email disabled; new application notice skipped", "applicationID", app.ID)
	return nil
}

func (logEmailService) SendPendingDigest(ctx context.Context, pending []domain.Application) error {
	logger.InfoContext(ctx, "Email disabled; pending digest skipped", "pending", len(pending))
	return nil
}
