// Package sender формирует письма-напоминания о продлении и отправляет их по SMTP.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/datetime"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
)

var (
	// ErrInvalidMessage сообщение из очереди не удалось разобрать.
	ErrInvalidMessage = errors.New("invalid reminder message")
	// ErrUnknownKind для типа уведомления нет шаблона.
	ErrUnknownKind = errors.New("unknown reminder kind")
)

var bodyTemplate = template.Must(template.New("reminder").Parse(`Hello {{.UserName}},

Your {{.SubscriptionName}} subscription renews on {{.RenewalDate}} ({{.LeadDays}} days from now).

Plan: {{.PlanName}}
Price: {{.Price}}
Payment method: {{.PaymentMethod}}

If you want to make changes or cancel, visit your account settings: {{.AccountSettingsLink}}
Need help? Contact support: {{.SupportLink}}
`))

// MailInfo данные для шаблона письма.
type MailInfo struct {
	UserName            string
	SubscriptionName    string
	RenewalDate         string
	LeadDays            int
	PlanName            string
	Price               string
	PaymentMethod       string
	AccountSettingsLink string
	SupportLink         string
}

// Email готовое письмо.
type Email struct {
	To      string
	Subject string
	Body    string
}

// SenderService отправляет напоминания о продлении.
type SenderService struct {
	transport smtp.Dialer
	log       *slog.Logger
	clientURL string
	kinds     map[string]int
}

// NewSenderService создаёт сервис. leadDays задаёт допустимые типы уведомлений.
func NewSenderService(log *slog.Logger, transport smtp.Dialer, leadDays []int, clientURL string) *SenderService {
	kinds := make(map[string]int, len(leadDays))
	for _, d := range leadDays {
		kinds[reminder.Label(d)] = d
	}
	return &SenderService{
		transport: transport,
		log:       log,
		clientURL: strings.TrimRight(clientURL, "/"),
		kinds:     kinds,
	}
}

// HandleReminder разбирает сообщение из очереди и отправляет письмо.
func (s *SenderService) HandleReminder(ctx context.Context, body []byte) error {
	const op = "sender.HandleReminder"
	var msg models.ReminderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidMessage, err)
	}
	if msg.UserEmail == "" {
		return fmt.Errorf("%s: %w: missing recipient", op, ErrInvalidMessage)
	}

	email, err := s.Render(msg)
	if err != nil {
		s.log.Error("failed to render reminder", sl.Op(op), sl.Err(err), slog.String("kind", msg.Kind))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sendEmail(ctx, []string{email.To}, email.Subject, email.Body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("reminder delivered", sl.Op(op),
		slog.String("message_id", msg.MessageID), sl.SubscriptionID(msg.SubscriptionID), slog.String("kind", msg.Kind))
	return nil
}

// Render собирает тему и текст письма по типу уведомления.
func (s *SenderService) Render(msg models.ReminderMessage) (*Email, error) {
	const op = "sender.Render"
	days, ok := s.kinds[msg.Kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownKind, msg.Kind)
	}

	info := MailInfo{
		UserName:            msg.UserName,
		SubscriptionName:    msg.Name,
		RenewalDate:         datetime.FormatHuman(msg.RenewalDate),
		LeadDays:            days,
		PlanName:            msg.Name,
		Price:               fmt.Sprintf("%s %s (%s)", msg.Currency, msg.Price.StringFixed(2), msg.Frequency),
		PaymentMethod:       msg.PaymentMethod,
		AccountSettingsLink: s.clientURL + "/account/settings",
		SupportLink:         s.clientURL + "/support",
	}

	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, info); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Email{
		To:      msg.UserEmail,
		Subject: subject(days, msg.Name),
		Body:    buf.String(),
	}, nil
}

func subject(days int, name string) string {
	if days == 1 {
		return fmt.Sprintf("Final Reminder: %s Renews Tomorrow!", name)
	}
	return fmt.Sprintf("Reminder: Your %s Subscription Renews in %d Days!", name, days)
}

func (s *SenderService) sendEmail(ctx context.Context, to []string, subject, bodyText string) error {
	from := s.transport.From()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"X-Category: subscription-reminder",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Open(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	return nil
}
