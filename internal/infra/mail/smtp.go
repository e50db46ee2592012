package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"support-center/internal/domain/appointment"
	"support-center/internal/pkg/config"
	"support-center/internal/usecase/shared"
)

// SMTPMailer delivers plain-text notifications over unauthenticated SMTP
// (Mailpit-compatible in development).
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = "no-reply@support-center.local"
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		from: from,
	}
}

var _ shared.Mailer = (*SMTPMailer)(nil)

func (m *SMTPMailer) SendConfirmation(_ context.Context, a *appointment.Appointment) error {
	subject := fmt.Sprintf("Appointment %s confirmed", a.Reference())
	body := fmt.Sprintf(
		"Your service appointment %s has been confirmed.\n\nWhen: %s\nWhere: %s\n\nWe look forward to seeing you.",
		a.Reference(), a.Slot().Start().Format("Mon, 02 Jan 2006 15:04"), orUnset(a.Location()),
	)
	return m.send(a.CustomerEmail(), subject, body)
}

func (m *SMTPMailer) SendReminder(_ context.Context, a *appointment.Appointment) error {
	subject := fmt.Sprintf("Reminder: appointment %s", a.Reference())
	body := fmt.Sprintf(
		"This is a reminder for your service appointment %s.\n\nWhen: %s\nWhere: %s",
		a.Reference(), a.Slot().Start().Format("Mon, 02 Jan 2006 15:04"), orUnset(a.Location()),
	)
	return m.send(a.CustomerEmail(), subject, body)
}

func (m *SMTPMailer) SendCompletion(_ context.Context, a *appointment.Appointment) error {
	subject := fmt.Sprintf("Appointment %s completed", a.Reference())
	body := fmt.Sprintf(
		"Your service appointment %s has been completed. Thank you for choosing us.",
		a.Reference(),
	)
	return m.send(a.CustomerEmail(), subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := buildMessage(m.from, to, subject, body)
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from, to, subject, body,
	)
}

func orUnset(s string) string {
	if s == "" {
		return "to be announced"
	}
	return s
}
