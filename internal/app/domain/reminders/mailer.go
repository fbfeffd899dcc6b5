package reminders

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mailer is the notification collaborator. Implementations must honor
// the context deadline; a slow mail relay must not stall the scan.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	addr   string
	from   string
	logger *zap.Logger
}

func NewSMTPMailer(addr, from string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", to, ctx.Err())
	}
}

// LogMailer logs instead of delivering. Default when no relay is
// configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("Reminder notification (log only)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}
