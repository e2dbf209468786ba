package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"reviewhub/internal/config"
)

// Mailer delivers a confirmation code to a recipient address. Delivery is
// best-effort: callers must not treat a send failure as a request failure.
type Mailer interface {
	SendConfirmationCode(to, username, code string) error
}

// SMTPMailer sends plain-text mail through a configured relay.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	password string
	logger   *slog.Logger
}

func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		password: cfg.SMTPPassword,
		logger:   logger,
	}
}

func (m *SMTPMailer) SendConfirmationCode(to, username, code string) error {
	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	subject := "Your confirmation code"
	body := fmt.Sprintf("Hello %s,\n\nYour confirmation code is:\n\n%s\n\nExchange it at POST /api/v1/auth/token to receive an access token.\n", username, code)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, message); err != nil {
		return fmt.Errorf("send confirmation mail: %w", err)
	}
	return nil
}

// LogMailer writes issued codes to the log instead of sending mail. Used in
// development when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendConfirmationCode(to, username, code string) error {
	m.logger.Info("confirmation code issued (mail not configured)",
		"to", to,
		"username", username,
		"code", code,
	)
	return nil
}
