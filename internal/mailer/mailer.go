// Package mailer delivers transactional email. Senders are swappable: log
// only, SMTP inline, or a RabbitMQ queue drained by cmd/mailer.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/nikhil/sharenet/internal/logger"
)

// Message is one plain-text email.
type Message struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// Mailer sends a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Invitation renders the team invitation email.
func Invitation(to, teamName, inviterName string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("You've been invited to join the team: %s", teamName),
		Body:    fmt.Sprintf("Hello,\n\n%s has invited you to join the team %q.\n\nBest,\nTeam Management", inviterName, teamName),
	}
}

// Promotion renders the email sent to a user who was made an admin.
func Promotion(to string) Message {
	return Message{
		To:      to,
		Subject: "Congratulations, You are now an Admin!",
		Body:    "Hello,\n\nYou have been promoted to an admin. Welcome to the team!\n\nBest,\nTeam Management",
	}
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Log *logger.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	m.Log.Info("Email queued for log delivery", "to", msg.To, "subject", msg.Subject)
	return nil
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// SMTPMailer sends through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	if m.cfg.Host == "" || m.cfg.Port == "" || m.cfg.From == "" {
		return fmt.Errorf("missing SMTP configuration")
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("invalid header value")
	}

	body := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=\"utf-8\"\r\n"+
			"\r\n%s\r\n",
		m.cfg.From, msg.To, msg.Subject, msg.Body,
	))

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	if err := m.sendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
