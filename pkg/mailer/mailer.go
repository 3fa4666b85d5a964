// Package mailer sends HTML notification mail over SMTP with implicit TLS.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers email messages. Implementations must be safe for
// concurrent use; the dispatcher sends to many recipients at once.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// SMTP is an SMTP-backed Sender using implicit TLS (port 465 style).
type SMTP struct {
	cfg    Config
	logger *zap.Logger
}

// NewSMTP creates an SMTP sender.
func NewSMTP(cfg Config, logger *zap.Logger) *SMTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTP{cfg: cfg, logger: logger}
}

// Send delivers one message. It dials per call; notification volume is low
// enough that connection reuse is not worth the session bookkeeping.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	from := s.cfg.FromAddress
	body := []byte(
		fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from) +
			fmt.Sprintf("To: %s\r\n", msg.To) +
			fmt.Sprintf("Subject: %s\r\n", msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			msg.HTML,
	)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.cfg.Host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Quit()

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	s.logger.Debug("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
