package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"

	"github.com/ElMariones/portfolio/internal/config"
	"github.com/ElMariones/portfolio/internal/submission"
)

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP delivers submissions as plain-text mail with the visitor as Reply-To.
type SMTP struct {
	cfg      config.SMTPConfig
	logger   *slog.Logger
	sendMail SendMailFunc
}

func NewSMTP(cfg config.SMTPConfig, logger *slog.Logger) *SMTP {
	if cfg.To == "" {
		cfg.To = cfg.User
	}
	return &SMTP{cfg: cfg, logger: logger, sendMail: smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, p submission.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.User == "" || s.cfg.Pass == "" {
		return fmt.Errorf("%w: SMTP credentials not set", ErrNotConfigured)
	}
	if err := checkHeaders(p); err != nil {
		return err
	}

	msg := composeMessage(s.cfg.User, s.cfg.To, p)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)

	if err := s.sendMail(s.cfg.Host+":"+s.cfg.Port, auth, s.cfg.User, []string{s.cfg.To}, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", s.cfg.Host, err)
	}
	s.logger.Info("contact email sent", "name", p.Name)
	return nil
}

func composeMessage(from, to string, p submission.Payload) []byte {
	subject := mime.QEncoding.Encode("utf-8", fmt.Sprintf("Portfolio Contact: %s", p.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, p.Name, p.Email, p.Message)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"Reply-To: " + p.Email + "\r\n" +
		"\r\n" +
		body + "\r\n")
}
