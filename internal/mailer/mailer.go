// Package mailer delivers contact form submissions.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ElMariones/portfolio/internal/config"
	"github.com/ElMariones/portfolio/internal/submission"
)

var (
	// ErrNotConfigured means the selected provider is missing credentials.
	ErrNotConfigured = errors.New("mail provider not configured")

	// ErrHeaderInjection means a header-bound field contained a line break.
	ErrHeaderInjection = errors.New("line break in header field")
)

// New returns the sender selected by cfg.Provider.
func New(cfg config.MailConfig, logger *slog.Logger) (submission.Sender, error) {
	switch cfg.Provider {
	case config.ProviderSMTP, "":
		return NewSMTP(cfg.SMTP, logger), nil
	case config.ProviderEmailJS:
		return NewEmailJS(cfg.EmailJS, nil), nil
	case config.ProviderLog:
		return &Log{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

func checkHeaders(p submission.Payload) error {
	for _, v := range []string{p.Name, p.Email} {
		if strings.ContainsAny(v, "\r\n") {
			return ErrHeaderInjection
		}
	}
	return nil
}

// Log writes submissions to the logger instead of delivering them.
type Log struct {
	Logger *slog.Logger
}

func (l *Log) Send(ctx context.Context, p submission.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.Logger.Info("contact message", "name", p.Name, "email", p.Email, "message", p.Message)
	return nil
}
