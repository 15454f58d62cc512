package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ElMariones/portfolio/internal/config"
	"github.com/ElMariones/portfolio/internal/submission"
)

// EmailJS delivers submissions through the EmailJS REST API. The account must
// allow API calls from non-browser applications; accounts that enforce the
// private key also need PrivateKey, sent as accessToken.
type EmailJS struct {
	cfg    config.EmailJSConfig
	client *http.Client
}

// NewEmailJS returns an EmailJS sender. A nil client gets a default with a
// 15 second timeout.
func NewEmailJS(cfg config.EmailJSConfig, client *http.Client) *EmailJS {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &EmailJS{cfg: cfg, client: client}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (e *EmailJS) Send(ctx context.Context, p submission.Payload) error {
	if e.cfg.ServiceID == "" || e.cfg.TemplateID == "" || e.cfg.PublicKey == "" {
		return fmt.Errorf("%w: EmailJS service, template and public key are required", ErrNotConfigured)
	}
	if err := checkHeaders(p); err != nil {
		return err
	}

	body, err := json.Marshal(emailJSRequest{
		ServiceID:   e.cfg.ServiceID,
		TemplateID:  e.cfg.TemplateID,
		UserID:      e.cfg.PublicKey,
		AccessToken: e.cfg.PrivateKey,
		TemplateParams: map[string]string{
			"from_name":  p.Name,
			"from_email": p.Email,
			"message":    p.Message,
		},
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs: %s: %s", resp.Status, bytes.TrimSpace(text))
	}
	return nil
}
