// Package config resolves runtime settings from flags, the environment and a
// .env file, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Mail providers.
const (
	ProviderSMTP    = "smtp"
	ProviderEmailJS = "emailjs"
	ProviderLog     = "log"
)

// Config holds application configuration.
type Config struct {
	Port      string
	LogLevel  string
	StaticDir string
	Content   ContentConfig
	Session   SessionConfig
	Contact   ContactConfig
	Mail      MailConfig
}

// ContentConfig points at an optional YAML file overriding the built-in
// portfolio content.
type ContentConfig struct {
	Path  string
	Watch bool
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type ContactConfig struct {
	ResetDelay time.Duration
}

// MailConfig selects and configures the contact form delivery.
type MailConfig struct {
	Provider string
	SMTP     SMTPConfig
	EmailJS  EmailJSConfig
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	To   string
}

type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Endpoint   string
}

// env maps viper keys to the environment variables that feed them.
var env = map[string]string{
	"port":                  "PORT",
	"log_level":             "LOG_LEVEL",
	"static_dir":            "STATIC_DIR",
	"content.path":          "CONTENT_PATH",
	"content.watch":         "CONTENT_WATCH",
	"session.ttl":           "SESSION_TTL",
	"session.sweep":         "SESSION_SWEEP_INTERVAL",
	"contact.reset_delay":   "CONTACT_RESET_DELAY",
	"mail.provider":         "MAIL_PROVIDER",
	"mail.smtp.host":        "SMTP_HOST",
	"mail.smtp.port":        "SMTP_PORT",
	"mail.smtp.user":        "SMTP_USER",
	"mail.smtp.pass":        "SMTP_PASS",
	"mail.smtp.to":          "TO_EMAIL",
	"mail.emailjs.service":  "EMAILJS_SERVICE_ID",
	"mail.emailjs.template": "EMAILJS_TEMPLATE_ID",
	"mail.emailjs.key":      "EMAILJS_PUBLIC_KEY",
	"mail.emailjs.private":  "EMAILJS_PRIVATE_KEY",
	"mail.emailjs.endpoint": "EMAILJS_ENDPOINT",
}

// flags maps command-line flag names to viper keys.
var flags = map[string]string{
	"port":          "port",
	"log-level":     "log_level",
	"static-dir":    "static_dir",
	"content":       "content.path",
	"watch":         "content.watch",
	"mail-provider": "mail.provider",
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "./static")
	v.SetDefault("content.path", "")
	v.SetDefault("content.watch", false)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.sweep", time.Minute)
	v.SetDefault("contact.reset_delay", 3*time.Second)
	v.SetDefault("mail.provider", ProviderSMTP)
	v.SetDefault("mail.smtp.host", "smtp.gmail.com")
	v.SetDefault("mail.smtp.port", "587")
	v.SetDefault("mail.smtp.user", "")
	v.SetDefault("mail.smtp.pass", "")
	v.SetDefault("mail.smtp.to", "")
	v.SetDefault("mail.emailjs.service", "")
	v.SetDefault("mail.emailjs.template", "")
	v.SetDefault("mail.emailjs.key", "")
	v.SetDefault("mail.emailjs.private", "")
	v.SetDefault("mail.emailjs.endpoint", "https://api.emailjs.com/api/v1.0/email/send")

	for key, name := range env {
		_ = v.BindEnv(key, name)
	}
	return v
}

// BindFlags lets any of fs's known flags override the environment.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flags {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load resolves a Config from v.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Port:      strings.TrimPrefix(v.GetString("port"), ":"),
		LogLevel:  v.GetString("log_level"),
		StaticDir: v.GetString("static_dir"),
		Content: ContentConfig{
			Path:  v.GetString("content.path"),
			Watch: v.GetBool("content.watch"),
		},
		Session: SessionConfig{
			TTL:           v.GetDuration("session.ttl"),
			SweepInterval: v.GetDuration("session.sweep"),
		},
		Contact: ContactConfig{
			ResetDelay: v.GetDuration("contact.reset_delay"),
		},
		Mail: MailConfig{
			Provider: strings.ToLower(strings.TrimSpace(v.GetString("mail.provider"))),
			SMTP: SMTPConfig{
				Host: v.GetString("mail.smtp.host"),
				Port: v.GetString("mail.smtp.port"),
				User: v.GetString("mail.smtp.user"),
				Pass: v.GetString("mail.smtp.pass"),
				To:   v.GetString("mail.smtp.to"),
			},
			EmailJS: EmailJSConfig{
				ServiceID:  v.GetString("mail.emailjs.service"),
				TemplateID: v.GetString("mail.emailjs.template"),
				PublicKey:  v.GetString("mail.emailjs.key"),
				PrivateKey: v.GetString("mail.emailjs.private"),
				Endpoint:   v.GetString("mail.emailjs.endpoint"),
			},
		},
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks settings that would otherwise fail later at runtime.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	switch c.Mail.Provider {
	case ProviderSMTP, ProviderEmailJS, ProviderLog:
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session sweep interval must be positive, got %s", c.Session.SweepInterval)
	}
	if c.Contact.ResetDelay < 0 {
		return fmt.Errorf("contact reset delay must not be negative, got %s", c.Contact.ResetDelay)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
