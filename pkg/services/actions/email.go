package actions

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/mail"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Dialer sends an assembled message over SMTP. *gomail.Dialer
// satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailConfig is the engine-level SMTP configuration; per-workflow
// recipient and body come from the workflow record.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// EmailAdapter validates and sends email-send steps. Validation
// failures fail fast without touching the SMTP server.
type EmailAdapter struct {
	dialer Dialer
	from   string
}

func NewEmailAdapter(cfg EmailConfig) *EmailAdapter {
	return &EmailAdapter{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// NewEmailAdapterWithDialer is used by tests to capture sent messages.
func NewEmailAdapterWithDialer(dialer Dialer, from string) *EmailAdapter {
	return &EmailAdapter{dialer: dialer, from: from}
}

func (a *EmailAdapter) Kind() domain.StepKind {
	return domain.StepEmail
}

func (a *EmailAdapter) Execute(ctx context.Context, req Request) domain.Outcome {
	cfg := req.Workflow.Email

	if cfg.Recipient == "" || cfg.Subject == "" || cfg.Body == "" {
		return domain.Failed("email: recipient, subject and body are required")
	}
	if _, err := mail.ParseAddress(cfg.Recipient); err != nil {
		return domain.Failed(fmt.Sprintf("email: invalid recipient %q", cfg.Recipient))
	}

	m := gomail.NewMessage()
	m.SetHeader("From", a.from)
	m.SetHeader("To", cfg.Recipient)
	m.SetHeader("Subject", cfg.Subject)
	m.SetBody("text/plain", cfg.Body)

	for _, att := range cfg.Attachments {
		data, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			return domain.Failed(fmt.Sprintf("email: decode attachment %q: %v", att.Filename, err))
		}
		m.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	if err := a.dialer.DialAndSend(m); err != nil {
		return domain.Failed(fmt.Sprintf("email: send: %v", err))
	}

	zerolog.Ctx(ctx).Debug().
		Str("workflow", req.Workflow.ID).
		Str("recipient", cfg.Recipient).
		Msg("sent email")
	return domain.Completed()
}
