package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Notifier tells account holders about changes made to their account.
type Notifier interface {
	PasswordChanged(ctx context.Context, to, name string) error
}

// SMTPConfig holds the outgoing mail settings. An empty Host disables mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// New returns an SMTP notifier, or a no-op one when cfg.Host is empty.
func New(cfg SMTPConfig) (Notifier, error) {
	if cfg.Host == "" {
		return Noop{}, nil
	}
	client, err := mail.NewClient(cfg.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Port),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{client: client, from: from}, nil
}

type Mailer struct {
	client *mail.Client
	from   string
}

func (m *Mailer) PasswordChanged(ctx context.Context, to, name string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject("Your password was changed")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Hello %s,\n\nThe password for your account was just reset. "+
			"If you did not request this, contact an administrator.\n", name))
	return m.client.DialAndSendWithContext(ctx, msg)
}

type Noop struct{}

func (Noop) PasswordChanged(context.Context, string, string) error {
	return nil
}
