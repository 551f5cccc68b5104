package notify

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/stocksmart/stockwatch/internal/config"
	"github.com/stocksmart/stockwatch/internal/watch"
)

// EmailChannel sends plain-text notifications over a STARTTLS SMTP
// submission. Settings come from the live config snapshot on every send.
type EmailChannel struct {
	store *config.Store
}

// NewEmail constructs an EmailChannel.
func NewEmail(store *config.Store) *EmailChannel {
	return &EmailChannel{store: store}
}

// Name identifies the channel in logs and metrics.
func (c *EmailChannel) Name() string { return "email" }

// Send delivers msg, or returns ErrChannelDisabled when user, password
// or recipients are not configured.
func (c *EmailChannel) Send(ctx context.Context, msg watch.Message) error {
	cfg := c.store.Current().Email
	recipients := cfg.RecipientList()
	if cfg.User == "" || cfg.Password == "" || len(recipients) == 0 {
		return ErrChannelDisabled
	}

	m := mail.NewMsg()
	if err := m.From(cfg.User); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	m.Subject(msg.Subject)

	body := msg.Body
	if msg.URL != "" {
		body += "\n\nProduct URL: " + msg.URL
	}
	m.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
