package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/gregdel/pushover"

	"github.com/stocksmart/stockwatch/internal/config"
	"github.com/stocksmart/stockwatch/internal/watch"
)

// pushTimeout bounds a single push delivery attempt.
const pushTimeout = 5 * time.Second

// urlTitle labels the attached product link in the Pushover client.
const urlTitle = "View Product"

// PushoverChannel sends push notifications through the Pushover API.
// Credentials are resolved from the live config snapshot on every send,
// so a reload rotates them without a restart.
type PushoverChannel struct {
	store *config.Store
}

// NewPushover constructs a PushoverChannel.
func NewPushover(store *config.Store) *PushoverChannel {
	return &PushoverChannel{store: store}
}

// Name identifies the channel in logs and metrics.
func (c *PushoverChannel) Name() string { return "pushover" }

// Send delivers msg, or returns ErrChannelDisabled when token/user are
// not configured.
func (c *PushoverChannel) Send(ctx context.Context, msg watch.Message) error {
	creds := c.store.Current().Pushover
	if creds.Token == "" || creds.User == "" {
		return ErrChannelDisabled
	}

	app := pushover.New(creds.Token)
	recipient := pushover.NewRecipient(creds.User)
	pm := pushover.NewMessageWithTitle(msg.Body, msg.Title)
	if msg.URL != "" {
		pm.URL = msg.URL
		pm.URLTitle = urlTitle
	}

	sendCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := app.SendMessage(pm, recipient)
		done <- err
	}()

	select {
	case <-sendCtx.Done():
		return fmt.Errorf("pushover send: %w", sendCtx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("pushover send: %w", err)
		}
	}
	return nil
}
