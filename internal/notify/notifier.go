// Package notify delivers watcher notifications over independent push
// and email channels.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/stocksmart/stockwatch/internal/metrics"
	"github.com/stocksmart/stockwatch/internal/watch"
)

// ErrChannelDisabled indicates a channel skipped a send because its
// credentials are not configured.
var ErrChannelDisabled = errors.New("notification channel disabled")

// Channel delivers a single message over one transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg watch.Message) error
}

// Fanout implements watch.Notifier over a set of channels. Every channel
// gets every message; a failing or unconfigured channel is logged and
// skipped so a broken transport never halts monitoring.
type Fanout struct {
	channels []Channel
	logger   *zap.Logger
}

// NewFanout constructs a Fanout.
func NewFanout(logger *zap.Logger, channels ...Channel) *Fanout {
	return &Fanout{
		channels: channels,
		logger:   logger,
	}
}

// Notify sends msg to all channels, best effort.
func (f *Fanout) Notify(ctx context.Context, msg watch.Message) {
	for _, ch := range f.channels {
		err := ch.Send(ctx, msg)
		switch {
		case errors.Is(err, ErrChannelDisabled):
			f.logger.Warn("notification channel not configured, skipping",
				zap.String("channel", ch.Name()),
				zap.String("kind", string(msg.Kind)),
			)
		case err != nil:
			metrics.ObserveNotificationError(ch.Name())
			f.logger.Error("notification send failed",
				zap.String("channel", ch.Name()),
				zap.String("kind", string(msg.Kind)),
				zap.Error(err),
			)
		default:
			metrics.ObserveNotification(ch.Name(), string(msg.Kind))
			f.logger.Info("notification sent",
				zap.String("channel", ch.Name()),
				zap.String("kind", string(msg.Kind)),
			)
		}
	}
}
