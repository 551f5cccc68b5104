package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stocksmart/stockwatch/internal/config"
	"github.com/stocksmart/stockwatch/internal/watch"
)

type fakeChannel struct {
	name string
	err  error

	mu   sync.Mutex
	sent []watch.Message
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, msg watch.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func testMessage() watch.Message {
	return watch.Message{
		Kind:    watch.KindInStock,
		Title:   "In Stock",
		Subject: "Product In Stock",
		Body:    "Your product is now available!",
		URL:     "https://example.com/product/123",
	}
}

func TestFanoutDeliversToAllChannels(t *testing.T) {
	t.Parallel()

	first := &fakeChannel{name: "first"}
	second := &fakeChannel{name: "second"}
	fanout := NewFanout(zap.NewNop(), first, second)

	fanout.Notify(context.Background(), testMessage())

	require.Equal(t, 1, first.sentCount())
	require.Equal(t, 1, second.sentCount())
}

func TestFanoutContinuesPastFailingChannel(t *testing.T) {
	t.Parallel()

	broken := &fakeChannel{name: "broken", err: errors.New("transport down")}
	healthy := &fakeChannel{name: "healthy"}
	fanout := NewFanout(zap.NewNop(), broken, healthy)

	fanout.Notify(context.Background(), testMessage())

	require.Zero(t, broken.sentCount())
	require.Equal(t, 1, healthy.sentCount())
}

func TestFanoutSkipsDisabledChannel(t *testing.T) {
	t.Parallel()

	disabled := &fakeChannel{name: "disabled", err: ErrChannelDisabled}
	healthy := &fakeChannel{name: "healthy"}
	fanout := NewFanout(zap.NewNop(), disabled, healthy)

	fanout.Notify(context.Background(), testMessage())

	require.Zero(t, disabled.sentCount())
	require.Equal(t, 1, healthy.sentCount())
}

func TestPushoverDisabledWithoutCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		creds config.PushoverConfig
	}{
		{name: "no credentials", creds: config.PushoverConfig{}},
		{name: "token only", creds: config.PushoverConfig{Token: "app-token"}},
		{name: "user only", creds: config.PushoverConfig{User: "user-key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := config.NewStore(config.Config{Pushover: tt.creds})
			ch := NewPushover(store)
			err := ch.Send(context.Background(), testMessage())
			require.ErrorIs(t, err, ErrChannelDisabled)
		})
	}
}

func TestEmailDisabledWithoutCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.EmailConfig
	}{
		{name: "no settings", cfg: config.EmailConfig{}},
		{
			name: "missing password",
			cfg:  config.EmailConfig{User: "watcher@example.com", Recipients: "ops@example.com"},
		},
		{
			name: "no recipients",
			cfg:  config.EmailConfig{User: "watcher@example.com", Password: "secret"},
		},
		{
			name: "recipients all blank",
			cfg: config.EmailConfig{
				User:       "watcher@example.com",
				Password:   "secret",
				Recipients: " , ,",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := config.NewStore(config.Config{Email: tt.cfg})
			ch := NewEmail(store)
			err := ch.Send(context.Background(), testMessage())
			require.ErrorIs(t, err, ErrChannelDisabled)
		})
	}
}

func TestEmailPicksUpReloadedCredentials(t *testing.T) {
	t.Parallel()

	store := config.NewStore(config.Config{})
	ch := NewEmail(store)

	err := ch.Send(context.Background(), testMessage())
	require.ErrorIs(t, err, ErrChannelDisabled)

	// After a reload the same channel must attempt delivery. The SMTP
	// target is a closed local port, so the attempt fails with a dial
	// error rather than the disabled sentinel.
	store.Replace(config.Config{
		Email: config.EmailConfig{
			User:       "watcher@example.com",
			Password:   "rotated-secret",
			Recipients: "ops@example.com",
			SMTPHost:   "127.0.0.1",
			SMTPPort:   1,
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = ch.Send(ctx, testMessage())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrChannelDisabled)
}

// One full in-stock run against the fanout: start, in-stock and stop each
// reach both channels, six sends in total.
func TestWatcherFanoutSendPairs(t *testing.T) {
	t.Parallel()

	push := &fakeChannel{name: "push"}
	email := &fakeChannel{name: "email"}
	fanout := NewFanout(zap.NewNop(), push, email)

	fetcher := &staticFetcher{body: "<html>'inStock':'True'</html>"}
	w := watch.New(
		watch.Config{
			ProductURL:   "https://example.com/product/123",
			PollInterval: time.Millisecond,
		},
		fetcher,
		fanout,
		realClock{},
		zap.NewNop(),
	)

	require.NoError(t, w.Run(context.Background()))

	require.Equal(t, 3, push.sentCount())
	require.Equal(t, 3, email.sentCount())
	for _, ch := range []*fakeChannel{push, email} {
		require.Equal(t, watch.KindStarted, ch.sent[0].Kind)
		require.Equal(t, watch.KindInStock, ch.sent[1].Kind)
		require.Equal(t, watch.KindStopped, ch.sent[2].Kind)
	}
}

type staticFetcher struct {
	body string
}

func (f *staticFetcher) Fetch(_ context.Context, _ watch.FetchRequest) (watch.FetchResponse, error) {
	return watch.FetchResponse{Body: f.body}, nil
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
