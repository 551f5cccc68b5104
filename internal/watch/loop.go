package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocksmart/stockwatch/internal/metrics"
)

// stopNotifyTimeout bounds the final stop notification so a slow channel
// cannot hold up process exit.
const stopNotifyTimeout = 30 * time.Second

// Config controls Watcher behavior.
type Config struct {
	ProductURL        string
	Cookie            StoreCookie
	PollInterval      time.Duration
	MaxFailures       int
	HeartbeatInterval time.Duration
}

// Watcher runs the check/notify control loop for a single product page.
// Run state is owned by the goroutine executing Run; concurrent readers
// (the status API) go through Snapshot.
type Watcher struct {
	cfg      Config
	fetcher  Fetcher
	notifier Notifier
	clock    Clock
	logger   *zap.Logger

	stopOnce sync.Once

	mu            sync.RWMutex
	running       bool
	failures      int
	startedAt     time.Time
	lastHeartbeat time.Time
	lastResult    CheckResult
}

// New constructs a Watcher. Zero-valued intervals fall back to the
// documented defaults (60s poll, 3 failures, 24h heartbeat).
func New(cfg Config, fetcher Fetcher, notifier Notifier, clock Clock, logger *zap.Logger) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 24 * time.Hour
	}
	return &Watcher{
		cfg:      cfg,
		fetcher:  fetcher,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// Run executes check cycles until the product is seen in stock or ctx is
// canceled. The watcher is one-shot per availability event: an in-stock
// result terminates the loop after the alert. The stop notification is
// emitted exactly once on every exit path, including unexpected errors.
func (w *Watcher) Run(ctx context.Context) error {
	now := w.clock.Now()
	w.mu.Lock()
	w.running = true
	w.startedAt = now
	w.lastHeartbeat = now
	w.mu.Unlock()

	w.logger.Info("stock watcher started",
		zap.String("url", w.cfg.ProductURL),
		zap.Duration("poll_interval", w.cfg.PollInterval),
		zap.Int("max_failures", w.cfg.MaxFailures),
	)
	w.notifier.Notify(ctx, w.startedMessage())

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.notifyStopped(ctx)
		w.logger.Info("stock watcher stopped")
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if done := w.runCycle(ctx); done {
			return nil
		}

		w.maybeHeartbeat(ctx)

		if err := w.sleep(ctx); err != nil {
			return nil
		}
	}
}

// Snapshot returns a copy of the current run state.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := Snapshot{
		Running:             w.running,
		ProductURL:          w.cfg.ProductURL,
		ConsecutiveFailures: w.failures,
		StartedAt:           w.startedAt,
		LastHeartbeat:       w.lastHeartbeat,
		LastStatus:          w.lastResult.Status,
		LastCheckID:         w.lastResult.CheckID,
		LastCheckedAt:       w.lastResult.CheckedAt,
	}
	if w.lastResult.Err != nil {
		snap.LastError = w.lastResult.Err.Error()
	}
	return snap
}

// runCycle performs one fetch/parse/dispatch pass. It reports true when
// the loop should terminate (in-stock success).
func (w *Watcher) runCycle(ctx context.Context) bool {
	result := w.check(ctx)

	w.mu.Lock()
	w.lastResult = result
	w.mu.Unlock()

	metrics.ObserveCheck(string(result.Status), result.Duration)

	switch result.Status {
	case StatusInStock:
		w.setFailures(0)
		w.logger.Info("status: in stock",
			zap.String("check_id", result.CheckID),
			zap.String("url", w.cfg.ProductURL),
		)
		w.notifier.Notify(ctx, w.inStockMessage())
		return true

	case StatusOutOfStock:
		w.setFailures(0)
		w.logger.Info("status: out of stock", zap.String("check_id", result.CheckID))
		return false

	default:
		failures := w.bumpFailures()
		if result.Err != nil {
			w.logger.Error("check failed",
				zap.String("check_id", result.CheckID),
				zap.Int("consecutive_failures", failures),
				zap.Error(result.Err),
			)
		} else {
			w.logger.Warn("status: unknown",
				zap.String("check_id", result.CheckID),
				zap.Int("consecutive_failures", failures),
			)
		}
		if failures >= w.cfg.MaxFailures {
			// The counter keeps climbing past the threshold, so every
			// further failing cycle re-raises the alert until a clean
			// parse resets it.
			w.notifier.Notify(ctx, w.failureMessage(failures, result.Err))
		}
		return false
	}
}

// check runs one scoped fetch and parses the result. Fetch failures are
// folded into StatusUnknown for counting, carrying the error detail.
func (w *Watcher) check(ctx context.Context) CheckResult {
	checkID := uuid.NewString()
	start := w.clock.Now()

	resp, err := w.fetcher.Fetch(ctx, FetchRequest{
		URL:    w.cfg.ProductURL,
		Cookie: w.cfg.Cookie,
	})
	if err != nil {
		return CheckResult{
			Status:    StatusUnknown,
			Err:       fmt.Errorf("fetch product page: %w", err),
			CheckID:   checkID,
			CheckedAt: start,
			Duration:  w.clock.Now().Sub(start),
		}
	}

	return CheckResult{
		Status:    ParseStock(resp.Body),
		CheckID:   checkID,
		CheckedAt: start,
		Duration:  w.clock.Now().Sub(start),
	}
}

// maybeHeartbeat sends a still-alive notification when the heartbeat
// interval has elapsed and resets the heartbeat timestamp.
func (w *Watcher) maybeHeartbeat(ctx context.Context) {
	now := w.clock.Now()

	w.mu.Lock()
	due := now.Sub(w.lastHeartbeat) > w.cfg.HeartbeatInterval
	if due {
		w.lastHeartbeat = now
	}
	uptime := now.Sub(w.startedAt)
	w.mu.Unlock()

	if !due {
		return
	}
	w.logger.Info("heartbeat", zap.Duration("uptime", uptime))
	w.notifier.Notify(ctx, w.heartbeatMessage(uptime, now))
}

// sleep waits one poll interval, returning early when ctx is canceled so
// shutdown never waits out a full interval.
func (w *Watcher) sleep(ctx context.Context) error {
	timer := time.NewTimer(w.cfg.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// notifyStopped emits the stop notification at most once, regardless of
// which exit path reached it first. The send runs on a detached context
// because the loop context is usually already canceled here.
func (w *Watcher) notifyStopped(ctx context.Context) {
	w.stopOnce.Do(func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopNotifyTimeout)
		defer cancel()
		w.notifier.Notify(sendCtx, w.stoppedMessage(ctx.Err() != nil))
	})
}

func (w *Watcher) setFailures(n int) {
	w.mu.Lock()
	w.failures = n
	w.mu.Unlock()
	metrics.SetConsecutiveFailures(n)
}

func (w *Watcher) bumpFailures() int {
	w.mu.Lock()
	w.failures++
	n := w.failures
	w.mu.Unlock()
	metrics.SetConsecutiveFailures(n)
	return n
}

func (w *Watcher) startedMessage() Message {
	return Message{
		Kind:    KindStarted,
		Title:   "Service Started",
		Subject: "Stock Watcher Service Started",
		Body: "The stock watcher service has started successfully.\n" +
			"Monitoring the following product:",
		URL: w.cfg.ProductURL,
	}
}

func (w *Watcher) stoppedMessage(interrupted bool) Message {
	msg := Message{
		Kind:    KindStopped,
		Title:   "Service Stopped",
		Subject: "Stock Watcher Service Stopped",
		Body: "The stock watcher service has stopped.\n" +
			"Monitoring is no longer active.",
		URL: w.cfg.ProductURL,
	}
	if interrupted {
		msg.Title = "Service Stopping"
		msg.Subject = "Stock Watcher Service Stopping"
		msg.Body = "The stock watcher service is shutting down gracefully.\n" +
			"Monitoring stops after the current check completes."
	}
	return msg
}

func (w *Watcher) inStockMessage() Message {
	return Message{
		Kind:    KindInStock,
		Title:   "In Stock",
		Subject: "Product In Stock",
		Body: "Your product is now available! Use the link below to view " +
			"the product page.",
		URL: w.cfg.ProductURL,
	}
}

func (w *Watcher) failureMessage(failures int, fetchErr error) Message {
	if fetchErr != nil {
		return Message{
			Kind:    KindFailure,
			Title:   "Checker Exception",
			Subject: "Stock Watcher Exception",
			Body: fmt.Sprintf(
				"The stock checker encountered %d consecutive errors:\n%v\n\n"+
					"Please verify manually using the link below.",
				failures, fetchErr,
			),
			URL: w.cfg.ProductURL,
		}
	}
	return Message{
		Kind:    KindFailure,
		Title:   "Checker Error",
		Subject: "Stock Watcher Error",
		Body: fmt.Sprintf(
			"Stock check returned unknown status %d times in a row.\n"+
				"Please verify manually using the link below.",
			failures,
		),
		URL: w.cfg.ProductURL,
	}
}

func (w *Watcher) heartbeatMessage(uptime time.Duration, now time.Time) Message {
	return Message{
		Kind:    KindHeartbeat,
		Title:   "Service Heartbeat",
		Subject: "Stock Watcher Service Heartbeat",
		Body: fmt.Sprintf(
			"The stock watcher service is running normally.\n"+
				"Uptime: %s\nLast check: %s",
			uptime.Round(time.Second),
			now.Format("2006-01-02 15:04:05"),
		),
		URL: w.cfg.ProductURL,
	}
}
