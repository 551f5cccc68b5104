// Package headless fetches pages with a real browser so client-side
// availability markers are present in the returned text.
package headless

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/stocksmart/stockwatch/internal/watch"
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
}

// Fetcher implements watch.Fetcher using chromedp and headless Chrome.
// The exec allocator lives for the process; each Fetch runs in a fresh
// tab that is torn down before the call returns, on every path.
type Fetcher struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a headless fetcher backed by chromedp.
func New(cfg Config) *Fetcher {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close cancels the allocator context.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch sets the store cookie, navigates to the product page and returns
// the fully rendered DOM.
func (f *Fetcher) Fetch(ctx context.Context, request watch.FetchRequest) (watch.FetchResponse, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocator)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, f.cfg.NavigationTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	start := time.Now()
	var html string
	actions := []chromedp.Action{
		f.sessionSetupAction(request),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return watch.FetchResponse{}, fmt.Errorf("chromedp run: %w", err)
	}

	return watch.FetchResponse{
		URL:      request.URL,
		Body:     html,
		Duration: time.Since(start),
	}, nil
}

func (f *Fetcher) sessionSetupAction(request watch.FetchRequest) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		if request.Cookie.Name == "" {
			return nil
		}
		domain, err := cookieDomain(request.URL)
		if err != nil {
			return err
		}
		err = network.SetCookie(request.Cookie.Name, request.Cookie.Value).
			WithDomain(domain).
			WithPath("/").
			WithSecure(true).
			WithHTTPOnly(false).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("set store cookie: %w", err)
		}
		return nil
	})
}

// cookieDomain derives the cookie scope from the target URL. The leading
// dot keeps the cookie valid across www and bare-host redirects.
func cookieDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse product url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("product url %q has no host", rawURL)
	}
	return "." + strings.TrimPrefix(host, "www."), nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
