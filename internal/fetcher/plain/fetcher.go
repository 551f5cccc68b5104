// Package plain fetches pages over HTTP without JavaScript execution.
// It is a substitute for the headless fetcher when the availability
// marker is present in the server-rendered HTML.
package plain

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/stocksmart/stockwatch/internal/watch"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements watch.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	// Single pre-approved target; robots gating does not apply.
	c.IgnoreRobotsTxt = true
	// The same product URL is fetched every cycle; the visited-URL
	// guard would reject every fetch after the first.
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET with the store cookie applied.
func (f *Fetcher) Fetch(ctx context.Context, request watch.FetchRequest) (watch.FetchResponse, error) {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	if request.Cookie.Name != "" {
		cookie := &http.Cookie{
			Name:  request.Cookie.Name,
			Value: request.Cookie.Value,
			Path:  "/",
		}
		if err := collector.SetCookies(request.URL, []*http.Cookie{cookie}); err != nil {
			return watch.FetchResponse{}, fmt.Errorf("set store cookie: %w", err)
		}
	}

	var (
		result   watch.FetchResponse
		fetchErr error
	)
	start := time.Now()

	collector.OnResponse(func(r *colly.Response) {
		result = watch.FetchResponse{
			URL:      r.Request.URL.String(),
			Body:     string(r.Body),
			Duration: time.Since(start),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(request.URL)
	}()

	select {
	case <-ctx.Done():
		return watch.FetchResponse{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return watch.FetchResponse{}, fmt.Errorf("visit product page: %w", err)
		}
		if fetchErr != nil {
			return watch.FetchResponse{}, fmt.Errorf("product page response: %w", fetchErr)
		}
	}
	return result, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
