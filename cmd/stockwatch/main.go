// Package main wires together the stock watcher binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/stocksmart/stockwatch/internal/api"
	"github.com/stocksmart/stockwatch/internal/clock/system"
	"github.com/stocksmart/stockwatch/internal/config"
	"github.com/stocksmart/stockwatch/internal/fetcher/headless"
	"github.com/stocksmart/stockwatch/internal/fetcher/plain"
	"github.com/stocksmart/stockwatch/internal/logging"
	"github.com/stocksmart/stockwatch/internal/notify"
	"github.com/stocksmart/stockwatch/internal/watch"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := config.NewStore(cfg)
	if err := store.WatchFile(*cfgPath, logger.Named("config")); err != nil {
		logger.Warn("config reload watch disabled", zap.Error(err))
	}

	var fetcher watch.Fetcher
	switch cfg.Fetch.Mode {
	case config.FetchModePlain:
		fetcher = plain.New(plain.Config{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.NavTimeout(),
		})
	default:
		headlessFetcher := headless.New(headless.Config{
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: cfg.NavTimeout(),
		})
		defer headlessFetcher.Close()
		fetcher = headlessFetcher
	}

	notifier := notify.NewFanout(logger.Named("notify"),
		notify.NewPushover(store),
		notify.NewEmail(store),
	)

	watcher := watch.New(
		watch.Config{
			ProductURL:        cfg.ProductURL,
			Cookie:            watch.StoreCookie{Name: cfg.StoreCookie.Name, Value: cfg.StoreCookie.Value},
			PollInterval:      cfg.PollInterval(),
			MaxFailures:       cfg.MaxFailures,
			HeartbeatInterval: cfg.HeartbeatInterval(),
		},
		fetcher,
		notifier,
		system.New(),
		logger.Named("watch"),
	)

	var srv *http.Server
	if cfg.Server.Port > 0 {
		apiServer := api.NewServer(watcher, logger.Named("api"))
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           apiServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status server started", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server error", zap.Error(err))
			}
		}()
	}

	if err := watcher.Run(ctx); err != nil {
		logger.Error("watcher exited with error", zap.Error(err))
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("status server shutdown error", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
