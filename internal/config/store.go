package config

import (
	"fmt"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store holds the live configuration snapshot. Notification channels
// read credentials through it at send time, so a reload takes effect
// without restarting the watcher. Staleness between rotation and reload
// is an explicit policy, not an accident of per-call environment reads.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore creates a Store seeded with the startup snapshot.
func NewStore(cfg Config) *Store {
	s := &Store{}
	s.current.Store(&cfg)
	return s
}

// Current returns the active configuration snapshot.
func (s *Store) Current() Config {
	return *s.current.Load()
}

// Replace swaps in a new snapshot.
func (s *Store) Replace(cfg Config) {
	s.current.Store(&cfg)
}

// WatchFile reloads the store whenever the config file changes. Edits
// that fail validation are logged and the previous snapshot is kept.
// A deployment configured purely from the environment has nothing to
// watch; passing an empty path is a no-op.
func (s *Store) WatchFile(path string, logger *zap.Logger) error {
	if path == "" {
		return nil
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			logger.Error("config reload rejected", zap.Error(err))
			return
		}
		s.Replace(cfg)
		logger.Info("configuration reloaded", zap.String("path", path))
	})
	v.WatchConfig()
	return nil
}
