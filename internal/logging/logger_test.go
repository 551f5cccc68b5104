package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		logger, err := New(level, "")
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, logger)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	t.Parallel()

	_, err := New("chatty", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chatty")
}

func TestNewWritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stockwatch.log")
	logger, err := New("info", path)
	require.NoError(t, err)

	logger.Info("file sink check")
	require.NoError(t, logger.Sync())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "file sink check")
}
