package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
	require.NotNil(t, watchChecksTotal)
	require.NotNil(t, watchCheckDurationSeconds)
	require.NotNil(t, watchConsecutiveFailures)
	require.NotNil(t, watchNotificationsTotal)
	require.NotNil(t, watchNotificationErrorsTotal)
}

func TestObserveHelpersInitOnUse(t *testing.T) {
	ObserveCheck("unknown", 250*time.Millisecond)
	SetConsecutiveFailures(2)
	ObserveNotification("pushover", "in_stock")
	ObserveNotificationError("email")
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveCheck("out_of_stock", time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	for _, name := range []string{
		"stockwatch_checks_total",
		"stockwatch_check_duration_seconds",
		"stockwatch_consecutive_failures",
		"stockwatch_notifications_total",
		"stockwatch_notification_errors_total",
	} {
		require.Contains(t, string(body), name)
	}
}
