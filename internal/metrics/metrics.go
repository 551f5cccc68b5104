// Package metrics exposes Prometheus collectors for the watcher service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	watchChecksTotal             *prometheus.CounterVec
	watchCheckDurationSeconds    prometheus.Histogram
	watchConsecutiveFailures     prometheus.Gauge
	watchNotificationsTotal      *prometheus.CounterVec
	watchNotificationErrorsTotal *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call this
// function multiple times; the observe helpers call it themselves so a
// collector is never nil.
func Init() {
	once.Do(func() {
		watchChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_checks_total",
				Help: "Total number of check cycles, labeled by parsed status.",
			},
			[]string{"status"},
		)

		watchCheckDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockwatch_check_duration_seconds",
				Help:    "Histogram of full check cycle durations.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
		)

		watchConsecutiveFailures = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockwatch_consecutive_failures",
				Help: "Current count of consecutive unknown/error check cycles.",
			},
		)

		watchNotificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_notifications_total",
				Help: "Total notifications delivered, labeled by channel and kind.",
			},
			[]string{"channel", "kind"},
		)

		watchNotificationErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_notification_errors_total",
				Help: "Total notification sends that failed, labeled by channel.",
			},
			[]string{"channel"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveCheck records one completed check cycle.
func ObserveCheck(status string, duration time.Duration) {
	Init()
	watchChecksTotal.WithLabelValues(status).Inc()
	watchCheckDurationSeconds.Observe(duration.Seconds())
}

// SetConsecutiveFailures updates the failure counter gauge.
func SetConsecutiveFailures(n int) {
	Init()
	watchConsecutiveFailures.Set(float64(n))
}

// ObserveNotification increments the delivered notification counter.
func ObserveNotification(channel, kind string) {
	Init()
	watchNotificationsTotal.WithLabelValues(channel, kind).Inc()
}

// ObserveNotificationError increments the failed notification counter.
func ObserveNotificationError(channel string) {
	Init()
	watchNotificationErrorsTotal.WithLabelValues(channel).Inc()
}
