// Package metrics exposes Prometheus metrics for the request pipeline,
// notifications and navigation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// Request pipeline metrics
var (
	// RequestsTotal tracks pipeline requests by method and outcome
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railconsole_requests_total",
			Help: "Total backend requests by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	// RequestDuration tracks backend request latency in seconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railconsole_request_duration_seconds",
			Help:    "Backend request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)
)

// Notification metrics
var (
	// NotificationsTotal tracks dispatched notifications by level
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railconsole_notifications_total",
			Help: "Total notifications dispatched by level",
		},
		[]string{"level"},
	)

	// NotificationStreams tracks open browser notification streams
	NotificationStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "railconsole_notification_streams_current",
			Help: "Number of open browser notification streams",
		},
	)
)

// Navigation metrics
var (
	// NavigationsTotal tracks guarded navigation attempts by outcome
	NavigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railconsole_navigations_total",
			Help: "Total navigation attempts by outcome (proceed/redirect/error)",
		},
		[]string{"outcome"},
	)

	// NavigationDuration tracks how long navigation attempts take in seconds
	NavigationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "railconsole_navigation_duration_seconds",
			Help:    "Navigation attempt duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)
)

// Observer records pipeline and navigation outcomes. It satisfies the
// observer interfaces of pkg/httpclient and internal/navigation.
type Observer struct{}

// ObserveRequest records one backend request.
func (Observer) ObserveRequest(method, outcome string, d time.Duration) {
	RequestsTotal.WithLabelValues(method, outcome).Inc()
	RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveNavigation records one navigation attempt.
func (Observer) ObserveNavigation(outcome string, d time.Duration) {
	NavigationsTotal.WithLabelValues(outcome).Inc()
	NavigationDuration.Observe(d.Seconds())
}

type countingDispatcher struct {
	next notify.Dispatcher
}

// Dispatcher wraps next so every dispatched notification is counted.
func Dispatcher(next notify.Dispatcher) notify.Dispatcher {
	return countingDispatcher{next: notify.OrDiscard(next)}
}

func (c countingDispatcher) Dispatch(notes ...notify.Notification) {
	for _, n := range notes {
		NotificationsTotal.WithLabelValues(string(n.Level)).Inc()
	}
	c.next.Dispatch(notes...)
}

func (c countingDispatcher) Dismiss(id string) {
	c.next.Dismiss(id)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
