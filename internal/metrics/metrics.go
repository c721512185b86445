// Package metrics defines the Prometheus instrumentation of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fxrates"

// Update outcome label values.
const (
	UpdateSuccess = "success"
	UpdateFailure = "failure"
)

// Metrics holds all collectors. Collectors are registered on the registry
// passed to NewMetricsWith so tests can use an isolated one.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RateUpdatesTotal       *prometheus.CounterVec
	RateUpdateDuration     prometheus.Histogram
	SnapshotCurrencies     prometheus.Gauge
	SnapshotLastSuccessUTC prometheus.Gauge

	ConversionsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors on a fresh registry that also carries the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the collectors on reg and exposes them from gatherer.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),

		RateUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_updates_total",
				Help:      "Total number of rate update runs by trigger and outcome",
			},
			[]string{"trigger", "status"},
		),

		RateUpdateDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rate_update_duration_seconds",
				Help:      "Duration of rate update runs in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		SnapshotCurrencies: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "snapshot_currencies",
				Help:      "Number of currencies in the last stored snapshot, base excluded",
			},
		),

		SnapshotLastSuccessUTC: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "snapshot_last_success_timestamp_seconds",
				Help:      "Unix time of the last successfully stored snapshot",
			},
		),

		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of conversion requests by outcome",
			},
			[]string{"outcome"},
		),

		gatherer: gatherer,
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status/100)+"xx").Inc()
}

// ObserveUpdate records the outcome of one update run. currencies is only
// used for successful runs.
func (m *Metrics) ObserveUpdate(trigger, status string, elapsed time.Duration, currencies int) {
	m.RateUpdatesTotal.WithLabelValues(trigger, status).Inc()
	m.RateUpdateDuration.Observe(elapsed.Seconds())
	if status == UpdateSuccess {
		m.SnapshotCurrencies.Set(float64(currencies))
		m.SnapshotLastSuccessUTC.SetToCurrentTime()
	}
}

// ObserveConversion counts one conversion request by outcome.
func (m *Metrics) ObserveConversion(outcome string) {
	m.ConversionsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
