// Package metrics exposes Prometheus instruments for the checkout.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultFault   = "fault"
)

// CheckoutMetrics counts checkout attempts by result and times each stage.
// A nil *CheckoutMetrics is valid and records nothing.
type CheckoutMetrics struct {
	Attempts      *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the instruments on reg. Pass
// prometheus.NewRegistry() in tests to avoid clashing with the default
// registry.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flexorder",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by result and the stage that ended them.",
	}, []string{"result", "stage"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flexorder",
		Subsystem: "checkout",
		Name:      "stage_duration_ms",
		Help:      "Checkout stage latency in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"stage"})

	reg.MustRegister(attempts, duration)
	return &CheckoutMetrics{Attempts: attempts, StageDuration: duration}
}

// ObserveAttempt counts one finished attempt. stage is empty on success.
func (m *CheckoutMetrics) ObserveAttempt(result, stage string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(result, stage).Inc()
}

func (m *CheckoutMetrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(float64(elapsed.Microseconds()) / 1000)
}

// Handler serves the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
