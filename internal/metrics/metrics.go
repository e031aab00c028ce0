// Package metrics exposes Prometheus collectors for configuration synthesis
// and engine traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's collectors. A nil *Metrics records nothing.
type Metrics struct {
	syntheses       *prometheus.CounterVec
	validationFails *prometheus.CounterVec
	engineRequests  *prometheus.HistogramVec
	engineHealthy   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		syntheses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "experiments",
			Name:      "config_syntheses_total",
			Help:      "Synthesized configurations by recommender strategy, acquisition family and matched rules.",
		}, []string{"strategy", "family", "recommender_rule", "acquisition_rule"}),
		validationFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "experiments",
			Name:      "validation_failures_total",
			Help:      "Rejected synthesis requests by violated invariant.",
		}, []string{"invariant"}),
		engineRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "experiments",
			Name:      "engine_request_duration_seconds",
			Help:      "Latency of optimization engine requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "code"}),
		engineHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "experiments",
			Name:      "engine_available",
			Help:      "1 when the last engine health check succeeded.",
		}),
	}
	reg.MustRegister(m.syntheses, m.validationFails, m.engineRequests, m.engineHealthy)
	return m
}

// ObserveSynthesis counts one synthesized configuration.
func (m *Metrics) ObserveSynthesis(strategy, family, recommenderRule, acquisitionRule string) {
	if m == nil {
		return
	}
	m.syntheses.WithLabelValues(strategy, family, recommenderRule, acquisitionRule).Inc()
}

// ObserveValidationFailure counts one rejected request.
func (m *Metrics) ObserveValidationFailure(invariant string) {
	if m == nil {
		return
	}
	m.validationFails.WithLabelValues(invariant).Inc()
}

// ObserveEngineRequest records the latency of one engine call. A code of 0
// means the request never produced a response.
func (m *Metrics) ObserveEngineRequest(operation string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.engineRequests.WithLabelValues(operation, strconv.Itoa(code)).Observe(d.Seconds())
}

// SetEngineAvailable records the outcome of the last health check.
func (m *Metrics) SetEngineAvailable(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.engineHealthy.Set(1)
		return
	}
	m.engineHealthy.Set(0)
}
