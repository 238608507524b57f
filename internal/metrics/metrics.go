package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"metaregistryCheck/internal/chain"
	"metaregistryCheck/internal/model"
)

// Metrics holds the Prometheus metrics for a checker run.
type Metrics struct {
	casesTotal   *prometheus.CounterVec
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// New creates and registers the metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		casesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metaregistry_check_cases_total",
			Help: "Conformance cases finished, labeled by suite, outcome and reason.",
		}, []string{"suite", "outcome", "reason"}),
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metaregistry_check_calls_total",
			Help: "View calls issued, labeled by contract, method and result.",
		}, []string{"contract", "method", "result"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "metaregistry_check_call_duration_seconds",
			Help:    "Latency of view calls including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"contract", "method"}),
	}
	reg.MustRegister(m.casesTotal, m.callsTotal, m.callDuration)
	return m
}

func (m *Metrics) ObserveCase(suite string, outcome model.Outcome, reason string) {
	if m == nil {
		return
	}
	m.casesTotal.WithLabelValues(suite, string(outcome), reason).Inc()
}

func (m *Metrics) ObserveCall(contract, method string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(contract, method, callResult(err)).Inc()
	m.callDuration.WithLabelValues(contract, method).Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func callResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case chain.IsRevert(err):
		return "revert"
	default:
		return "error"
	}
}
