package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Postback outcomes used as the "outcome" label.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "no_user_yet"
	OutcomeForbidden = "forbidden"
	OutcomeFailed    = "failed"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	postbacks  *prometheus.CounterVec
	reconciled prometheus.Counter
	deposits   *prometheus.CounterVec
}

// New registers the service collectors on a fresh registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		postbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postbacks_total",
			Help:      "Inbound broker postbacks by normalized event and outcome.",
		}, []string{"event", "outcome"}),
		reconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postbacks_reconciled_total",
			Help:      "Previously unmatched postbacks folded into a user.",
		}),
		deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposit_amount_total",
			Help:      "Sum of deposit amounts credited to users, by currency.",
		}, []string{"currency"}),
	}
	reg.MustRegister(
		m.postbacks,
		m.reconciled,
		m.deposits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObservePostback(event, outcome string) {
	if m == nil {
		return
	}
	switch event {
	case "registration", "deposit":
	case "":
		event = "unknown"
	default:
		event = "other"
	}
	m.postbacks.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) ObserveReconciled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconciled.Add(float64(n))
}

func (m *Metrics) ObserveDeposit(currency string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	if currency == "" {
		currency = "unknown"
	}
	m.deposits.WithLabelValues(currency).Add(amount)
}
