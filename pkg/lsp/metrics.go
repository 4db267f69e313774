package lsp

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "knotls"

// Metrics holds the server's prometheus collectors. Each Metrics owns its
// registry so several servers can live in one process. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	tokenizerDuration *prometheus.HistogramVec
	unmappedKinds     *prometheus.CounterVec
	tokensEncoded     *prometheus.CounterVec
	openDocuments     prometheus.GaugeFunc
}

func NewMetrics(documents *DocumentStore) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "LSP requests and notifications handled, by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	m.tokenizerDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "tokenizer_duration_seconds",
			Help:      "Time spent waiting on the external tokenizer",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"dialect", "outcome"},
	)

	m.unmappedKinds = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unmapped_token_kinds_total",
			Help:      "Token spans whose kind is missing from the dialect's kind table",
		},
		[]string{"dialect", "kind"},
	)

	m.tokensEncoded = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tokens_encoded_total",
			Help:      "Semantic tokens encoded and sent to the editor",
		},
		[]string{"dialect"},
	)

	if documents != nil {
		m.openDocuments = factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "open_documents",
				Help:      "Documents currently open in the editor",
			},
			func() float64 { return float64(len(documents.URIs())) },
		)
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) observeRequest(method string, err error) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, outcome(err)).Inc()
}

func (m *Metrics) observeTokenizer(dialect string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.tokenizerDuration.WithLabelValues(dialect, outcome(err)).Observe(took.Seconds())
}

func (m *Metrics) unmappedKind(dialect, kind string) {
	if m == nil {
		return
	}
	m.unmappedKinds.WithLabelValues(dialect, kind).Inc()
}

func (m *Metrics) encoded(dialect string, dataLen int) {
	if m == nil {
		return
	}
	m.tokensEncoded.WithLabelValues(dialect).Add(float64(dataLen / 5))
}
