package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	modelRequestsTotal    *prometheus.CounterVec
	modelRequestDuration  *prometheus.HistogramVec
	flowRunsTotal         *prometheus.CounterVec
	flowDuration          *prometheus.HistogramVec
	flowFallbacksTotal    *prometheus.CounterVec
	pipelineDegradedTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribeflow_http_requests_total",
				Help: "Total number of HTTP requests handled.",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scribeflow_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		modelRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribeflow_model_requests_total",
				Help: "Total generative model API requests.",
			},
			[]string{"model", "status"},
		),
		modelRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scribeflow_model_request_duration_seconds",
				Help:    "Generative model API request duration in seconds.",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"model", "status"},
		),
		flowRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribeflow_flow_runs_total",
				Help: "Flow invocations by outcome.",
			},
			[]string{"flow", "outcome"},
		),
		flowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scribeflow_flow_duration_seconds",
				Help:    "Flow duration in seconds, including any fallback attempt.",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"flow", "outcome"},
		),
		flowFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribeflow_flow_fallbacks_total",
				Help: "Number of flow invocations retried against the fallback model.",
			},
			[]string{"flow"},
		),
		pipelineDegradedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribeflow_pipeline_degraded_total",
				Help: "Pipeline runs that returned a partial result, by failed stage.",
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.modelRequestsTotal,
		m.modelRequestDuration,
		m.flowRunsTotal,
		m.flowDuration,
		m.flowFallbacksTotal,
		m.pipelineDegradedTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "UNKNOWN"
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(route, method, statusLabel).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusLabel).Observe(duration.Seconds())
}

// ObserveModel records one Gemini API call. Status 0 means the call failed
// before an HTTP status was received.
func (m *Metrics) ObserveModel(model string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	statusLabel := strconv.Itoa(status)
	m.modelRequestsTotal.WithLabelValues(model, statusLabel).Inc()
	m.modelRequestDuration.WithLabelValues(model, statusLabel).Observe(duration.Seconds())
}

func (m *Metrics) ObserveFlow(flow, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.flowRunsTotal.WithLabelValues(flow, outcome).Inc()
	m.flowDuration.WithLabelValues(flow, outcome).Observe(duration.Seconds())
}

func (m *Metrics) IncFallback(flow string) {
	if m == nil {
		return
	}
	m.flowFallbacksTotal.WithLabelValues(flow).Inc()
}

func (m *Metrics) IncPipelineDegraded(stage string) {
	if m == nil {
		return
	}
	m.pipelineDegradedTotal.WithLabelValues(stage).Inc()
}
