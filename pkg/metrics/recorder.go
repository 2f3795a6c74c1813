// Package metrics provides Prometheus metrics recording and querying for
// turn processing and LLM usage.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder observes turn, extraction, retrieval, and LLM request events.
type Recorder interface {
	ObserveTurn(action, status string)
	ObserveFallback(reason string)
	ObserveRetrieval(status string, chunks int)
	ObserveLLMRequest(model, component string, promptTokens, completionTokens int, err string, duration time.Duration)
}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	turnsTotal      *prometheus.CounterVec
	fallbacksTotal  *prometheus.CounterVec
	retrievalsTotal *prometheus.CounterVec
	retrievedChunks prometheus.Histogram
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a Prometheus-backed recorder. Metrics are
// registered on the default registry; create at most one per process.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		turnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmbot_turns_total",
				Help: "Total number of processed turns by action and status",
			},
			[]string{"action", "status"},
		),
		fallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmbot_intent_fallbacks_total",
				Help: "Total number of intent extractions that fell back to general chat",
			},
			[]string{"reason"},
		),
		retrievalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmbot_retrievals_total",
				Help: "Total number of retrieval queries by status",
			},
			[]string{"status"},
		),
		retrievedChunks: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pmbot_retrieved_chunks",
				Help:    "Number of chunks returned per retrieval query",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by model, component, and status",
			},
			[]string{"model", "component", "status", "error_type"},
		),
		tokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in LLM requests",
			},
			[]string{"model", "component", "type"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "component"},
		),
	}
}

// ObserveTurn records a completed turn.
func (p *PrometheusRecorder) ObserveTurn(action, status string) {
	p.turnsTotal.WithLabelValues(action, status).Inc()
}

// ObserveFallback records an extraction fallback with its reason.
func (p *PrometheusRecorder) ObserveFallback(reason string) {
	p.fallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveRetrieval records a retrieval query outcome.
func (p *PrometheusRecorder) ObserveRetrieval(status string, chunks int) {
	p.retrievalsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		p.retrievedChunks.Observe(float64(chunks))
	}
}

// ObserveLLMRequest records metrics for a completed LLM request.
func (p *PrometheusRecorder) ObserveLLMRequest(model, component string, promptTokens, completionTokens int, errType string, duration time.Duration) {
	status := "success"
	if errType != "" {
		status = "error"
	}
	p.requestsTotal.WithLabelValues(model, component, status, errType).Inc()
	if errType == "" {
		p.tokensTotal.WithLabelValues(model, component, "prompt").Add(float64(promptTokens))
		p.tokensTotal.WithLabelValues(model, component, "completion").Add(float64(completionTokens))
	}
	p.requestDuration.WithLabelValues(model, component).Observe(duration.Seconds())
}

// NopRecorder discards all observations. Useful in tests.
type NopRecorder struct{}

func (NopRecorder) ObserveTurn(string, string)        {}
func (NopRecorder) ObserveFallback(string)            {}
func (NopRecorder) ObserveRetrieval(string, int)      {}
func (NopRecorder) ObserveLLMRequest(string, string, int, int, string, time.Duration) {
}
