// Package observability provides Prometheus metrics for the Breadcrumbs
// diagnostic assistant.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects application metrics: conversation turns, LLM request
// performance, tool execution patterns, and HTTP API latency.
//
// All methods are safe to call on a nil *Metrics, so components can treat
// metrics as optional.
type Metrics struct {
	// TurnCounter counts completed conversation turns.
	// Labels: outcome (answered|tool_round_trip|gateway_error)
	TurnCounter *prometheus.CounterVec

	// LLMRequestDuration measures model gateway call latency in seconds.
	// Labels: gateway
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts model gateway calls.
	// Labels: gateway, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// HTTPRequestDuration measures HTTP API request latency in seconds.
	// Labels: method, path, status_code
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the given registerer.
// Pass prometheus.DefaultRegisterer at application startup.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadcrumbs_turns_total",
				Help: "Total number of completed conversation turns by outcome",
			},
			[]string{"outcome"},
		),
		LLMRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breadcrumbs_llm_request_duration_seconds",
				Help:    "Duration of model gateway calls in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"gateway"},
		),
		LLMRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadcrumbs_llm_requests_total",
				Help: "Total number of model gateway calls by gateway and status",
			},
			[]string{"gateway", "status"},
		),
		ToolExecutionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadcrumbs_tool_executions_total",
				Help: "Total number of tool invocations by tool and status",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breadcrumbs_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breadcrumbs_http_request_duration_seconds",
				Help:    "Duration of HTTP API requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "path", "status_code"},
		),
	}
}

// ObserveTurn records a completed conversation turn.
func (m *Metrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.TurnCounter.WithLabelValues(outcome).Inc()
}

// ObserveLLMRequest records a model gateway call.
func (m *Metrics) ObserveLLMRequest(gateway string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.LLMRequestCounter.WithLabelValues(gateway, status).Inc()
	m.LLMRequestDuration.WithLabelValues(gateway).Observe(duration.Seconds())
}

// ObserveToolExecution records a tool invocation.
func (m *Metrics) ObserveToolExecution(toolName string, duration time.Duration, isError bool) {
	if m == nil {
		return
	}
	status := "success"
	if isError {
		status = "error"
	}
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// ObserveHTTPRequest records an HTTP API request.
func (m *Metrics) ObserveHTTPRequest(method, path, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration.Seconds())
}
