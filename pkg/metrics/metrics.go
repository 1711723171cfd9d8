// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMCallDuration tracks outbound provider call duration.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "AI provider call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"provider", "outcome"},
	)

	// LLMCallsTotal tracks outbound provider calls by outcome.
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Total AI provider calls",
		},
		[]string{"provider", "outcome"},
	)

	// DialogTurnsTotal tracks dialog turns by persona and outcome.
	DialogTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_turns_total",
			Help: "Total dialog turns processed",
		},
		[]string{"persona", "outcome"},
	)

	// DialogsFinishedTotal tracks dialogs that reached the finished state.
	DialogsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogs_finished_total",
			Help: "Total dialogs finished by the persona",
		},
		[]string{"persona"},
	)

	// CompilationsTotal tracks briefing compilations by outcome.
	CompilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefing_compilations_total",
			Help: "Total briefing compilations",
		},
		[]string{"persona", "outcome"},
	)

	// ConversationLockWait tracks time spent waiting for a conversation lock.
	ConversationLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversation_lock_wait_seconds",
			Help:    "Time spent waiting for the per-conversation lock",
			Buckets: []float64{.001, .01, .1, .5, 1, 5, 15, 30, 60},
		},
	)

	// BriefingsTotal tracks briefings created.
	BriefingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefings_total",
			Help: "Total briefings created",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for an outbound provider call.
func RecordLLMCall(provider, outcome string, duration float64) {
	LLMCallDuration.WithLabelValues(provider, outcome).Observe(duration)
	LLMCallsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordDialogTurn records the outcome of a dialog turn.
func RecordDialogTurn(persona, outcome string, finished bool) {
	DialogTurnsTotal.WithLabelValues(persona, outcome).Inc()
	if finished {
		DialogsFinishedTotal.WithLabelValues(persona).Inc()
	}
}

// RecordCompilation records the outcome of a briefing compilation.
func RecordCompilation(persona, outcome string) {
	CompilationsTotal.WithLabelValues(persona, outcome).Inc()
}
