package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrail_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecotrail_api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Dispatcher
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrail_commands_total",
			Help: "Commands handled by the dispatcher, by command and result kind",
		},
		[]string{"command", "outcome"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecotrail_command_duration_seconds",
			Help:    "Duration of dispatched commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// Ledger
	ActionCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrail_action_completions_total",
			Help: "Eco-action completion attempts by outcome",
		},
		[]string{"outcome"}, // "success", "already_completed", "error"
	)

	CompletionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecotrail_action_completion_conflicts_total",
			Help: "Completions rejected by the daily unique index after passing the existence check",
		},
	)

	// WebSocket
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecotrail_ws_connections_active",
			Help: "Currently open websocket connections",
		},
	)

	WSMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrail_ws_messages_total",
			Help: "Websocket frames by direction",
		},
		[]string{"direction"}, // "in", "out", "dropped"
	)
)

func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func RecordCommand(command, outcome string, duration time.Duration) {
	CommandsTotal.WithLabelValues(command, outcome).Inc()
	CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func RecordCompletion(outcome string) {
	ActionCompletions.WithLabelValues(outcome).Inc()
}

func RecordCompletionConflict() {
	CompletionConflicts.Inc()
}

func TrackWSConnection(open bool) {
	if open {
		WSConnectionsActive.Inc()
	} else {
		WSConnectionsActive.Dec()
	}
}

func RecordWSMessage(direction string) {
	WSMessagesTotal.WithLabelValues(direction).Inc()
}
