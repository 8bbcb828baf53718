package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts inbound messages by the stage they were handled in
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accommodator_messages_total",
			Help: "Total number of inbound chat messages",
		},
		[]string{"stage", "kind"},
	)

	// ReservationsTotal counts confirm attempts by outcome
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accommodator_reservations_total",
			Help: "Total number of reservation confirm attempts by outcome",
		},
		[]string{"outcome"},
	)

	// CommitConflicts counts storage-level commit conflicts that triggered a re-resolve
	CommitConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accommodator_commit_conflicts_total",
			Help: "Total number of reservation commits rejected by the store",
		},
	)

	// FlowFailures counts conversations reset by a collaborator failure
	FlowFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accommodator_flow_failures_total",
			Help: "Total number of conversations reset after an internal error",
		},
	)

	// CircuitBreakerState tracks breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accommodator_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)

	// DispatchQueueDepth tracks pending updates per dispatcher shard
	DispatchQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accommodator_dispatch_queue_depth",
			Help: "Number of queued updates per dispatcher worker",
		},
		[]string{"worker"},
	)
)
