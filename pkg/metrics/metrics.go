package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement engine metrics, registered on the default registry and exposed
// on /metrics.
var (
	SettlementsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rune_settle",
		Name:      "settlements_submitted_total",
		Help:      "Settlement submissions accepted, by mode.",
	}, []string{"mode"})

	SettlementsTerminal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rune_settle",
		Name:      "settlements_terminal_total",
		Help:      "Settlements reaching a terminal status, by status and reason.",
	}, []string{"status", "reason"})

	ConfirmationPolls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rune_settle",
		Name:      "confirmation_polls_total",
		Help:      "Chain-query polls performed by the confirmation tracker.",
	})

	BatchWindowsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rune_settle",
		Name:      "batch_windows_closed_total",
		Help:      "Batch windows closed and dispatched for signing.",
	})

	BroadcastRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rune_settle",
		Name:      "broadcast_retries_total",
		Help:      "Transient broadcast failures that were retried.",
	})
)
