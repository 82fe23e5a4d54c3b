// Package metrics exposes the Prometheus surface supplemented in
// SPEC_FULL.md §C, grounded in the teacher's own internal/bot/metrics.go
// shape: counters for parsed/dropped blocks, commands executed by kind,
// algo orders started/cancelled/finished, and a histogram of scheduler
// poll-loop iteration counts. Register adds them to a registry; no code in
// this repository increments or sets them, so they are exported at their
// zero values.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BlocksParsed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "instabot",
		Subsystem: "parser",
		Name:      "blocks_parsed_total",
		Help:      "Command blocks successfully parsed out of an inbound message.",
	})

	BlocksDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "instabot",
		Subsystem: "parser",
		Name:      "blocks_dropped_total",
		Help:      "Malformed blocks or actions silently dropped during parsing.",
	})

	CommandsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instabot",
		Subsystem: "scheduler",
		Name:      "commands_executed_total",
		Help:      "Commands executed, labeled by command kind.",
	}, []string{"command"})

	AlgoOrdersStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "instabot",
		Subsystem: "scheduler",
		Name:      "algo_orders_started_total",
		Help:      "Algo orders registered in the algo-order registry.",
	})

	AlgoOrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "instabot",
		Subsystem: "scheduler",
		Name:      "algo_orders_cancelled_total",
		Help:      "Algo orders that received a cancellation request.",
	})

	AlgoOrdersFinished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "instabot",
		Subsystem: "scheduler",
		Name:      "algo_orders_finished_total",
		Help:      "Algo orders that reached Finished and were removed from the registry.",
	})

	PollLoopIterations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "instabot",
		Subsystem: "scheduler",
		Name:      "poll_loop_iterations",
		Help:      "Number of iterations a single command's polling loop ran before Finished.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250},
	})

	ExchangePoolRefcount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "instabot",
		Subsystem: "manager",
		Name:      "exchange_pool_refcount",
		Help:      "Current reference count of an open exchange, labeled by exchange name.",
	}, []string{"exchange"})
)

// Register wires every collector into reg (typically
// prometheus.DefaultRegisterer). Safe to call once at process startup.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		BlocksParsed,
		BlocksDropped,
		CommandsExecuted,
		AlgoOrdersStarted,
		AlgoOrdersCancelled,
		AlgoOrdersFinished,
		PollLoopIterations,
		ExchangePoolRefcount,
	)
}
