package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected" // validation failure
	ResultError    = "error"    // store failure
)

var (
	// Point mutations
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_operations_total",
			Help: "Point charge/use operations by outcome",
		},
		[]string{"type", "result"}, // CHARGE|USE, ok|rejected|error
	)
	LockWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "point_lock_wait_seconds",
			Help:    "Time spent waiting for a user's lock.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)
	KnownUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "point_known_users",
			Help: "Users with a stored balance as of the last reconciliation sweep",
		},
	)

	// Reconciliation
	InconsistentUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_inconsistent_users",
			Help: "Users whose replayed history disagreed with their balance in the last sweep",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(OperationsTotal, LockWait, KnownUsers, InconsistentUsers, WorkerQueueDepth)
	})
}
