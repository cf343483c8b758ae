package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersSubmitted  prometheus.Counter
	ordersCompleted  *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	waitMinutes      prometheus.Histogram
	forceAssignments prometheus.Counter
	complaintsRaised prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, *prometheus.CounterVec, prometheus.Gauge, prometheus.Histogram, prometheus.Counter, prometheus.Counter) {
	sub := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_submitted_total",
		Help: "Number of orders submitted to the dispatcher",
	})
	comp := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Number of orders completed",
	}, []string{"barista"})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pending_queue_depth",
		Help: "Number of orders currently queued",
	})
	wait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_wait_minutes",
		Help:    "Minutes between order arrival and preparation start",
		Buckets: []float64{1, 2, 4, 6, 8, 9, 10, 12, 15},
	})
	force := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "force_assignments_total",
		Help: "Number of critical orders assigned outside balancing rules",
	})
	compl := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auto_complaints_total",
		Help: "Number of automatically raised timeout complaints",
	})
	return sub, comp, depth, wait, force, compl
}

func init() {
	ordersSubmitted, ordersCompleted, queueDepth, waitMinutes, forceAssignments, complaintsRaised = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatcher metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(ordersSubmitted, ordersCompleted, queueDepth, waitMinutes, forceAssignments, complaintsRaised)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	ordersSubmitted, ordersCompleted, queueDepth, waitMinutes, forceAssignments, complaintsRaised = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
