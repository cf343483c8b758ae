package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/espressobar/brewsched/core/metrics"
)

// PromSink records order completions in Prometheus metrics.
type PromSink struct {
	completions *prometheus.CounterVec
	wait        *prometheus.HistogramVec
}

// NewPromSink registers completion metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// StartPromServer.
func NewPromSink() (coremetrics.CompletionSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.CompletionSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	completions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "completion_events_total",
		Help: "Total number of completion events",
	}, []string{"barista", "timeout"})
	wait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "completion_wait_minutes",
		Help:    "Customer wait in minutes for completed orders",
		Buckets: []float64{1, 2, 4, 6, 8, 10, 12, 15},
	}, []string{"barista"})

	if err := reg.Register(completions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			completions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(wait); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			wait = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{completions: completions, wait: wait}, nil
}

// RecordCompletions implements CompletionSink.
func (s *PromSink) RecordCompletions(recs []coremetrics.CompletionRecord) error {
	for _, r := range recs {
		timeout := "false"
		if r.Timeout {
			timeout = "true"
		}
		s.completions.WithLabelValues(r.BaristaName, timeout).Inc()
		s.wait.WithLabelValues(r.BaristaName).Observe(r.WaitMinutes)
	}
	return nil
}

// StartPromServer exposes /metrics on addr until the context is canceled.
func StartPromServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("prom server shutdown: %v", err)
		}
		cancel()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
