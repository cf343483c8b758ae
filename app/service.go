package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/espressobar/brewsched/api/baristas"
	"github.com/espressobar/brewsched/api/ops"
	"github.com/espressobar/brewsched/api/orders"
	"github.com/espressobar/brewsched/config"
	"github.com/espressobar/brewsched/core/complaint"
	"github.com/espressobar/brewsched/core/dispatch"
	"github.com/espressobar/brewsched/core/events"
	coremetrics "github.com/espressobar/brewsched/core/metrics"
	infracomplaint "github.com/espressobar/brewsched/infra/complaint"
	"github.com/espressobar/brewsched/infra/logger"
	"github.com/espressobar/brewsched/infra/metrics"
	"github.com/espressobar/brewsched/internal/eventbus"
)

// Service orchestrates the dispatch manager, the HTTP API and the metric
// sinks.
type Service struct {
	Manager *dispatch.Manager

	cfg        *config.Config
	bus        *eventbus.Bus
	log        logger.Logger
	complaints complaint.Store
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var store complaint.Store
	switch cfg.Complaints.Backend {
	case "sqlite":
		s, err := infracomplaint.NewSQLiteStore(cfg.Complaints.Path)
		if err != nil {
			return nil, fmt.Errorf("complaint store: %w", err)
		}
		store = s
	default:
		store = complaint.NewMemoryStore()
	}

	var sinks []coremetrics.CompletionSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket, logg)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.CompletionSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	manager, err := dispatch.NewManager(cfg.Dispatch, store, sink, bus, logg)
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}

	return &Service{Manager: manager, cfg: cfg, bus: bus, log: logg, complaints: store}, nil
}

// Run starts the dispatcher loops and HTTP servers and blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Manager.Run(ctx)
	go s.watchEvents(ctx)

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	token := s.cfg.API.Token
	orderHandler := orders.NewHandler(s.Manager, token)
	baristaHandler := baristas.NewHandler(s.Manager, token)
	opsHandler := ops.NewHandler(s.Manager, s.complaints, s.cfg.Simulator, token)
	mux.Handle("/api/orders", orderHandler)
	mux.Handle("/api/orders/", orderHandler)
	mux.Handle("/api/baristas", baristaHandler)
	mux.Handle("/api/baristas/", baristaHandler)
	for _, p := range []string{"/api/stats", "/api/alerts", "/api/recalculate", "/api/complaints", "/api/simulate"} {
		mux.Handle(p, opsHandler)
	}

	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api server shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// watchEvents logs alert and complaint events published by the dispatcher.
func (s *Service) watchEvents(ctx context.Context) {
	ch := s.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case events.Alert:
				s.log.Warnf("alert: %s", e.Message)
			case events.ComplaintRaised:
				s.log.Warnf("auto complaint for order #%d", e.OrderID)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.complaints.Close()
}
