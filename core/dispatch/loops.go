package dispatch

import (
	"context"
	"time"
)

// Run drives the two periodic sweeps until the context is canceled. Ticks are
// not cancellable mid-sweep: a tick either completes or the whole process is
// shutting down.
func (m *Manager) Run(ctx context.Context) {
	recalc := time.NewTicker(time.Duration(m.cfg.RecalcIntervalSeconds) * time.Second)
	defer recalc.Stop()
	completion := time.NewTicker(time.Duration(m.cfg.CompletionIntervalSeconds) * time.Second)
	defer completion.Stop()

	m.log.Infof("dispatcher running: recalc every %ds, completion check every %ds",
		m.cfg.RecalcIntervalSeconds, m.cfg.CompletionIntervalSeconds)
	for {
		select {
		case <-completion.C:
			m.CompletionTick()
		case <-recalc.C:
			m.Recalculate()
		case <-ctx.Done():
			return
		}
	}
}
