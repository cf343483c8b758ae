package dispatch

import (
	"math"
	"time"

	"github.com/espressobar/brewsched/core/model"
	"github.com/espressobar/brewsched/core/priority"
)

// BaristaWorkload reports a barista's pending minutes and its ratio to the
// pool average.
type BaristaWorkload struct {
	Minutes int     `json:"minutes"`
	Ratio   float64 `json:"ratio"`
}

// Stats is an aggregate snapshot of the dispatcher.
type Stats struct {
	QueueSize          int                        `json:"queue_size"`
	CompletedCount     int                        `json:"completed_count"`
	AverageWaitMinutes float64                    `json:"average_wait_minutes"`
	TimeoutCount       int                        `json:"timeout_count"`
	BaristaWorkloads   map[string]BaristaWorkload `json:"barista_workloads"`
}

// BaristaStats is a per-barista detail snapshot.
type BaristaStats struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	OrdersCompleted int     `json:"orders_completed"`
	PendingMinutes  int     `json:"pending_minutes"`
	AvgTimePerOrder float64 `json:"avg_time_per_order"`
	WorkloadRatio   float64 `json:"workload_ratio"`
	Timeouts        int     `json:"timeouts"`
	Available       bool    `json:"available"`
}

// BaristaView is a read-only snapshot of a barista and its order history.
type BaristaView struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Available      bool          `json:"available"`
	BusyUntil      time.Time     `json:"busy_until"`
	PendingMinutes int           `json:"pending_minutes"`
	AssignedOrders []model.Order `json:"assigned_orders"`
}

// Stats returns an aggregate snapshot, optionally filtered by owner. Barista
// workloads are always pool-wide.
func (m *Manager) Stats(owner string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	queued := 0
	for _, id := range m.queue {
		if owner == "" || m.orders[id].Owner == owner {
			queued++
		}
	}

	var waits []float64
	timeouts := 0
	for _, id := range m.completed {
		o := m.orders[id]
		if owner != "" && o.Owner != owner {
			continue
		}
		w := m.completedWait(o)
		waits = append(waits, w)
		if w > priority.MaxWaitMinutes {
			timeouts++
		}
	}
	avg := 0.0
	if len(waits) > 0 {
		for _, w := range waits {
			avg += w
		}
		avg /= float64(len(waits))
	}

	avgLoad := m.avgPendingMinutes()
	workloads := make(map[string]BaristaWorkload, len(m.baristas))
	for _, b := range m.baristas {
		mins := m.pendingMinutes(b)
		ratio := 1.0
		if avgLoad > 0 {
			ratio = round2(float64(mins) / avgLoad)
		}
		workloads[b.Name] = BaristaWorkload{Minutes: mins, Ratio: ratio}
	}

	return Stats{
		QueueSize:          queued,
		CompletedCount:     len(waits),
		AverageWaitMinutes: round1(avg),
		TimeoutCount:       timeouts,
		BaristaWorkloads:   workloads,
	}
}

// BaristaStats returns per-barista detail snapshots.
func (m *Manager) BaristaStats() []BaristaStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	avgLoad := m.avgPendingMinutes()
	out := make([]BaristaStats, 0, len(m.baristas))
	for _, b := range m.baristas {
		mins := m.pendingMinutes(b)
		avgPerOrder := 0.0
		if b.OrdersComplete > 0 {
			avgPerOrder = round1(float64(b.WorkedMinutes) / float64(b.OrdersComplete))
		}
		ratio := 1.0
		if avgLoad > 0 {
			ratio = round2(float64(mins) / avgLoad)
		}
		timeouts := 0
		for _, id := range m.completed {
			o := m.orders[id]
			if o.AssignedBaristaID == b.ID && m.completedWait(o) > priority.MaxWaitMinutes {
				timeouts++
			}
		}
		out = append(out, BaristaStats{
			ID:              b.ID,
			Name:            b.Name,
			OrdersCompleted: b.OrdersComplete,
			PendingMinutes:  mins,
			AvgTimePerOrder: avgPerOrder,
			WorkloadRatio:   ratio,
			Timeouts:        timeouts,
			Available:       b.Available,
		})
	}
	return out
}

func (m *Manager) avgPendingMinutes() float64 {
	total := 0
	for _, b := range m.baristas {
		total += m.pendingMinutes(b)
	}
	return float64(total) / float64(len(m.baristas))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
