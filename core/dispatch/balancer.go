package dispatch

import (
	"sort"

	"github.com/espressobar/brewsched/core/model"
)

// Workload thresholds relative to the pool average.
const (
	OverloadedThreshold    = 1.2
	UnderutilizedThreshold = 0.8
	// ShortOrderMinutes is the longest preparation an overloaded barista
	// still accepts.
	ShortOrderMinutes = 3
)

// Load pairs a barista with its pending minutes of non-completed work.
type Load struct {
	Barista        *model.Barista
	PendingMinutes int
}

// SelectBarista picks the barista that should take an order with the given
// preparation time. Candidates are the available baristas ranked ascending by
// pending minutes; the average is taken over the whole pool. Overloaded
// baristas (ratio > 1.2) only accept short orders, underutilized ones
// (ratio < 0.8) and normally loaded ones accept anything. If no candidate is
// accepted the least-loaded available barista is returned so that balancing
// heuristics never starve an order. Returns nil only when nobody is
// available.
func SelectBarista(prepMinutes int, loads []Load) *model.Barista {
	if len(loads) == 0 {
		return nil
	}
	total := 0
	for _, l := range loads {
		total += l.PendingMinutes
	}
	avg := float64(total) / float64(len(loads))

	var avail []Load
	for _, l := range loads {
		if l.Barista.Available {
			avail = append(avail, l)
		}
	}
	if len(avail) == 0 {
		return nil
	}
	sort.SliceStable(avail, func(i, j int) bool {
		return avail[i].PendingMinutes < avail[j].PendingMinutes
	})

	for _, l := range avail {
		ratio := 1.0
		if avg > 0 {
			ratio = float64(l.PendingMinutes) / avg
		}
		switch {
		case ratio > OverloadedThreshold:
			// Protect overloaded baristas from long jobs.
			if prepMinutes <= ShortOrderMinutes {
				return l.Barista
			}
		default:
			// Underutilized or normal load: accept anything.
			return l.Barista
		}
	}
	// No ideal match; least loaded keeps the queue moving.
	return avail[0].Barista
}
