// Package simulator replays the dispatch policy against synthetic Poisson
// arrival streams. It shares no state with the live dispatcher: each trial
// owns its queue and simulated barista pool, and re-scores orders with the
// same priority engine the dispatcher uses.
package simulator

import (
	"sort"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/espressobar/brewsched/core/model"
	"github.com/espressobar/brewsched/core/priority"
)

// TrialResult aggregates one independent trial.
type TrialResult struct {
	Trial              int     `json:"trial"`
	TotalOrders        int     `json:"total_orders"`
	AverageWaitMinutes float64 `json:"average_wait_minutes"`
	Timeouts           int     `json:"timeouts"`
	Abandoned          int     `json:"abandoned"`
	BaristaOrders      []int   `json:"barista_orders"`
}

const (
	abandonWait  = 8 * time.Minute
	timeoutWait  = 10 * time.Minute
	rescoreEvery = 30 * time.Second
)

// Run executes trials independent simulations and returns one aggregate
// record per trial.
func Run(cfg Config, trials int) ([]TrialResult, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if trials <= 0 {
		trials = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]TrialResult, 0, trials)
	for i := 1; i <= trials; i++ {
		r := runTrial(cfg, rng)
		r.Trial = i
		results = append(results, r)
	}
	return results, nil
}

// simOrder mirrors the live order closely enough to be scored by the
// priority engine. Times are offsets from the trial epoch.
type simOrder struct {
	order   *model.Order
	arrival time.Duration
}

func runTrial(cfg Config, rng *rand.Rand) TrialResult {
	epoch := time.Unix(0, 0).UTC()
	horizon := time.Duration(cfg.HorizonMinutes) * time.Minute
	interArrival := distuv.Exponential{Rate: cfg.ArrivalRatePerMinute, Src: rng}

	// Pre-generate the Poisson arrival stream.
	var arrivals []*simOrder
	at := time.Duration(0)
	id := int64(0)
	for {
		at += time.Duration(interArrival.Rand() * float64(time.Minute))
		if at >= horizon {
			break
		}
		id++
		drink := drawDrink(cfg.Menu, rng)
		arrivals = append(arrivals, &simOrder{
			order: &model.Order{
				ID:              id,
				ArrivalTime:     epoch.Add(at),
				DrinkName:       drink.Name,
				PrepTimeMinutes: drink.PrepMinutes,
				LoyaltyTier:     1 + rng.Intn(model.MaxLoyaltyTier),
				RegularCustomer: rng.Float64() < cfg.RegularRatio,
				Status:          model.StatusQueued,
			},
			arrival: at,
		})
	}

	freeAt := make([]time.Duration, cfg.Baristas)
	counts := make([]int, cfg.Baristas)
	var queue []*simOrder
	var waits []float64
	timeouts, abandoned := 0, 0

	now := time.Duration(0)
	lastRescore := -rescoreEvery
	for len(arrivals) > 0 || len(queue) > 0 || anyWorking(freeAt, now) {
		// Admit arrivals.
		for len(arrivals) > 0 && arrivals[0].arrival <= now {
			queue = append(queue, arrivals[0])
			arrivals = arrivals[1:]
		}

		// Non-regular customers walk out after eight minutes; their wait
		// contributes a fixed eight minutes to the average.
		kept := queue[:0]
		for _, o := range queue {
			if !o.order.RegularCustomer && now-o.arrival >= abandonWait {
				waits = append(waits, abandonWait.Minutes())
				abandoned++
				continue
			}
			kept = append(kept, o)
		}
		queue = kept

		// Periodic re-scoring, identical formula to the live engine.
		if now-lastRescore >= rescoreEvery {
			simNow := epoch.Add(now)
			for _, o := range queue {
				o.order.Priority = priority.Score(o.order, simNow).Score
			}
			sort.SliceStable(queue, func(i, j int) bool {
				return queue[i].order.Priority > queue[j].order.Priority
			})
			lastRescore = now
		}

		// Ten-minute rule: force the order onto the least-busy barista
		// even if that barista is still working.
		kept = queue[:0]
		for _, o := range queue {
			if now-o.arrival < timeoutWait {
				kept = append(kept, o)
				continue
			}
			b := leastBusy(freeAt)
			start := now
			if freeAt[b] > start {
				start = freeAt[b]
			}
			waits = append(waits, (start - o.arrival).Minutes())
			timeouts++
			freeAt[b] = start + time.Duration(o.order.PrepTimeMinutes)*time.Minute
			counts[b]++
		}
		queue = kept

		// Greedy dispatch of the highest-priority orders to free baristas.
		for b := 0; b < cfg.Baristas && len(queue) > 0; b++ {
			if freeAt[b] > now {
				continue
			}
			o := queue[0]
			queue = queue[1:]
			waits = append(waits, (now - o.arrival).Minutes())
			freeAt[b] = now + time.Duration(o.order.PrepTimeMinutes)*time.Minute
			counts[b]++
		}

		// Jump to the next event boundary.
		next := now + time.Second
		if len(arrivals) > 0 && arrivals[0].arrival < next {
			next = arrivals[0].arrival
		}
		for _, f := range freeAt {
			if f > now && f < next {
				next = f
			}
		}
		now = next
	}

	avg := 0.0
	if len(waits) > 0 {
		avg = stat.Mean(waits, nil)
	}
	return TrialResult{
		TotalOrders:        len(waits),
		AverageWaitMinutes: round1(avg),
		Timeouts:           timeouts,
		Abandoned:          abandoned,
		BaristaOrders:      counts,
	}
}

func drawDrink(menu []DrinkSpec, rng *rand.Rand) DrinkSpec {
	r := rng.Float64()
	for _, d := range menu {
		if r <= d.Frequency {
			return d
		}
	}
	return menu[len(menu)-1]
}

func leastBusy(freeAt []time.Duration) int {
	b := 0
	for i := 1; i < len(freeAt); i++ {
		if freeAt[i] < freeAt[b] {
			b = i
		}
	}
	return b
}

func anyWorking(freeAt []time.Duration, now time.Duration) bool {
	for _, f := range freeAt {
		if f > now {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
