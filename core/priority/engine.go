// Package priority computes order priority scores. All scoring is pure: the
// caller supplies the clock so the engine can be replayed offline by the
// simulator with identical results.
package priority

import (
	"fmt"
	"math"
	"time"

	"github.com/espressobar/brewsched/core/model"
)

// Weights of the four sub-scores. They sum to 1.
const (
	WeightWaitTime   = 0.40
	WeightComplexity = 0.25
	WeightLoyalty    = 0.10
	WeightUrgency    = 0.25
)

// Wait thresholds in minutes.
const (
	MaxWaitMinutes       = 10.0
	EmergencyWaitMinutes = 8.0
	CriticalWaitMinutes  = 9.0
)

// Fairness escalation parameters.
const (
	FairnessSkipThreshold = 3
	FairnessBoostPerSkip  = 15.0
)

// Result bundles a priority score with its human-readable breakdown. The
// explanation is a contractual output used for auditing, not incidental
// logging.
type Result struct {
	Score       float64
	Explanation string
}

// Score computes the priority of an order at the given time. The score is in
// [0,100]; each sub-score is normalized to [0,100] before weighting.
func Score(o *model.Order, now time.Time) Result {
	wait := o.WaitMinutes(now)

	waitScore := math.Min(100, wait/MaxWaitMinutes*100)
	complexityScore := complexity(o.PrepTimeMinutes)
	loyaltyScore := loyalty(o.LoyaltyTier, o.RegularCustomer)
	urgencyScore := Urgency(wait)

	base := WeightWaitTime*waitScore +
		WeightComplexity*complexityScore +
		WeightLoyalty*loyaltyScore +
		WeightUrgency*urgencyScore

	boost := FairnessBoost(o.SkipCount)
	score := math.Min(100, base+boost)

	expl := fmt.Sprintf(
		"Wait: %.1f (x0.40=%.1f) + Complexity: %.1f (x0.25=%.1f) + Loyalty: %.1f (x0.10=%.1f) + Urgency: %.1f (x0.25=%.1f)",
		waitScore, waitScore*WeightWaitTime,
		complexityScore, complexityScore*WeightComplexity,
		loyaltyScore, loyaltyScore*WeightLoyalty,
		urgencyScore, urgencyScore*WeightUrgency,
	)
	if boost > 0 {
		expl += fmt.Sprintf(" + Fairness: +%.1f", boost)
	}
	expl += fmt.Sprintf(" = %.1f", score)

	return Result{Score: score, Explanation: expl}
}

// complexity rewards quick wins: shorter preparations score higher.
func complexity(prepMinutes int) float64 {
	return (8.0 - float64(prepMinutes)) / 6.0 * 100
}

// loyalty gives regulars a 50-point base on top of the tier bonus, capped at
// 100.
func loyalty(tier int, regular bool) float64 {
	s := float64(tier) * 10
	if regular {
		s += 50
	}
	return math.Min(100, s)
}

// Urgency is piecewise in the wait. The boundary inequalities are load
// bearing: at wait=9 the score jumps to exactly 100, and at wait=8 the two
// adjacent branches both yield 75.
func Urgency(waitMinutes float64) float64 {
	switch {
	case waitMinutes >= CriticalWaitMinutes:
		return 100
	case waitMinutes >= EmergencyWaitMinutes:
		return 75 + (waitMinutes-8)*25
	case waitMinutes >= 6:
		return 25 + (waitMinutes-6)/2*50
	default:
		return waitMinutes / 6 * 25
	}
}

// FairnessBoost compensates orders that have been passed over more than the
// skip threshold allows.
func FairnessBoost(skipCount int) float64 {
	if skipCount <= FairnessSkipThreshold {
		return 0
	}
	return float64(skipCount-FairnessSkipThreshold) * FairnessBoostPerSkip
}
