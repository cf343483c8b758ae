package model

import (
	"fmt"
	"time"
)

// Status tracks an order through its lifecycle. Transitions are strictly
// forward: Queued -> Assigned -> InProgress -> Completed.
type Status int

const (
	StatusQueued Status = iota
	StatusAssigned
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "QUEUED"
	case StatusAssigned:
		return "ASSIGNED"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// MarshalText renders the status name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "QUEUED":
		*s = StatusQueued
	case "ASSIGNED":
		*s = StatusAssigned
	case "IN_PROGRESS":
		*s = StatusInProgress
	case "COMPLETED":
		*s = StatusCompleted
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

const (
	MinPrepMinutes = 2
	MaxPrepMinutes = 8
	MinLoyaltyTier = 1
	MaxLoyaltyTier = 5
)

// Order is a unit of work routed through the dispatcher. The dispatcher owns
// the canonical instance in its arena map; baristas reference orders by id
// only.
type Order struct {
	ID              int64     `json:"id"`
	ArrivalTime     time.Time `json:"arrival_time"`
	DrinkName       string    `json:"drink_name"`
	PrepTimeMinutes int       `json:"prep_time_minutes"`
	LoyaltyTier     int       `json:"loyalty_tier"`
	RegularCustomer bool      `json:"regular_customer"`
	Owner           string    `json:"owner,omitempty"`

	Priority             float64   `json:"priority"`
	PriorityExplanation  string    `json:"priority_explanation"`
	SkipCount            int       `json:"skip_count"`
	AssignedBaristaID    int64     `json:"assigned_barista_id,omitempty"`
	Status               Status    `json:"status"`
	StartedAt            time.Time `json:"started_at,omitempty"`
	AutoComplaintRaised  bool      `json:"auto_complaint_raised"`
}

// NewOrder creates an order with clamped prep time and loyalty tier.
// Out-of-range inputs are a policy matter, not a validation failure.
func NewOrder(id int64, drink string, prepMinutes, tier int, regular bool, owner string, arrival time.Time) *Order {
	return &Order{
		ID:              id,
		ArrivalTime:     arrival,
		DrinkName:       drink,
		PrepTimeMinutes: clamp(prepMinutes, MinPrepMinutes, MaxPrepMinutes),
		LoyaltyTier:     clamp(tier, MinLoyaltyTier, MaxLoyaltyTier),
		RegularCustomer: regular,
		Owner:           owner,
		Status:          StatusQueued,
	}
}

// WaitMinutes returns how long the order has been waiting at the given time.
func (o *Order) WaitMinutes(now time.Time) float64 {
	return now.Sub(o.ArrivalTime).Minutes()
}

// PrepDuration returns the preparation time as a duration.
func (o *Order) PrepDuration() time.Duration {
	return time.Duration(o.PrepTimeMinutes) * time.Minute
}

// ReadyToComplete reports whether an in-progress order has cooked for its
// full preparation time.
func (o *Order) ReadyToComplete(now time.Time) bool {
	if o.Status != StatusInProgress || o.StartedAt.IsZero() {
		return false
	}
	return now.Sub(o.StartedAt) >= o.PrepDuration()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
