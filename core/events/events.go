// Package events defines the event types published on the internal bus.
package events

import "time"

// OrderSubmitted is published when a new order enters the dispatcher.
type OrderSubmitted struct {
	OrderID  int64
	Drink    string
	Priority float64
}

// OrderAssigned is published when an order is handed to a barista.
type OrderAssigned struct {
	OrderID   int64
	BaristaID int64
	Forced    bool
}

// OrderCompleted is published when an order finishes, either by the
// completion timer or manually.
type OrderCompleted struct {
	OrderID     int64
	BaristaID   int64
	WaitMinutes float64
}

// Alert carries an operator-facing alert line.
type Alert struct {
	Message string
	Time    time.Time
}

// ComplaintRaised is published after an automatic timeout complaint has been
// synthesized for an order.
type ComplaintRaised struct {
	OrderID int64
	Barista string
}
