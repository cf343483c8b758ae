package model

import "time"

// Barista is a processing unit from the fixed pool. It holds ids into the
// dispatcher's order arena, never order copies. The assigned list only grows;
// history is retained for statistics.
type Barista struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	AssignedOrders []int64   `json:"assigned_orders"`
	Available      bool      `json:"available"`
	BusyUntil      time.Time `json:"busy_until"`
	OrdersComplete int       `json:"orders_completed"`
	WorkedMinutes  int       `json:"worked_minutes"`
}

// NewBarista creates an idle barista.
func NewBarista(id int64, name string) *Barista {
	return &Barista{ID: id, Name: name, Available: true}
}
