package metrics

import "time"

// CompletionRecord represents one finished order to be recorded for
// observability purposes.
type CompletionRecord struct {
	OrderID     int64
	BaristaID   int64
	BaristaName string
	Drink       string
	WaitMinutes float64
	PrepMinutes int
	Priority    float64
	Timeout     bool
	CompletedAt time.Time
}

// CompletionSink records completed orders.
type CompletionSink interface {
	RecordCompletions(recs []CompletionRecord) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordCompletions([]CompletionRecord) error { return nil }
