package metrics

import (
	"errors"

	coremetrics "github.com/espressobar/brewsched/core/metrics"
)

// MultiSink fans completion records out to several sinks.
type MultiSink struct {
	sinks []coremetrics.CompletionSink
}

func NewMultiSink(sinks ...coremetrics.CompletionSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordCompletions forwards to every sink and joins their errors.
func (m *MultiSink) RecordCompletions(recs []coremetrics.CompletionRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordCompletions(recs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
