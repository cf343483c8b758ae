package metrics

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/espressobar/brewsched/core/logger"
	coremetrics "github.com/espressobar/brewsched/core/metrics"
)

// InfluxSink writes completion records as points to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxSink connects to InfluxDB and verifies it is reachable.
func NewInfluxSink(url, token, org, bucket string) (*InfluxSink, error) {
	client := influxdb2.NewClient(url, token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("influxdb not healthy: %s", health.Status)
	}
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
	}, nil
}

// NewInfluxSinkWithFallback returns an Influx sink, or a no-op sink when
// InfluxDB is unreachable so the dispatcher keeps running without it.
func NewInfluxSinkWithFallback(url, token, org, bucket string, log logger.Logger) coremetrics.CompletionSink {
	sink, err := NewInfluxSink(url, token, org, bucket)
	if err != nil {
		log.Warnf("InfluxDB unavailable, completion metrics disabled: %v", err)
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCompletions implements CompletionSink.
func (s *InfluxSink) RecordCompletions(recs []coremetrics.CompletionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, r := range recs {
		p := influxdb2.NewPoint("order_completion",
			map[string]string{
				"barista": r.BaristaName,
				"drink":   r.Drink,
			},
			map[string]interface{}{
				"order_id":     r.OrderID,
				"barista_id":   r.BaristaID,
				"wait_minutes": r.WaitMinutes,
				"prep_minutes": r.PrepMinutes,
				"priority":     r.Priority,
				"timeout":      r.Timeout,
			},
			r.CompletedAt,
		)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return fmt.Errorf("write completion point: %w", err)
		}
	}
	return nil
}

// Close releases the underlying InfluxDB client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
