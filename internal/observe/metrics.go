// Package observe provides the engine's observability primitives:
// OpenTelemetry metrics with a Prometheus exporter bridge.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all engine metrics.
const meterName = "github.com/fableroom/fableroom"

// turnBuckets defines histogram boundaries (in seconds) for turn lifetimes.
var turnBuckets = []float64{
	0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600,
}

// Metrics holds the metric instruments for the engine. All fields are safe
// for concurrent use.
type Metrics struct {
	// CommandsExecuted counts dispatched commands. Attributes: kind, status.
	CommandsExecuted metric.Int64Counter

	// NarrationRequests counts collaborator calls. Attribute: status.
	NarrationRequests metric.Int64Counter

	// TurnDuration tracks the lifetime of completed turns.
	TurnDuration metric.Float64Histogram

	// ActiveRooms tracks the number of registered rooms.
	ActiveRooms metric.Int64UpDownCounter
}

// NewMetrics creates the engine instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.CommandsExecuted, err = m.Int64Counter("fableroom.commands",
		metric.WithDescription("Total commands dispatched by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.NarrationRequests, err = m.Int64Counter("fableroom.narration.requests",
		metric.WithDescription("Total narration collaborator calls by status."),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("fableroom.turn.duration",
		metric.WithDescription("Lifetime of completed turns."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(turnBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveRooms, err = m.Int64UpDownCounter("fableroom.active_rooms",
		metric.WithDescription("Number of registered rooms."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordCommand records one command dispatch.
func (m *Metrics) RecordCommand(ctx context.Context, kind, status string) {
	m.CommandsExecuted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordNarration records one collaborator call.
func (m *Metrics) RecordNarration(ctx context.Context, status string) {
	m.NarrationRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}
