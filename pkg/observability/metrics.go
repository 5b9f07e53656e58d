package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Collector collects the agent's own health metrics: scope traffic, stack
// corruption detections, and accumulator merges. It implements the tracker's
// Observer port.
type Collector struct {
	scopesPushed    metric.Int64Counter
	scopesPopped    metric.Int64Counter
	stackMismatches metric.Int64Counter
	statsMerged     metric.Int64Counter
	scopeDuration   metric.Float64Histogram
}

// NewCollector creates a new self-telemetry collector using the given meter
// provider.
func NewCollector(meterProvider metric.MeterProvider) (*Collector, error) {
	meter := meterProvider.Meter("tracekit")

	c := &Collector{}

	var err error

	c.scopesPushed, err = meter.Int64Counter(
		"tracekit_scopes_pushed_total",
		metric.WithDescription("Total number of traced operations entered"),
		metric.WithUnit("{scope}"),
	)
	if err != nil {
		return nil, err
	}

	c.scopesPopped, err = meter.Int64Counter(
		"tracekit_scopes_popped_total",
		metric.WithDescription("Total number of traced operations completed"),
		metric.WithUnit("{scope}"),
	)
	if err != nil {
		return nil, err
	}

	c.stackMismatches, err = meter.Int64Counter(
		"tracekit_stack_mismatches_total",
		metric.WithDescription("Total number of scope stack corruption detections"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	c.statsMerged, err = meter.Int64Counter(
		"tracekit_stats_buckets_merged_total",
		metric.WithDescription("Total number of metric buckets merged into the engine store"),
		metric.WithUnit("{bucket}"),
	)
	if err != nil {
		return nil, err
	}

	c.scopeDuration, err = meter.Float64Histogram(
		"tracekit_scope_duration_seconds",
		metric.WithDescription("Wall time of completed traced operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// ScopePushed records one scope entry.
func (c *Collector) ScopePushed() {
	c.scopesPushed.Add(context.Background(), 1)
}

// ScopePopped records one scope completion and its wall time.
func (c *Collector) ScopePopped(name string, elapsed time.Duration) {
	ctx := context.Background()
	c.scopesPopped.Add(ctx, 1)
	c.scopeDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("scope", name)))
}

// StackMismatch records one stack corruption detection.
func (c *Collector) StackMismatch() {
	c.stackMismatches.Add(context.Background(), 1)
}

// StatsMerged records buckets merged into the engine-wide store.
func (c *Collector) StatsMerged(buckets int) {
	c.statsMerged.Add(context.Background(), int64(buckets))
}
