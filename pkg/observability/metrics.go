package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricStylesheetsTotal   = "squeaky.stylesheets.total"
	metricStylesheetDuration = "squeaky.stylesheet.duration.seconds"
	metricNamespacedTotal    = "squeaky.selectors.namespaced.total"
	metricRewritesTotal      = "squeaky.files.rewritten.total"
	metricConflictsTotal     = "squeaky.conflicts.total"
	metricMismatchesTotal    = "squeaky.verify.mismatches.total"
	metricErrorsTotal        = "squeaky.errors.total"

	attrStatus = "status"

	statusOK    = "ok"
	statusError = "error"
)

// durationBucketBoundaries covers 1ms to 60s; one stylesheet rarely takes
// longer unless reference searches walk a large tree.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// RunMetrics holds the OTel instruments for one command run.
type RunMetrics struct {
	command            string
	stylesheetsTotal   metric.Int64Counter
	stylesheetDuration metric.Float64Histogram
	namespacedTotal    metric.Int64Counter
	rewritesTotal      metric.Int64Counter
	conflictsTotal     metric.Int64Counter
	mismatchesTotal    metric.Int64Counter
	errorsTotal        metric.Int64Counter
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter, command string) (*RunMetrics, error) {
	rm := &RunMetrics{command: command}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&rm.stylesheetsTotal, metricStylesheetsTotal, "Stylesheets processed", "{stylesheet}"},
		{&rm.namespacedTotal, metricNamespacedTotal, "Selectors namespaced", "{selector}"},
		{&rm.rewritesTotal, metricRewritesTotal, "Referencing files rewritten", "{file}"},
		{&rm.conflictsTotal, metricConflictsTotal, "Declaration conflicts found", "{conflict}"},
		{&rm.mismatchesTotal, metricMismatchesTotal, "Class names defined or used but not both", "{name}"},
		{&rm.errorsTotal, metricErrorsTotal, "Stylesheets that failed", "{error}"},
	}

	for _, c := range counters {
		counter, err := mt.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}

		*c.dst = counter
	}

	duration, err := mt.Float64Histogram(metricStylesheetDuration,
		metric.WithDescription("Per-stylesheet processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricStylesheetDuration, err)
	}

	rm.stylesheetDuration = duration

	return rm, nil
}

// RecordStylesheet records one processed stylesheet.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordStylesheet(ctx context.Context, duration time.Duration, err error) {
	if rm == nil {
		return
	}

	status := statusOK
	if err != nil {
		status = statusError
	}

	attrs := metric.WithAttributes(
		attribute.String(attrCommand, rm.command),
		attribute.String(attrStatus, status),
	)

	rm.stylesheetsTotal.Add(ctx, 1, attrs)
	rm.stylesheetDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCommand, rm.command)))
	}
}

// AddNamespaced counts namespaced selectors.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) AddNamespaced(ctx context.Context, n int) {
	if rm == nil {
		return
	}

	rm.add(ctx, rm.namespacedTotal, n)
}

// AddRewrites counts rewritten referencing files.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) AddRewrites(ctx context.Context, n int) {
	if rm == nil {
		return
	}

	rm.add(ctx, rm.rewritesTotal, n)
}

// AddConflicts counts declaration conflicts.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) AddConflicts(ctx context.Context, n int) {
	if rm == nil {
		return
	}

	rm.add(ctx, rm.conflictsTotal, n)
}

// AddMismatches counts mismatched class names.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) AddMismatches(ctx context.Context, n int) {
	if rm == nil {
		return
	}

	rm.add(ctx, rm.mismatchesTotal, n)
}

func (rm *RunMetrics) add(ctx context.Context, counter metric.Int64Counter, n int) {
	counter.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrCommand, rm.command)))
}
