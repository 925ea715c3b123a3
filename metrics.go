package highlight

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("langtree.highlight")
	meter  = otel.Meter("langtree.highlight")
)

var (
	capturePulls   metric.Int64Counter
	linesTotal     metric.Int64Counter
	staleIterators metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		capturePulls, err = meter.Int64Counter(
			"highlight_capture_pulls_total",
			metric.WithDescription("Total number of captures pulled from highlight queries"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		linesTotal, err = meter.Int64Counter(
			"highlight_lines_total",
			metric.WithDescription("Total number of lines highlighted"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		staleIterators, err = meter.Int64Counter(
			"highlight_stale_iterators_total",
			metric.WithDescription("Total number of iteration states dropped because their tree left the forest"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordLine(ctx context.Context, pulls int) {
	if err := initMetrics(); err != nil {
		return
	}
	linesTotal.Add(ctx, 1)
	if pulls > 0 {
		capturePulls.Add(ctx, int64(pulls))
	}
}

func recordStaleIterator(ctx context.Context, language string) {
	if err := initMetrics(); err != nil {
		return
	}
	staleIterators.Add(ctx, 1, metric.WithAttributes(attribute.String("language", language)))
}

// startEpochSpan creates a span for the start of a redraw epoch.
// The caller must call span.End().
func startEpochSpan(ctx context.Context, language string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Highlighter.OnRedrawEpochStart",
		trace.WithAttributes(attribute.String("highlight.language", language)),
	)
}
