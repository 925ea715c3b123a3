package languagetree

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("langtree.languagetree")
	meter  = otel.Meter("langtree.languagetree")
)

var (
	parseDuration    metric.Float64Histogram
	parseTotal       metric.Int64Counter
	childrenAdded    metric.Int64Counter
	childrenRemoved  metric.Int64Counter
	malformedMatches metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		parseDuration, err = meter.Float64Histogram(
			"languagetree_parse_duration_seconds",
			metric.WithDescription("Duration of language tree parses, injected languages included"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseTotal, err = meter.Int64Counter(
			"languagetree_parse_total",
			metric.WithDescription("Total number of language tree parses that were not served from cache"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		childrenAdded, err = meter.Int64Counter(
			"languagetree_children_added_total",
			metric.WithDescription("Total number of injected language trees created"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		childrenRemoved, err = meter.Int64Counter(
			"languagetree_children_removed_total",
			metric.WithDescription("Total number of injected language trees removed"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		malformedMatches, err = meter.Int64Counter(
			"languagetree_malformed_injection_matches_total",
			metric.WithDescription("Total number of skipped injection matches"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordParse records a parse of one node, its injected languages excluded.
func recordParse(ctx context.Context, language string, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.Bool("success", success),
	)
	parseDuration.Record(ctx, duration.Seconds(), attrs)
	parseTotal.Add(ctx, 1, attrs)
}

func recordChild(ctx context.Context, language string, added bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("language", language))
	if added {
		childrenAdded.Add(ctx, 1, attrs)
	} else {
		childrenRemoved.Add(ctx, 1, attrs)
	}
}

func recordMalformedMatch(ctx context.Context, language string) {
	if err := initMetrics(); err != nil {
		return
	}
	malformedMatches.Add(ctx, 1, metric.WithAttributes(attribute.String("language", language)))
}

// startParseSpan creates a span for the parse of one node.
// The caller must call span.End().
func startParseSpan(ctx context.Context, language string, rangeSets int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "LanguageTree.Parse",
		trace.WithAttributes(
			attribute.String("languagetree.language", language),
			attribute.Int("languagetree.range_sets", rangeSets),
		),
	)
}
