package metrics

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("coursetutor.metrics")

// ScrapeTimeout bounds the database queries of a single collection.
const ScrapeTimeout = 30 * time.Second

type groupCount struct {
	Label string
	Count int
}

// countBy counts the rows of table grouped by column.
func countBy(ctx context.Context, s *store.Store, table, column string) ([]groupCount, error) {
	selector := s.Builder().
		Select(column, entsql.Count("*")).
		From(entsql.Table(table)).
		GroupBy(column).
		OrderBy(column)

	var results []groupCount
	err := store.QueryBuilt(ctx, s, selector, func(rows *entsql.Rows) error {
		var r groupCount
		if err := rows.Scan(&r.Label, &r.Count); err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})

	return results, err
}

// collectGroups emits one gauge per group, or an invalid metric on error.
func collectGroups(ch chan<- prometheus.Metric, span trace.Span, desc *prometheus.Desc, results []groupCount, err error) {
	if err != nil {
		span.SetStatus(otelcodes.Error, "Failed to collect")
		span.RecordError(err)

		ch <- prometheus.NewInvalidMetric(desc, err)
		return
	}

	span.SetStatus(otelcodes.Ok, "Collected successfully")

	for _, result := range results {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(result.Count), result.Label)
	}
}
