package metrics

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

var coursetutorEnrollmentsTotalDesc = prometheus.NewDesc(
	"coursetutor_enrollments_total",
	"Total number of enrollments by completion status",
	[]string{"status"},
	nil,
)

const (
	EnrollmentStatusCompleted  = "completed"
	EnrollmentStatusInProgress = "in_progress"
)

type EnrollmentCollector struct {
	store *store.Store
}

func NewEnrollmentCollector(s *store.Store) *EnrollmentCollector {
	return &EnrollmentCollector{store: s}
}

func (c *EnrollmentCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- coursetutorEnrollmentsTotalDesc
}

func (c *EnrollmentCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), ScrapeTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "EnrollmentCollector.Collect")
	defer span.End()

	var results []groupCount
	for _, status := range []struct {
		label string
		pred  *entsql.Predicate
	}{
		{EnrollmentStatusCompleted, entsql.NotNull("completed_at")},
		{EnrollmentStatusInProgress, entsql.IsNull("completed_at")},
	} {
		count, err := store.Count(ctx, c.store, c.store.Builder().
			Select(entsql.Count("*")).
			From(entsql.Table("enrollments")).
			Where(status.pred))
		if err != nil {
			collectGroups(ch, span, coursetutorEnrollmentsTotalDesc, nil, err)
			return
		}

		results = append(results, groupCount{Label: status.label, Count: count})
	}

	collectGroups(ch, span, coursetutorEnrollmentsTotalDesc, results, nil)
}

var _ prometheus.Collector = (*EnrollmentCollector)(nil)
