package metrics

import (
	"context"

	"github.com/coursetutor/backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

var coursetutorQuizAttemptsTotalDesc = prometheus.NewDesc(
	"coursetutor_quiz_attempts_total",
	"Total number of finished quiz attempts by mastery level",
	[]string{"mastery"},
	nil,
)

// AttemptCollector exposes the stored quiz attempts grouped by mastery level.
type AttemptCollector struct {
	store *store.Store
}

func NewAttemptCollector(s *store.Store) *AttemptCollector {
	return &AttemptCollector{store: s}
}

func (c *AttemptCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- coursetutorQuizAttemptsTotalDesc
}

func (c *AttemptCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), ScrapeTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "AttemptCollector.Collect")
	defer span.End()

	results, err := countBy(ctx, c.store, "quiz_attempts", "mastery")
	collectGroups(ch, span, coursetutorQuizAttemptsTotalDesc, results, err)
}

var _ prometheus.Collector = (*AttemptCollector)(nil)
