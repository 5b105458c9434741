package metrics

import (
	"context"

	"github.com/coursetutor/backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

var coursetutorCoursesTotalDesc = prometheus.NewDesc(
	"coursetutor_courses_total",
	"Total number of courses by difficulty",
	[]string{"difficulty"},
	nil,
)

type CourseCollector struct {
	store *store.Store
}

func NewCourseCollector(s *store.Store) *CourseCollector {
	return &CourseCollector{store: s}
}

func (c *CourseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- coursetutorCoursesTotalDesc
}

func (c *CourseCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), ScrapeTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "CourseCollector.Collect")
	defer span.End()

	results, err := countBy(ctx, c.store, "courses", "difficulty")
	collectGroups(ch, span, coursetutorCoursesTotalDesc, results, err)
}

var _ prometheus.Collector = (*CourseCollector)(nil)
