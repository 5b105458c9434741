package metrics

import (
	"context"

	"github.com/coursetutor/backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

var coursetutorEventsTotalDesc = prometheus.NewDesc(
	"coursetutor_events_total",
	"Total number of events",
	[]string{"type"},
	nil,
)

type EventCollector struct {
	store *store.Store
}

func NewEventCollector(s *store.Store) *EventCollector {
	return &EventCollector{store: s}
}

func (c *EventCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- coursetutorEventsTotalDesc
}

func (c *EventCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), ScrapeTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "EventCollector.Collect")
	defer span.End()

	results, err := countBy(ctx, c.store, "events", "type")
	collectGroups(ch, span, coursetutorEventsTotalDesc, results, err)
}

var _ prometheus.Collector = (*EventCollector)(nil)
