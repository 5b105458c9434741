package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertEvent(t *testing.T, s *store.Store, eventType string) {
	t.Helper()

	_, err := store.ExecBuilt(context.Background(), s, s.Builder().
		Insert("events").
		Columns("id", "type", "user_id", "payload", "triggered_at").
		Values(uuid.NewString(), eventType, "user-1", "{}", time.Now()))
	require.NoError(t, err)
}

func gaugesByLabel(t *testing.T, family *dto.MetricFamily) map[string]float64 {
	t.Helper()

	values := make(map[string]float64)
	for _, m := range family.Metric {
		require.Len(t, m.Label, 1)
		values[m.Label[0].GetValue()] = m.Gauge.GetValue()
	}

	return values
}

func TestEventCollector_Collect(t *testing.T) {
	s := testhelper.NewStore(t)

	for range 3 {
		insertEvent(t, s, "login")
	}
	for range 5 {
		insertEvent(t, s, "quiz_completed")
	}
	for range 2 {
		insertEvent(t, s, "logout")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(NewEventCollector(s))

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)

	family := families[0]
	assert.Equal(t, "coursetutor_events_total", family.GetName())
	assert.Equal(t, "Total number of events", family.GetHelp())

	values := gaugesByLabel(t, family)
	assert.Equal(t, 3.0, values["login"])
	assert.Equal(t, 5.0, values["quiz_completed"])
	assert.Equal(t, 2.0, values["logout"])
}

func TestEventCollector_Collect_EmptyDatabase(t *testing.T) {
	s := testhelper.NewStore(t)

	registry := prometheus.NewRegistry()
	registry.MustRegister(NewEventCollector(s))

	families, err := registry.Gather()
	require.NoError(t, err, "Gather should not error even with empty database")
	require.Empty(t, families)
}

func TestEventCollector_Describe(t *testing.T) {
	ch := make(chan *prometheus.Desc, 1)
	NewEventCollector(nil).Describe(ch)
	close(ch)

	desc := <-ch
	require.NotNil(t, desc)
	assert.Contains(t, desc.String(), "coursetutor_events_total")
}

func TestRecordEvent(t *testing.T) {
	before := testutil.ToFloat64(EventTotal.WithLabelValues("enrolled"))
	RecordEvent("enrolled")
	assert.Equal(t, before+1, testutil.ToFloat64(EventTotal.WithLabelValues("enrolled")))
}

func TestRecordQuizAnswer(t *testing.T) {
	beforeTrue := testutil.ToFloat64(QuizAnswerTotal.WithLabelValues("true"))
	beforeFalse := testutil.ToFloat64(QuizAnswerTotal.WithLabelValues("false"))

	RecordQuizAnswer(true)
	RecordQuizAnswer(false)
	RecordQuizAnswer(false)

	assert.Equal(t, beforeTrue+1, testutil.ToFloat64(QuizAnswerTotal.WithLabelValues("true")))
	assert.Equal(t, beforeFalse+2, testutil.ToFloat64(QuizAnswerTotal.WithLabelValues("false")))
}

func TestEnrollmentCollector_EmitsBothStatuses(t *testing.T) {
	s := testhelper.NewStore(t)

	expected := `
# HELP coursetutor_enrollments_total Total number of enrollments by completion status
# TYPE coursetutor_enrollments_total gauge
coursetutor_enrollments_total{status="completed"} 0
coursetutor_enrollments_total{status="in_progress"} 0
`
	require.NoError(t, testutil.CollectAndCompare(NewEnrollmentCollector(s), strings.NewReader(expected)))
}
