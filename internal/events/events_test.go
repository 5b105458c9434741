package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/coursetutor/backend/internal/workers"
	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []events.Record
	err     error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event events.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, event)
	return h.err
}

func TestTriggerEvent(t *testing.T) {
	s := testhelper.NewStore(t)
	handler := &recordingHandler{}
	service := events.NewEventService(s, handler)

	ctx, cancel := context.WithCancel(context.Background())
	service.TriggerEvent(ctx, events.Event{
		Type:    events.EventTypeEnrolled,
		UserID:  testUserID,
		Payload: map[string]any{events.PayloadCourseID: "course-1"},
	})
	// canceling the caller's context must not drop the event
	cancel()
	workers.Global.Wait()

	require.Len(t, handler.records, 1)
	assert.Equal(t, events.EventTypeEnrolled, handler.records[0].Type)
	assert.NotEmpty(t, handler.records[0].ID)

	stored, err := service.ListEvents(context.Background(), testUserID, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, events.EventTypeEnrolled, stored[0].Type)
	assert.Equal(t, "course-1", stored[0].Payload[events.PayloadCourseID])
}

func TestTriggerEvent_HandlerError(t *testing.T) {
	s := testhelper.NewStore(t)
	handler := &recordingHandler{err: errors.New("boom")}
	service := events.NewEventService(s, handler)

	service.TriggerEvent(context.Background(), events.Event{Type: events.EventTypeLogin, UserID: testUserID})
	workers.Global.Wait()

	// the event is stored even when a handler fails
	stored, err := service.ListEvents(context.Background(), testUserID, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestTriggerEvent_LoginGrantsPoints(t *testing.T) {
	s := testhelper.NewStore(t)
	service := events.NewEventService(s, events.NewPointsGranter(s, nil))

	service.TriggerEvent(context.Background(), events.Event{Type: events.EventTypeLogin, UserID: testUserID})
	workers.Global.Wait()

	_, total, err := events.ListPoints(context.Background(), s, testUserID)
	require.NoError(t, err)
	assert.Equal(t, events.PointValueDailyLogin, total)
}

type fakePostHog struct {
	posthog.Client

	messages []posthog.Message
}

func (f *fakePostHog) Enqueue(msg posthog.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

func TestPostHogReporter(t *testing.T) {
	client := &fakePostHog{}
	reporter := events.NewPostHogReporter(client)

	err := reporter.HandleEvent(context.Background(), events.Record{
		Type:    events.EventTypeQuizCompleted,
		UserID:  testUserID,
		Payload: map[string]any{events.PayloadMastery: "expert"},
	})
	require.NoError(t, err)

	require.Len(t, client.messages, 1)
	capture, ok := client.messages[0].(posthog.Capture)
	require.True(t, ok)
	assert.Equal(t, testUserID, capture.DistinctId)
	assert.Equal(t, "quiz_completed", capture.Event)
	assert.Equal(t, "expert", capture.Properties["mastery"])
}
