package events

import (
	"context"
	"log/slog"

	"github.com/posthog/posthog-go"
)

// PostHogReporter forwards every event to PostHog.
type PostHogReporter struct {
	client posthog.Client
}

func NewPostHogReporter(client posthog.Client) *PostHogReporter {
	return &PostHogReporter{client: client}
}

func (r *PostHogReporter) HandleEvent(ctx context.Context, event Record) error {
	properties := posthog.NewProperties()
	for key, value := range event.Payload {
		properties.Set(key, value)
	}

	slog.Debug("sending event to PostHog", "event_type", event.Type, "user_id", event.UserID)

	return r.client.Enqueue(posthog.Capture{
		DistinctId: event.UserID,
		Event:      string(event.Type),
		Timestamp:  event.TriggeredAt,
		Properties: properties,
	})
}

var (
	_ EventHandler = (*PostHogReporter)(nil)
	_ EventHandler = (*PointsGranter)(nil)
)
