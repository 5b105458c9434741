package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/metrics"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/workers"
	"github.com/google/uuid"
)

// EventService is the service for triggering events.
type EventService struct {
	store *store.Store

	handlers []EventHandler
}

// NewEventService creates a new EventService running handlers after
// every stored event.
func NewEventService(s *store.Store, handlers ...EventHandler) *EventService {
	return &EventService{
		store:    s,
		handlers: handlers,
	}
}

// Event is the event to be triggered.
type Event struct {
	Type    EventType
	Payload map[string]any
	UserID  string
}

// Record is a stored event.
type Record struct {
	ID          string
	Type        EventType
	UserID      string
	Payload     map[string]any
	TriggeredAt time.Time
}

// EventHandler is the handler for the event.
//
// You can think it as the callback of the event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event Record) error
}

// TriggerEvent triggers an event in the background.
func (s *EventService) TriggerEvent(ctx context.Context, event Event) {
	// the request context is canceled once the response is written
	ctx = context.WithoutCancel(ctx)

	workers.Global.Go(func() {
		err := s.triggerEvent(ctx, event)
		if err != nil {
			slog.Error("failed to trigger event", "type", event.Type, "user_id", event.UserID, "error", err)
		}
	})
}

// triggerEvent triggers an event synchronously.
func (s *EventService) triggerEvent(ctx context.Context, event Event) error {
	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	record := Record{
		ID:          uuid.NewString(),
		Type:        event.Type,
		UserID:      event.UserID,
		Payload:     payload,
		TriggeredAt: time.Now(),
	}

	_, err = store.ExecBuilt(ctx, s.store, s.store.Builder().
		Insert("events").
		Columns("id", "type", "user_id", "payload", "triggered_at").
		Values(record.ID, string(record.Type), record.UserID, string(payloadBytes), record.TriggeredAt))
	if err != nil {
		return fmt.Errorf("store event: %w", err)
	}

	metrics.RecordEvent(string(event.Type))

	for _, handler := range s.handlers {
		if err := handler.HandleEvent(ctx, record); err != nil {
			return err
		}
	}

	return nil
}

// ListEvents returns the events of a user, newest first.
func (s *EventService) ListEvents(ctx context.Context, userID string, limit int) ([]Record, error) {
	selector := s.store.Builder().
		Select("id", "type", "user_id", "payload", "triggered_at").
		From(entsql.Table("events")).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("triggered_at"))
	if limit > 0 {
		selector.Limit(limit)
	}

	var records []Record
	err := store.QueryBuilt(ctx, s.store, selector, func(rows *entsql.Rows) error {
		var (
			r       Record
			typ     string
			payload string
		)
		if err := rows.Scan(&r.ID, &typ, &r.UserID, &payload, &r.TriggeredAt); err != nil {
			return err
		}
		r.Type = EventType(typ)
		if err := json.Unmarshal([]byte(payload), &r.Payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}

		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return records, nil
}
