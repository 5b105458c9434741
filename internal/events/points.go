package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/store"
	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// startOfDay returns the start of the given day (midnight).
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// startOfToday returns the start of today (midnight).
func startOfToday() time.Time {
	return startOfDay(time.Now())
}

const (
	PointDescriptionDailyLogin      = "daily login"
	PointDescriptionWeeklyLogin     = "weekly login"
	PointDescriptionFirstCompletion = "first completion of quiz %s"
	PointDescriptionPerfectScore    = "perfect score on quiz %s"
)

const (
	PointValueDailyLogin      = 20
	PointValueWeeklyLogin     = 50
	PointValueFirstCompletion = 30
	PointValuePerfectScore    = 60
)

// PointsGranter determines if the criteria is met to grant points to a user.
type PointsGranter struct {
	store         *store.Store
	posthogClient posthog.Client
}

// NewPointsGranter creates a new PointsGranter. posthogClient may be nil.
func NewPointsGranter(s *store.Store, posthogClient posthog.Client) *PointsGranter {
	return &PointsGranter{
		store:         s,
		posthogClient: posthogClient,
	}
}

// HandleEvent handles the event creation.
func (d *PointsGranter) HandleEvent(ctx context.Context, event Record) error {
	switch event.Type {
	case EventTypeLogin:
		ok, err := d.GrantDailyLoginPoints(ctx, event.UserID)
		if err != nil {
			return fmt.Errorf("grant daily login points: %w", err)
		}
		if ok {
			slog.Info("granted daily login points", "user_id", event.UserID)
		}

		ok, err = d.GrantWeeklyLoginPoints(ctx, event.UserID)
		if err != nil {
			return fmt.Errorf("grant weekly login points: %w", err)
		}
		if ok {
			slog.Info("granted weekly login points", "user_id", event.UserID)
		}
	case EventTypeQuizCompleted:
		return d.handleQuizCompletedEvent(ctx, event)
	}

	return nil
}

func (d *PointsGranter) handleQuizCompletedEvent(ctx context.Context, event Record) error {
	quizID, ok := event.Payload[PayloadQuizID].(string)
	if !ok || quizID == "" {
		return fmt.Errorf("quiz_id not found in payload or has invalid type")
	}

	percentage, ok := payloadInt(event.Payload[PayloadPercentage])
	if !ok {
		return fmt.Errorf("percentage not found in payload or has invalid type")
	}

	ok, err := d.GrantFirstCompletionPoints(ctx, event.UserID, quizID)
	if err != nil {
		return fmt.Errorf("grant first completion points: %w", err)
	}
	if ok {
		slog.Info("granted first completion points", "user_id", event.UserID, "quiz_id", quizID)
	}

	if percentage < 100 {
		return nil
	}

	ok, err = d.GrantPerfectScorePoints(ctx, event.UserID, quizID)
	if err != nil {
		return fmt.Errorf("grant perfect score points: %w", err)
	}
	if ok {
		slog.Info("granted perfect score points", "user_id", event.UserID, "quiz_id", quizID)
	}

	return nil
}

// payloadInt reads an integer that may have gone through a JSON round trip.
func payloadInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// GrantDailyLoginPoints grants the "daily login" points to a user.
func (d *PointsGranter) GrantDailyLoginPoints(ctx context.Context, userID string) (bool, error) {
	today := startOfToday()

	// Check if we have granted the "daily login" points for this user today.
	hasPointsRecord, err := d.hasPoints(ctx, userID, PointDescriptionDailyLogin, today)
	if err != nil {
		return false, err
	}
	if hasPointsRecord {
		return false, nil
	}

	// Check if the user has logged in today.
	loginCount, err := store.Count(ctx, d.store, d.store.Builder().
		Select(entsql.Count("*")).
		From(entsql.Table("events")).
		Where(entsql.And(
			entsql.EQ("type", string(EventTypeLogin)),
			entsql.EQ("user_id", userID),
			entsql.GTE("triggered_at", today),
		)))
	if err != nil {
		return false, err
	}
	if loginCount == 0 {
		return false, nil
	}

	if err := d.grantPoint(ctx, userID, "", PointDescriptionDailyLogin, PointValueDailyLogin); err != nil {
		return false, err
	}

	return true, nil
}

// GrantWeeklyLoginPoints grants the "weekly login" points to a user
// who logged in on each of the last 7 days.
func (d *PointsGranter) GrantWeeklyLoginPoints(ctx context.Context, userID string) (bool, error) {
	sevenDaysAgo := startOfDay(time.Now().AddDate(0, 0, -6))

	hasPointsRecord, err := d.hasPoints(ctx, userID, PointDescriptionWeeklyLogin, sevenDaysAgo)
	if err != nil {
		return false, err
	}
	if hasPointsRecord {
		return false, nil
	}

	distinctLoginDays := make(map[time.Time]struct{})
	err = store.QueryBuilt(ctx, d.store, d.store.Builder().
		Select("triggered_at").
		From(entsql.Table("events")).
		Where(entsql.And(
			entsql.EQ("type", string(EventTypeLogin)),
			entsql.EQ("user_id", userID),
			entsql.GTE("triggered_at", sevenDaysAgo),
		)), func(rows *entsql.Rows) error {
		var triggeredAt time.Time
		if err := rows.Scan(&triggeredAt); err != nil {
			return err
		}
		distinctLoginDays[startOfDay(triggeredAt.In(time.Local))] = struct{}{}
		return nil
	})
	if err != nil {
		return false, err
	}

	if len(distinctLoginDays) != 7 {
		return false, nil
	}

	if err := d.grantPoint(ctx, userID, "", PointDescriptionWeeklyLogin, PointValueWeeklyLogin); err != nil {
		return false, err
	}

	return true, nil
}

// GrantFirstCompletionPoints grants the points for finishing a quiz
// for the first time, regardless of the score.
func (d *PointsGranter) GrantFirstCompletionPoints(ctx context.Context, userID, quizID string) (bool, error) {
	description := fmt.Sprintf(PointDescriptionFirstCompletion, quizID)

	hasPointsRecord, err := d.hasPoints(ctx, userID, description, time.Time{})
	if err != nil {
		return false, err
	}
	if hasPointsRecord {
		return false, nil
	}

	if err := d.grantPoint(ctx, userID, quizID, description, PointValueFirstCompletion); err != nil {
		return false, err
	}

	return true, nil
}

// GrantPerfectScorePoints grants the points for the first 100% score on a quiz.
func (d *PointsGranter) GrantPerfectScorePoints(ctx context.Context, userID, quizID string) (bool, error) {
	description := fmt.Sprintf(PointDescriptionPerfectScore, quizID)

	hasPointsRecord, err := d.hasPoints(ctx, userID, description, time.Time{})
	if err != nil {
		return false, err
	}
	if hasPointsRecord {
		return false, nil
	}

	if err := d.grantPoint(ctx, userID, quizID, description, PointValuePerfectScore); err != nil {
		return false, err
	}

	return true, nil
}

// hasPoints reports whether the user was granted description since the given time.
func (d *PointsGranter) hasPoints(ctx context.Context, userID, description string, since time.Time) (bool, error) {
	predicates := []*entsql.Predicate{
		entsql.EQ("user_id", userID),
		entsql.EQ("description", description),
	}
	if !since.IsZero() {
		predicates = append(predicates, entsql.GTE("granted_at", since))
	}

	count, err := store.Count(ctx, d.store, d.store.Builder().
		Select(entsql.Count("*")).
		From(entsql.Table("points")).
		Where(entsql.And(predicates...)))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (d *PointsGranter) grantPoint(ctx context.Context, userID, quizID, description string, points int) error {
	_, err := store.ExecBuilt(ctx, d.store, d.store.Builder().
		Insert("points").
		Columns("id", "user_id", "description", "points", "granted_at").
		Values(uuid.NewString(), userID, description, points, time.Now()))
	if err != nil {
		if d.posthogClient != nil {
			d.posthogClient.Enqueue(posthog.NewDefaultException(
				time.Now(), userID,
				"failed to grant point", err.Error(),
			))
		}

		return err
	}

	if d.posthogClient != nil {
		properties := posthog.NewProperties().
			Set("description", description).
			Set("points", points)

		if quizID != "" {
			properties.Set("quizID", quizID)
		}

		slog.Debug("sending event to PostHog", "event_type", EventTypeGrantPoint, "user_id", userID)

		d.posthogClient.Enqueue(posthog.Capture{
			DistinctId: userID,
			Event:      string(EventTypeGrantPoint),
			Timestamp:  time.Now(),
			Properties: properties,
		})
	}

	return nil
}

// Point is a granted points record.
type Point struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Points      int       `json:"points"`
	GrantedAt   time.Time `json:"grantedAt"`
}

// ListPoints returns the points of a user, newest first, with their total.
func ListPoints(ctx context.Context, s *store.Store, userID string) ([]Point, int, error) {
	var (
		points []Point
		total  int
	)

	err := store.QueryBuilt(ctx, s, s.Builder().
		Select("id", "description", "points", "granted_at").
		From(entsql.Table("points")).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("granted_at")), func(rows *entsql.Rows) error {
		var p Point
		if err := rows.Scan(&p.ID, &p.Description, &p.Points, &p.GrantedAt); err != nil {
			return err
		}
		points = append(points, p)
		total += p.Points
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list points: %w", err)
	}

	return points, total, nil
}
