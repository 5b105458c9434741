// Package enrollment tracks the courses a learner is taking and their
// progress through the lessons.
package enrollment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/metrics"
	"github.com/coursetutor/backend/internal/store"
	"github.com/google/uuid"
)

var (
	ErrNotEnrolled      = errors.New("not enrolled in this course")
	ErrLessonOutOfRange = errors.New("lesson index out of range")
)

// Enrollment is a learner's progress in a course. Completions are kept by
// lesson ID so they follow the lessons when the course is reordered.
type Enrollment struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	CourseID         string     `json:"courseId"`
	CompletedLessons []string   `json:"completedLessons"`
	CompletedIndexes []int      `json:"completedIndexes"`
	Progress         int        `json:"progress"`
	CurrentLesson    int        `json:"currentLesson"`
	StartedAt        time.Time  `json:"startedAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`

	currentLessonID string
}

// LessonLister returns the lesson IDs of a course in their current
// order, or an error when the course does not exist.
type LessonLister interface {
	LessonIDs(ctx context.Context, courseID string) ([]string, error)
}

type Service struct {
	store        *store.Store
	lessons      LessonLister
	eventService *events.EventService
}

func NewService(s *store.Store, lessons LessonLister, eventService *events.EventService) *Service {
	return &Service{
		store:        s,
		lessons:      lessons,
		eventService: eventService,
	}
}

var enrollmentColumns = []string{
	"id", "user_id", "course_id", "completed_lessons", "progress", "current_lesson_id", "started_at", "updated_at", "completed_at",
}

func scanEnrollment(rows *entsql.Rows) (Enrollment, error) {
	var (
		e           Enrollment
		completed   string
		completedAt sql.NullTime
	)
	if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &completed, &e.Progress, &e.currentLessonID, &e.StartedAt, &e.UpdatedAt, &completedAt); err != nil {
		return Enrollment{}, err
	}
	if err := json.Unmarshal([]byte(completed), &e.CompletedLessons); err != nil {
		return Enrollment{}, fmt.Errorf("unmarshal completed lessons: %w", err)
	}
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}

	return e, nil
}

// refresh recomputes the fields that depend on the current lesson list.
func (e *Enrollment) refresh(lessonIDs []string) {
	e.CompletedIndexes = []int{}
	for i, id := range lessonIDs {
		if slices.Contains(e.CompletedLessons, id) {
			e.CompletedIndexes = append(e.CompletedIndexes, i)
		}
	}

	e.Progress = Progress(e.CompletedLessons, lessonIDs)
	e.CurrentLesson = max(slices.Index(lessonIDs, e.currentLessonID), 0)
}

func (s *Service) query(ctx context.Context, pred *entsql.Predicate) ([]Enrollment, error) {
	enrollments := []Enrollment{}

	err := store.QueryBuilt(ctx, s.store, s.store.Builder().
		Select(enrollmentColumns...).
		From(entsql.Table("enrollments")).
		Where(pred).
		OrderBy(entsql.Desc("updated_at")), func(rows *entsql.Rows) error {
		e, err := scanEnrollment(rows)
		if err != nil {
			return err
		}

		enrollments = append(enrollments, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}

	// rows are closed here, so the lesson lookups do not nest
	for i := range enrollments {
		lessonIDs, err := s.lessons.LessonIDs(ctx, enrollments[i].CourseID)
		if err != nil {
			return nil, fmt.Errorf("lessons of course %s: %w", enrollments[i].CourseID, err)
		}
		enrollments[i].refresh(lessonIDs)
	}

	return enrollments, nil
}

// Get returns the enrollment of a user in a course.
func (s *Service) Get(ctx context.Context, userID, courseID string) (Enrollment, error) {
	enrollments, err := s.query(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("course_id", courseID),
	))
	if err != nil {
		return Enrollment{}, err
	}
	if len(enrollments) == 0 {
		return Enrollment{}, ErrNotEnrolled
	}

	return enrollments[0], nil
}

// ListByUser returns the enrollments of a user, most recently active
// first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Enrollment, error) {
	return s.query(ctx, entsql.EQ("user_id", userID))
}

// ListByCourse returns every enrollment in a course.
func (s *Service) ListByCourse(ctx context.Context, courseID string) ([]Enrollment, error) {
	return s.query(ctx, entsql.EQ("course_id", courseID))
}

// ListCompleted returns the enrollments of a user that reached 100%.
func (s *Service) ListCompleted(ctx context.Context, userID string) ([]Enrollment, error) {
	return s.query(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.NotNull("completed_at"),
	))
}

// ListInProgress returns the enrollments of a user that are not completed.
func (s *Service) ListInProgress(ctx context.Context, userID string) ([]Enrollment, error) {
	return s.query(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.IsNull("completed_at"),
	))
}

// Enroll enrolls a user in a course. Enrolling twice returns the
// existing enrollment.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (Enrollment, error) {
	lessonIDs, err := s.lessons.LessonIDs(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	existing, err := s.Get(ctx, userID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotEnrolled) {
		return Enrollment{}, err
	}

	now := time.Now()
	e := Enrollment{
		ID:               uuid.NewString(),
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: []string{},
		StartedAt:        now,
		UpdatedAt:        now,
	}
	if len(lessonIDs) > 0 {
		e.currentLessonID = lessonIDs[0]
	}
	e.refresh(lessonIDs)

	_, err = store.ExecBuilt(ctx, s.store, s.store.Builder().
		Insert("enrollments").
		Columns(enrollmentColumns...).
		Values(e.ID, e.UserID, e.CourseID, "[]", e.Progress, e.currentLessonID, e.StartedAt, e.UpdatedAt, nil))
	if err != nil {
		return Enrollment{}, fmt.Errorf("insert enrollment: %w", err)
	}

	s.eventService.TriggerEvent(ctx, events.Event{
		Type:   events.EventTypeEnrolled,
		UserID: userID,
		Payload: map[string]any{
			events.PayloadCourseID: courseID,
		},
	})

	return e, nil
}

// CompleteLesson marks the lesson currently at index as completed and
// recomputes the progress. The enrollment is completed once every lesson is.
func (s *Service) CompleteLesson(ctx context.Context, userID, courseID string, index int) (Enrollment, error) {
	e, err := s.Get(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	lessonIDs, err := s.lessons.LessonIDs(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if index < 0 || index >= len(lessonIDs) {
		return Enrollment{}, fmt.Errorf("%w: %d", ErrLessonOutOfRange, index)
	}
	lessonID := lessonIDs[index]

	newlyCompleted := !slices.Contains(e.CompletedLessons, lessonID)
	if newlyCompleted {
		e.CompletedLessons = append(e.CompletedLessons, lessonID)
	}

	e.currentLessonID = lessonIDs[min(index+1, len(lessonIDs)-1)]
	e.refresh(lessonIDs)
	e.UpdatedAt = time.Now()
	if e.Progress == 100 && e.CompletedAt == nil {
		e.CompletedAt = &e.UpdatedAt
	}

	completed, err := json.Marshal(e.CompletedLessons)
	if err != nil {
		return Enrollment{}, fmt.Errorf("marshal completed lessons: %w", err)
	}

	_, err = store.ExecBuilt(ctx, s.store, s.store.Builder().
		Update("enrollments").
		Set("completed_lessons", string(completed)).
		Set("progress", e.Progress).
		Set("current_lesson_id", e.currentLessonID).
		Set("updated_at", e.UpdatedAt).
		Set("completed_at", e.CompletedAt).
		Where(entsql.EQ("id", e.ID)))
	if err != nil {
		return Enrollment{}, fmt.Errorf("update enrollment: %w", err)
	}

	if newlyCompleted {
		metrics.RecordLessonCompleted()
		s.eventService.TriggerEvent(ctx, events.Event{
			Type:   events.EventTypeLessonCompleted,
			UserID: userID,
			Payload: map[string]any{
				events.PayloadCourseID: courseID,
				"lesson_id":            lessonID,
				"lesson_index":         index,
				"progress":             e.Progress,
			},
		})
	}

	return e, nil
}

// Progress is the rounded share of the course's current lessons that
// are completed. Completions of lessons removed since are ignored.
func Progress(completed []string, lessonIDs []string) int {
	if len(lessonIDs) == 0 {
		return 0
	}

	done := 0
	for _, id := range lessonIDs {
		if slices.Contains(completed, id) {
			done++
		}
	}

	return int(math.Round(float64(done) / float64(len(lessonIDs)) * 100))
}

// Unenroll removes the enrollment and its progress.
func (s *Service) Unenroll(ctx context.Context, userID, courseID string) error {
	affected, err := store.ExecBuilt(ctx, s.store, s.store.Builder().
		Delete("enrollments").
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("course_id", courseID),
		)))
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if affected == 0 {
		return ErrNotEnrolled
	}

	return nil
}
