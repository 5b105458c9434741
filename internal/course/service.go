package course

import (
	"context"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/quiz"
	"github.com/coursetutor/backend/internal/scope"
	"github.com/coursetutor/backend/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("coursetutor.course")

// Service manages the courses.
type Service struct {
	store        *store.Store
	eventService *events.EventService
}

func NewService(s *store.Store, eventService *events.EventService) *Service {
	return &Service{
		store:        s,
		eventService: eventService,
	}
}

// CanModify reports whether actor may update or delete c.
func CanModify(actor auth.TokenInfo, c Course) bool {
	return actor.UserID == c.OwnerID || scope.ShouldAllow(scope.CourseManage, actor.Scopes)
}

// knownLessons maps the lesson IDs of a stored course to the ID of
// their quiz, empty when the lesson has none.
func knownLessons(c Course) map[string]string {
	known := make(map[string]string, len(c.Lessons))
	for _, l := range c.Lessons {
		known[l.ID] = ""
		if l.Quiz != nil {
			known[l.ID] = l.Quiz.ID
		}
	}

	return known
}

// buildLessons turns the drafted lessons into lessons at their list
// position. Lesson IDs are kept only if they are in known, and quiz IDs
// only if they are the stored quiz of that same lesson.
func buildLessons(drafts []LessonDraft, known map[string]string) []Lesson {
	lessons := make([]Lesson, 0, len(drafts))

	for i, d := range drafts {
		id := d.ID
		storedQuizID, ok := known[id]
		if id == "" || !ok {
			id = uuid.NewString()
		}

		var q *quiz.Quiz
		if d.Quiz != nil {
			copied := *d.Quiz
			copied.Questions = append([]quiz.Question(nil), d.Quiz.Questions...)
			if !ok || storedQuizID == "" || copied.ID != storedQuizID {
				copied.ID = ""
				for j := range copied.Questions {
					copied.Questions[j].ID = ""
				}
			}
			copied.AssignIDs(id)
			q = &copied
		}

		lessons = append(lessons, Lesson{
			ID:       id,
			Position: i,
			Title:    strings.TrimSpace(d.Title),
			Content:  d.Content,
			Quiz:     q,
		})
	}

	return lessons
}

// Create creates a course owned by ownerID from a submitted draft.
func (s *Service) Create(ctx context.Context, ownerID string, d Draft) (Course, error) {
	if err := d.Validate().Err(); err != nil {
		return Course{}, err
	}

	difficulty, _ := ParseDifficulty(d.Difficulty)
	now := time.Now()
	c := Course{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Title:          strings.TrimSpace(d.Title),
		Description:    strings.TrimSpace(d.Description),
		Author:         strings.TrimSpace(d.Author),
		Difficulty:     difficulty,
		EstimatedHours: d.EstimatedHours,
		Lessons:        buildLessons(d.Lessons, nil),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.store.WithTx(ctx, func(tx store.Querier) error {
		return insertCourse(ctx, tx, s.store.Builder(), c)
	})
	if err != nil {
		return Course{}, fmt.Errorf("create course: %w", err)
	}

	s.trigger(ctx, events.EventTypeCourseCreated, ownerID, c.ID)
	return c, nil
}

// Get returns a course with its lessons.
func (s *Service) Get(ctx context.Context, id string) (Course, error) {
	return s.getCourse(ctx, id)
}

// List returns a page of the courses matching f, newest first, and the
// number of matching courses.
func (s *Service) List(ctx context.Context, f Filter) ([]Summary, int, error) {
	return s.listCourses(ctx, f)
}

// Update replaces the course fields and its whole lesson list.
func (s *Service) Update(ctx context.Context, actor auth.TokenInfo, id string, d Draft) (Course, error) {
	existing, err := s.getCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !CanModify(actor, existing) {
		return Course{}, ErrForbidden
	}
	if err := d.Validate().Err(); err != nil {
		return Course{}, err
	}

	difficulty, _ := ParseDifficulty(d.Difficulty)
	c := existing
	c.Title = strings.TrimSpace(d.Title)
	c.Description = strings.TrimSpace(d.Description)
	c.Author = strings.TrimSpace(d.Author)
	c.Difficulty = difficulty
	c.EstimatedHours = d.EstimatedHours
	c.Lessons = buildLessons(d.Lessons, knownLessons(existing))
	c.UpdatedAt = time.Now()

	if err := s.save(ctx, c); err != nil {
		return Course{}, err
	}

	s.trigger(ctx, events.EventTypeCourseUpdated, actor.UserID, c.ID)
	return c, nil
}

// MoveLesson moves the lesson at from to index to.
func (s *Service) MoveLesson(ctx context.Context, actor auth.TokenInfo, id string, from, to int) (Course, error) {
	c, err := s.getCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !CanModify(actor, c) {
		return Course{}, ErrForbidden
	}

	d := DraftOf(c)
	if err := d.MoveLesson(from, to); err != nil {
		return Course{}, err
	}

	c.Lessons = buildLessons(d.Lessons, knownLessons(c))
	c.UpdatedAt = time.Now()

	if err := s.save(ctx, c); err != nil {
		return Course{}, err
	}

	s.trigger(ctx, events.EventTypeCourseUpdated, actor.UserID, c.ID)
	return c, nil
}

func (s *Service) save(ctx context.Context, c Course) error {
	err := s.store.WithTx(ctx, func(tx store.Querier) error {
		return updateCourse(ctx, tx, s.store.Builder(), c)
	})
	if err != nil {
		return fmt.Errorf("save course: %w", err)
	}

	return nil
}

// Delete deletes a course. Its lessons, enrollments, quiz attempts,
// bookmarks and views go with it.
func (s *Service) Delete(ctx context.Context, actor auth.TokenInfo, id string) error {
	ctx, span := tracer.Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("course_id", id),
		attribute.String("actor_id", actor.UserID),
	))
	defer span.End()

	c, err := s.getCourse(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(actor, c) {
		return ErrForbidden
	}

	err = s.store.WithTx(ctx, func(tx store.Querier) error {
		b := s.store.Builder()
		for _, table := range []string{"quiz_attempts", "enrollments", "bookmarks", "course_views", "lessons"} {
			if _, err := store.ExecBuilt(ctx, tx, b.Delete(table).Where(entsql.EQ("course_id", id))); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}

		affected, err := store.ExecBuilt(ctx, tx, b.Delete("courses").Where(entsql.EQ("id", id)))
		if err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		if affected == 0 {
			return ErrCourseNotFound
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.trigger(ctx, events.EventTypeCourseDeleted, actor.UserID, id)
	return nil
}

// LessonIDs returns the lesson IDs of a course in their current order.
func (s *Service) LessonIDs(ctx context.Context, courseID string) ([]string, error) {
	c, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(c.Lessons))
	for i, l := range c.Lessons {
		ids[i] = l.ID
	}

	return ids, nil
}

// LessonQuiz returns the quiz following the lesson at lessonIndex.
func (s *Service) LessonQuiz(ctx context.Context, courseID string, lessonIndex int) (quiz.Target, error) {
	c, err := s.getCourse(ctx, courseID)
	if err != nil {
		return quiz.Target{}, err
	}
	if lessonIndex < 0 || lessonIndex >= len(c.Lessons) {
		return quiz.Target{}, ErrLessonNotFound
	}

	lesson := c.Lessons[lessonIndex]
	if lesson.Quiz == nil {
		return quiz.Target{}, quiz.ErrNoQuiz
	}

	return lessonTarget(c, lessonIndex), nil
}

// CourseQuizzes returns the title of a course and the quizzes of its
// lessons in lesson order.
func (s *Service) CourseQuizzes(ctx context.Context, courseID string) (string, []quiz.Target, error) {
	c, err := s.getCourse(ctx, courseID)
	if err != nil {
		return "", nil, err
	}

	targets := []quiz.Target{}
	for i, lesson := range c.Lessons {
		if lesson.Quiz != nil {
			targets = append(targets, lessonTarget(c, i))
		}
	}

	return c.Title, targets, nil
}

func lessonTarget(c Course, lessonIndex int) quiz.Target {
	lesson := c.Lessons[lessonIndex]

	return quiz.Target{
		CourseID:    c.ID,
		LessonID:    lesson.ID,
		LessonIndex: lessonIndex,
		LessonTitle: lesson.Title,
		Quiz:        *lesson.Quiz,
	}
}

var _ quiz.Source = (*Service)(nil)

func (s *Service) trigger(ctx context.Context, typ events.EventType, userID, courseID string) {
	s.eventService.TriggerEvent(ctx, events.Event{
		Type:   typ,
		UserID: userID,
		Payload: map[string]any{
			events.PayloadCourseID: courseID,
		},
	})
}
