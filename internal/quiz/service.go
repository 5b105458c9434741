package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/metrics"
	"github.com/coursetutor/backend/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("coursetutor.quiz")

// ErrNoQuiz is returned when the lesson is not followed by a quiz.
var ErrNoQuiz = errors.New("lesson has no quiz")

// Target is the quiz of a lesson, located in its course.
type Target struct {
	CourseID    string
	LessonID    string
	LessonIndex int
	LessonTitle string
	Quiz        Quiz
}

// Source resolves the quizzes of the courses. LessonQuiz returns ErrNoQuiz
// when the lesson has none. CourseQuizzes returns the course title and its
// quizzes in lesson order.
type Source interface {
	LessonQuiz(ctx context.Context, courseID string, lessonIndex int) (Target, error)
	CourseQuizzes(ctx context.Context, courseID string) (string, []Target, error)
}

// Service drives the quiz sessions of the learners and records their
// attempts.
type Service struct {
	store        *store.Store
	source       Source
	sessions     SessionStorage
	eventService *events.EventService
}

func NewService(s *store.Store, source Source, sessions SessionStorage, eventService *events.EventService) *Service {
	return &Service{
		store:        s,
		source:       source,
		sessions:     sessions,
		eventService: eventService,
	}
}

// Start begins a new run, discarding any running session of the lesson.
func (s *Service) Start(ctx context.Context, userID, courseID string, lessonIndex int) (View, error) {
	target, err := s.source.LessonQuiz(ctx, courseID, lessonIndex)
	if err != nil {
		return View{}, err
	}

	session := NewSession(target.Quiz)
	if err := session.Start(); err != nil {
		return View{}, err
	}

	// a request still holding the replaced session must not overwrite this one
	if previous, err := s.sessions.Get(ctx, userID, target.LessonID); err == nil {
		session.Version = previous.Version + 1
	} else if !errors.Is(err, ErrSessionNotFound) {
		return View{}, err
	}

	if err := s.sessions.Save(ctx, userID, target.LessonID, session); err != nil {
		return View{}, err
	}

	return session.View(), nil
}

// Current returns the running session of the lesson.
func (s *Service) Current(ctx context.Context, userID, courseID string, lessonIndex int) (View, error) {
	_, session, err := s.load(ctx, userID, courseID, lessonIndex)
	if err != nil {
		return View{}, err
	}

	return session.View(), nil
}

// Select picks an option of the current question.
func (s *Service) Select(ctx context.Context, userID, courseID string, lessonIndex, option int) (View, error) {
	return s.transition(ctx, userID, courseID, lessonIndex, func(_ Target, session *Session) error {
		return session.Select(option)
	}, nil)
}

// Submit grades the selected option.
func (s *Service) Submit(ctx context.Context, userID, courseID string, lessonIndex int) (View, error) {
	var feedback Feedback
	return s.transition(ctx, userID, courseID, lessonIndex, func(_ Target, session *Session) error {
		var err error
		feedback, err = session.Submit()
		return err
	}, func(Target, *Session) error {
		metrics.RecordQuizAnswer(feedback.Correct)
		return nil
	})
}

// Next moves on to the next question, or to the results after the last
// one. Reaching the results records the attempt.
func (s *Service) Next(ctx context.Context, userID, courseID string, lessonIndex int) (View, error) {
	return s.transition(ctx, userID, courseID, lessonIndex, func(_ Target, session *Session) error {
		return session.Next()
	}, func(target Target, session *Session) error {
		if session.Phase != PhaseResults {
			return nil
		}

		return s.complete(ctx, userID, target, session)
	})
}

// Retake clears the answers and goes back to the first question.
func (s *Service) Retake(ctx context.Context, userID, courseID string, lessonIndex int) (View, error) {
	return s.transition(ctx, userID, courseID, lessonIndex, func(_ Target, session *Session) error {
		return session.Retake()
	}, nil)
}

// Attempts returns the attempts of a user on a quiz, newest first.
func (s *Service) Attempts(ctx context.Context, userID, quizID string) ([]Attempt, error) {
	return listAttempts(ctx, s.store, userID, quizID)
}

// Stats summarises the attempts of a user on the quiz of a lesson.
func (s *Service) Stats(ctx context.Context, userID, courseID string, lessonIndex int) (Stats, error) {
	target, err := s.source.LessonQuiz(ctx, courseID, lessonIndex)
	if err != nil {
		return Stats{}, err
	}

	attempts, err := s.Attempts(ctx, userID, target.Quiz.ID)
	if err != nil {
		return Stats{}, err
	}

	return NewStats(target.Quiz.ID, attempts), nil
}

func (s *Service) load(ctx context.Context, userID, courseID string, lessonIndex int) (Target, *Session, error) {
	target, err := s.source.LessonQuiz(ctx, courseID, lessonIndex)
	if err != nil {
		return Target{}, nil, err
	}

	session, err := s.sessions.Get(ctx, userID, target.LessonID)
	if err != nil {
		return Target{}, nil, err
	}

	return target, session, nil
}

// transition applies fn to the stored session and saves it unless another
// request saved it in between. after runs only once the save went through,
// so its side effects happen once per transition.
func (s *Service) transition(ctx context.Context, userID, courseID string, lessonIndex int, fn, after func(Target, *Session) error) (View, error) {
	target, session, err := s.load(ctx, userID, courseID, lessonIndex)
	if err != nil {
		return View{}, err
	}

	version := session.Version
	if err := fn(target, session); err != nil {
		return View{}, err
	}

	session.Version = version + 1
	if err := s.sessions.CompareAndSave(ctx, userID, target.LessonID, session, version); err != nil {
		return View{}, err
	}

	if after != nil {
		if err := after(target, session); err != nil {
			return View{}, err
		}
	}

	return session.View(), nil
}

func (s *Service) complete(ctx context.Context, userID string, target Target, session *Session) error {
	ctx, span := tracer.Start(ctx, "complete", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("quiz_id", session.Quiz.ID),
	))
	defer span.End()

	results, err := session.Results()
	if err != nil {
		return err
	}

	attempt := Attempt{
		ID:             uuid.NewString(),
		UserID:         userID,
		CourseID:       target.CourseID,
		LessonID:       target.LessonID,
		QuizID:         session.Quiz.ID,
		CorrectCount:   results.CorrectCount,
		TotalQuestions: results.TotalQuestions,
		Percentage:     results.Percentage,
		Mastery:        results.Mastery,
		Answers:        session.Answers,
		CompletedAt:    time.Now(),
	}
	if err := insertAttempt(ctx, s.store, attempt); err != nil {
		span.RecordError(err)
		return fmt.Errorf("record attempt: %w", err)
	}

	metrics.RecordQuizCompleted(string(attempt.Mastery))
	s.eventService.TriggerEvent(ctx, events.Event{
		Type:   events.EventTypeQuizCompleted,
		UserID: userID,
		Payload: map[string]any{
			events.PayloadCourseID:   target.CourseID,
			events.PayloadLessonID:   target.LessonID,
			events.PayloadQuizID:     attempt.QuizID,
			events.PayloadPercentage: attempt.Percentage,
			events.PayloadMastery:    string(attempt.Mastery),
		},
	})

	return nil
}
