package quizservice

import (
	"context"
	"net/http"

	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/quiz"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type transitionFunc func(ctx context.Context, userID, courseID string, lessonIndex int) (quiz.View, error)

// handleTransition runs fn on the lesson of the request and writes the view.
func handleTransition(c *gin.Context, name string, fn transitionFunc) {
	ref, ok := parseLessonRef(c)
	if !ok {
		return
	}

	ctx, span := tracer.Start(c.Request.Context(), name, trace.WithAttributes(
		attribute.String("course_id", ref.courseID),
		attribute.Int("lesson_index", ref.index),
	))
	defer span.End()

	view, err := fn(ctx, ref.userID, ref.courseID, ref.index)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// StartSession starts the quiz of a lesson, discarding a running session.
// POST /api/courses/:id/lessons/:index/quiz/session
func (s *QuizService) StartSession(c *gin.Context) {
	handleTransition(c, "StartSession", s.quizzes.Start)
}

// GetSession returns the running session.
// GET /api/courses/:id/lessons/:index/quiz/session
func (s *QuizService) GetSession(c *gin.Context) {
	handleTransition(c, "GetSession", s.quizzes.Current)
}

type SelectRequest struct {
	Option *int `json:"option" binding:"required"`
}

// SelectOption selects an option of the current question.
// POST /api/courses/:id/lessons/:index/quiz/session/select
func (s *QuizService) SelectOption(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.BadRequest(c, err)
		return
	}

	handleTransition(c, "SelectOption", func(ctx context.Context, userID, courseID string, lessonIndex int) (quiz.View, error) {
		return s.quizzes.Select(ctx, userID, courseID, lessonIndex, *req.Option)
	})
}

// SubmitAnswer grades the selected option.
// POST /api/courses/:id/lessons/:index/quiz/session/submit
func (s *QuizService) SubmitAnswer(c *gin.Context) {
	handleTransition(c, "SubmitAnswer", s.quizzes.Submit)
}

// NextQuestion moves to the next question or to the results.
// POST /api/courses/:id/lessons/:index/quiz/session/next
func (s *QuizService) NextQuestion(c *gin.Context) {
	handleTransition(c, "NextQuestion", s.quizzes.Next)
}

// RetakeQuiz restarts a finished quiz.
// POST /api/courses/:id/lessons/:index/quiz/session/retake
func (s *QuizService) RetakeQuiz(c *gin.Context) {
	handleTransition(c, "RetakeQuiz", s.quizzes.Retake)
}

// GetStats returns the attempt history of the lesson's quiz.
// GET /api/courses/:id/lessons/:index/quiz/stats
func (s *QuizService) GetStats(c *gin.Context) {
	ref, ok := parseLessonRef(c)
	if !ok {
		return
	}

	ctx, span := tracer.Start(c.Request.Context(), "GetStats")
	defer span.End()

	stats, err := s.quizzes.Stats(ctx, ref.userID, ref.courseID, ref.index)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
