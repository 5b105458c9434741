// Package quizservice exposes the quiz sessions of the lessons.
//
// A session belongs to the current user and the lesson; every
// transition returns the new view of the session.
package quizservice

import (
	"errors"
	"net/http"

	"github.com/coursetutor/backend/httpapi"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/quiz"
	"github.com/coursetutor/backend/internal/scope"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("coursetutor.httpapi.quiz")

type QuizService struct {
	quizzes *quiz.Service
}

func NewQuizService(quizzes *quiz.Service) *QuizService {
	return &QuizService{quizzes: quizzes}
}

func (s *QuizService) Register(router gin.IRouter) {
	group := router.Group("/courses/:id/lessons/:index/quiz")

	group.POST("/session", auth.RequireScope(scope.QuizWrite), s.StartSession)
	group.GET("/session", auth.RequireScope(scope.QuizRead), s.GetSession)
	group.POST("/session/select", auth.RequireScope(scope.QuizWrite), s.SelectOption)
	group.POST("/session/submit", auth.RequireScope(scope.QuizWrite), s.SubmitAnswer)
	group.POST("/session/next", auth.RequireScope(scope.QuizWrite), s.NextQuestion)
	group.POST("/session/retake", auth.RequireScope(scope.QuizWrite), s.RetakeQuiz)
	group.GET("/stats", auth.RequireScope(scope.QuizRead), s.GetStats)

	router.GET("/courses/:id/quiz-summary", auth.RequireScope(scope.QuizRead), s.GetCourseSummary)
	router.GET("/me/quiz-dashboard", auth.RequireScope(scope.QuizRead), s.GetDashboard)
}

// lessonRef is the user, course and lesson index of a request.
type lessonRef struct {
	userID   string
	courseID string
	index    int
}

func parseLessonRef(c *gin.Context) (lessonRef, bool) {
	index, err := httputils.IntParam(c, "index")
	if err != nil {
		httputils.BadRequest(c, err)
		return lessonRef{}, false
	}

	user, _ := auth.GetUser(c.Request.Context())
	return lessonRef{
		userID:   user.UserID,
		courseID: c.Param("id"),
		index:    index,
	}, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, course.ErrCourseNotFound):
		httputils.Error(c, http.StatusNotFound, "course not found", nil)
	case errors.Is(err, course.ErrLessonNotFound):
		httputils.Error(c, http.StatusNotFound, "lesson not found", nil)
	case errors.Is(err, quiz.ErrNoQuiz):
		httputils.Error(c, http.StatusNotFound, "lesson has no quiz", nil)
	case errors.Is(err, quiz.ErrSessionNotFound):
		httputils.Error(c, http.StatusNotFound, "no quiz session", err)
	case errors.Is(err, quiz.ErrEmptyQuiz),
		errors.Is(err, quiz.ErrOptionOutOfRange),
		errors.Is(err, quiz.ErrNoSelection):
		httputils.Error(c, http.StatusUnprocessableEntity, "invalid answer", err)
	case errors.Is(err, quiz.ErrInvalidTransition):
		httputils.Error(c, http.StatusConflict, "invalid transition", err)
	case errors.Is(err, quiz.ErrSessionConflict):
		httputils.Error(c, http.StatusConflict, "quiz session changed, reload it", err)
	default:
		httputils.Error(c, http.StatusInternalServerError, "internal error", err)
	}
}

var _ httpapi.Service = (*QuizService)(nil)
