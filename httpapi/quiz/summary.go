package quizservice

import (
	"errors"
	"net/http"
	"time"

	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetCourseSummary returns the standing of the current user on the
// quizzes of a course.
// GET /api/courses/:id/quiz-summary
func (s *QuizService) GetCourseSummary(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetCourseSummary")
	defer span.End()

	courseID := c.Param("id")
	span.SetAttributes(attribute.String("course_id", courseID))

	user, _ := auth.GetUser(ctx)

	summary, err := s.quizzes.CourseSummary(ctx, user.UserID, courseID)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetDashboard summarises the quiz activity of the current user.
// GET /api/me/quiz-dashboard?from=&to=
//
// from and to are RFC 3339 timestamps or dates; a date as to includes
// the whole day.
func (s *QuizService) GetDashboard(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetDashboard")
	defer span.End()

	from, err := parseBound(c.Query("from"), false)
	if err != nil {
		httputils.BadRequest(c, errors.New("from must be an RFC 3339 timestamp or a date"))
		return
	}
	to, err := parseBound(c.Query("to"), true)
	if err != nil {
		httputils.BadRequest(c, errors.New("to must be an RFC 3339 timestamp or a date"))
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		httputils.BadRequest(c, errors.New("to must not be before from"))
		return
	}

	user, _ := auth.GetUser(ctx)

	dashboard, err := s.quizzes.Dashboard(ctx, user.UserID, from, to)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func parseBound(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return &t, nil
}
