package courseservice

import (
	"net/http"

	"github.com/coursetutor/backend/internal/analytics"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/gin-gonic/gin"
)

// GetCourseAnalytics returns the view and enrollment summary of a course
// to those who may edit it.
// GET /api/courses/:id/analytics
func (s *CourseService) GetCourseAnalytics(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetCourseAnalytics")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	found, err := s.courses.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !course.CanModify(user, found) {
		writeError(c, course.ErrForbidden)
		return
	}

	summary, err := s.analytics.Course(ctx, found.ID, found.Title)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

type OwnedAnalyticsResponse struct {
	Courses []analytics.CourseAnalytics `json:"courses"`
}

// ListOwnedCourseAnalytics summarizes every course of the current user.
// GET /api/me/courses/analytics
func (s *CourseService) ListOwnedCourseAnalytics(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListOwnedCourseAnalytics")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	courses, err := s.analytics.Owner(ctx, user.UserID)
	if err != nil {
		span.RecordError(err)
		httputils.Error(c, http.StatusInternalServerError, "failed to summarize courses", err)
		return
	}

	c.JSON(http.StatusOK, OwnedAnalyticsResponse{Courses: courses})
}
