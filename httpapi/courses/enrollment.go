package courseservice

import (
	"net/http"

	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/gin-gonic/gin"
)

// Enroll enrolls the current user in a course. Enrolling again
// returns the existing enrollment.
// POST /api/courses/:id/enroll
func (s *CourseService) Enroll(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "Enroll")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	e, err := s.enrollments.Enroll(ctx, user.UserID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// Unenroll drops the current user's enrollment and progress.
// DELETE /api/courses/:id/enroll
func (s *CourseService) Unenroll(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "Unenroll")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	if err := s.enrollments.Unenroll(ctx, user.UserID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetEnrollment returns the current user's progress in a course.
// GET /api/courses/:id/enrollment
func (s *CourseService) GetEnrollment(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetEnrollment")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	e, err := s.enrollments.Get(ctx, user.UserID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// CompleteLesson marks a lesson of the course as completed.
// POST /api/courses/:id/lessons/:index/complete
func (s *CourseService) CompleteLesson(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CompleteLesson")
	defer span.End()

	index, err := httputils.IntParam(c, "index")
	if err != nil {
		httputils.BadRequest(c, err)
		return
	}

	user, _ := auth.GetUser(ctx)

	e, err := s.enrollments.CompleteLesson(ctx, user.UserID, c.Param("id"), index)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}
