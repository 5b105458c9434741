// Package courseservice provides the course catalogue, the course
// editor and the enrollment endpoints.
package courseservice

import (
	"errors"
	"net/http"

	"github.com/coursetutor/backend/httpapi"
	"github.com/coursetutor/backend/internal/analytics"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/enrollment"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/scope"
	"github.com/coursetutor/backend/internal/validation"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("coursetutor.httpapi.courses")

type CourseService struct {
	courses     *course.Service
	enrollments *enrollment.Service
	analytics   *analytics.Service
}

func NewCourseService(courses *course.Service, enrollments *enrollment.Service, analytics *analytics.Service) *CourseService {
	return &CourseService{
		courses:     courses,
		enrollments: enrollments,
		analytics:   analytics,
	}
}

func (s *CourseService) Register(router gin.IRouter) {
	group := router.Group("/courses")

	group.GET("", s.ListCourses)
	group.POST("", auth.RequireScope(scope.CourseWrite), s.CreateCourse)
	group.GET("/:id", s.GetCourse)
	group.GET("/:id/edit", auth.RequireScope(scope.CourseWrite), s.GetCourseForEdit)
	group.PUT("/:id", auth.RequireScope(scope.CourseWrite), s.UpdateCourse)
	group.DELETE("/:id", auth.RequireScope(scope.CourseWrite), s.DeleteCourse)
	group.POST("/:id/lessons/move", auth.RequireScope(scope.CourseWrite), s.MoveLesson)
	group.GET("/:id/analytics", auth.RequireScope(scope.CourseWrite), s.GetCourseAnalytics)

	group.POST("/:id/enroll", auth.RequireScope(scope.EnrollmentWrite), s.Enroll)
	group.DELETE("/:id/enroll", auth.RequireScope(scope.EnrollmentWrite), s.Unenroll)
	group.GET("/:id/enrollment", auth.RequireScope(scope.EnrollmentRead), s.GetEnrollment)
	group.POST("/:id/lessons/:index/complete", auth.RequireScope(scope.EnrollmentWrite), s.CompleteLesson)

	router.GET("/me/courses/analytics", auth.RequireScope(scope.CourseWrite), s.ListOwnedCourseAnalytics)
}

// writeError maps the domain errors to their status codes.
func writeError(c *gin.Context, err error) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		httputils.ValidationError(c, verr.Fields)
	case errors.Is(err, course.ErrCourseNotFound):
		httputils.Error(c, http.StatusNotFound, "course not found", nil)
	case errors.Is(err, enrollment.ErrNotEnrolled):
		httputils.Error(c, http.StatusNotFound, "not enrolled", err)
	case errors.Is(err, course.ErrForbidden):
		httputils.Error(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, course.ErrLessonIndex), errors.Is(err, enrollment.ErrLessonOutOfRange):
		httputils.BadRequest(c, err)
	default:
		httputils.Error(c, http.StatusInternalServerError, "internal error", err)
	}
}

var _ httpapi.Service = (*CourseService)(nil)
