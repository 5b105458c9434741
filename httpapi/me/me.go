// Package meservice provides the endpoints about the current user's
// learning: enrollments and points.
package meservice

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coursetutor/backend/httpapi"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/enrollment"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/scope"
	"github.com/coursetutor/backend/internal/store"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("coursetutor.httpapi.me")

type MeService struct {
	store       *store.Store
	enrollments *enrollment.Service
}

func NewMeService(s *store.Store, enrollments *enrollment.Service) *MeService {
	return &MeService{
		store:       s,
		enrollments: enrollments,
	}
}

func (s *MeService) Register(router gin.IRouter) {
	group := router.Group("/me")

	group.GET("/enrollments", auth.RequireScope(scope.EnrollmentRead), s.ListEnrollments)
	group.GET("/points", auth.RequireScope(scope.MeRead), s.GetPoints)
}

type EnrollmentsResponse struct {
	Enrollments []enrollment.Enrollment `json:"enrollments"`
}

// ListEnrollments lists the courses the current user is enrolled in,
// optionally only the completed or the in progress ones.
// GET /api/me/enrollments?status=completed|in_progress
func (s *MeService) ListEnrollments(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListEnrollments")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	var list func(ctx context.Context, userID string) ([]enrollment.Enrollment, error)
	switch status := c.Query("status"); status {
	case "":
		list = s.enrollments.ListByUser
	case "completed":
		list = s.enrollments.ListCompleted
	case "in_progress":
		list = s.enrollments.ListInProgress
	default:
		httputils.BadRequest(c, fmt.Errorf("unknown status %q, want completed or in_progress", status))
		return
	}

	enrollments, err := list(ctx, user.UserID)
	if err != nil {
		span.RecordError(err)
		httputils.Error(c, http.StatusInternalServerError, "failed to list enrollments", err)
		return
	}
	if enrollments == nil {
		enrollments = []enrollment.Enrollment{}
	}

	c.JSON(http.StatusOK, EnrollmentsResponse{Enrollments: enrollments})
}

type PointsResponse struct {
	Total  int            `json:"total"`
	Points []events.Point `json:"points"`
}

// GetPoints returns the points granted to the current user.
// GET /api/me/points
func (s *MeService) GetPoints(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetPoints")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	points, total, err := events.ListPoints(ctx, s.store, user.UserID)
	if err != nil {
		span.RecordError(err)
		httputils.Error(c, http.StatusInternalServerError, "failed to list points", err)
		return
	}
	if points == nil {
		points = []events.Point{}
	}

	c.JSON(http.StatusOK, PointsResponse{Total: total, Points: points})
}

var _ httpapi.Service = (*MeService)(nil)
