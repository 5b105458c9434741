package courseservice

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListResponse is a page of the course catalogue.
type ListResponse struct {
	Courses []course.Summary `json:"courses"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ListCourses lists the courses, newest first.
// GET /api/courses?difficulty=&q=&limit=&offset=
func (s *CourseService) ListCourses(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListCourses")
	defer span.End()

	filter := course.Filter{Query: c.Query("q")}

	if raw := c.Query("difficulty"); raw != "" {
		difficulty, err := course.ParseDifficulty(raw)
		if err != nil {
			httputils.BadRequest(c, err)
			return
		}
		filter.Difficulty = difficulty
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			httputils.BadRequest(c, errors.New(p.name+" must be a non-negative integer"))
			return
		}
		*p.dst = v
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Courses: courses,
		Total:   total,
		Limit:   filter.EffectiveLimit(),
		Offset:  filter.Offset,
	})
}

// CreateCourse creates a course owned by the current user.
// POST /api/courses
func (s *CourseService) CreateCourse(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateCourse")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	var draft course.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		httputils.BadRequest(c, err)
		return
	}

	created, err := s.courses.Create(ctx, user.UserID, draft)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	span.SetAttributes(attribute.String("course_id", created.ID))
	c.JSON(http.StatusCreated, created)
}

// GetCourse returns a course with its lessons and records the view. Quiz
// answers are only included for those who may edit the course.
// GET /api/courses/:id
func (s *CourseService) GetCourse(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetCourse")
	defer span.End()

	found, err := s.courses.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	user, ok := auth.GetUser(ctx)
	s.analytics.RecordView(ctx, found.ID, user.UserID)

	if ok && course.CanModify(user, found) {
		c.JSON(http.StatusOK, found)
		return
	}

	c.JSON(http.StatusOK, found.LearnerView())
}

// GetCourseForEdit returns the course with its quiz answers for the
// course editor.
// GET /api/courses/:id/edit
func (s *CourseService) GetCourseForEdit(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetCourseForEdit")
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

	c.JSON(http.StatusOK, found)
}

// UpdateCourse replaces a course with the submitted form.
// PUT /api/courses/:id
func (s *CourseService) UpdateCourse(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateCourse")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	var draft course.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		httputils.BadRequest(c, err)
		return
	}

	updated, err := s.courses.Update(ctx, user, c.Param("id"), draft)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteCourse deletes a course.
// DELETE /api/courses/:id
func (s *CourseService) DeleteCourse(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeleteCourse")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	if err := s.courses.Delete(ctx, user, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type MoveLessonRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// MoveLesson moves a lesson to another position.
// POST /api/courses/:id/lessons/move
func (s *CourseService) MoveLesson(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "MoveLesson")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	var req MoveLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.BadRequest(c, err)
		return
	}

	moved, err := s.courses.MoveLesson(ctx, user, c.Param("id"), *req.From, *req.To)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, moved)
}
