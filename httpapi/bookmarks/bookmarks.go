// Package bookmarkservice provides the endpoints of the lesson bookmarks
// of the current user.
package bookmarkservice

import (
	"errors"
	"net/http"

	"github.com/coursetutor/backend/httpapi"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/bookmark"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/scope"
	"github.com/coursetutor/backend/internal/validation"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("coursetutor.httpapi.bookmarks")

type BookmarkService struct {
	bookmarks *bookmark.Service
}

func NewBookmarkService(bookmarks *bookmark.Service) *BookmarkService {
	return &BookmarkService{bookmarks: bookmarks}
}

func (s *BookmarkService) Register(router gin.IRouter) {
	router.GET("/me/bookmarks", auth.RequireScope(scope.BookmarkRead), s.ListBookmarks)
	router.GET("/courses/:id/bookmarks", auth.RequireScope(scope.BookmarkRead), s.ListCourseBookmarks)
	router.POST("/courses/:id/lessons/:index/bookmark", auth.RequireScope(scope.BookmarkWrite), s.CreateBookmark)
	router.DELETE("/courses/:id/lessons/:index/bookmark", auth.RequireScope(scope.BookmarkWrite), s.DeleteLessonBookmark)

	group := router.Group("/bookmarks")
	group.PATCH("/:bookmarkId", auth.RequireScope(scope.BookmarkWrite), s.UpdateBookmark)
	group.DELETE("/:bookmarkId", auth.RequireScope(scope.BookmarkWrite), s.DeleteBookmark)
}

type BookmarksResponse struct {
	Bookmarks []bookmark.Bookmark `json:"bookmarks"`
}

type NoteRequest struct {
	Note string `json:"note"`
}

// ListBookmarks lists the bookmarks of the current user, newest first.
// GET /api/me/bookmarks
func (s *BookmarkService) ListBookmarks(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListBookmarks")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	bookmarks, err := s.bookmarks.ListByUser(ctx, user.UserID)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookmarksResponse{Bookmarks: bookmarks})
}

// ListCourseBookmarks lists the bookmarks of the current user in a course.
// GET /api/courses/:id/bookmarks
func (s *BookmarkService) ListCourseBookmarks(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListCourseBookmarks")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	bookmarks, err := s.bookmarks.ListByCourse(ctx, user.UserID, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookmarksResponse{Bookmarks: bookmarks})
}

// CreateBookmark bookmarks a lesson with an optional note.
// POST /api/courses/:id/lessons/:index/bookmark
func (s *BookmarkService) CreateBookmark(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateBookmark")
	defer span.End()

	index, err := httputils.IntParam(c, "index")
	if err != nil {
		httputils.BadRequest(c, err)
		return
	}

	// the body is optional
	var req NoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputils.BadRequest(c, err)
			return
		}
	}

	user, _ := auth.GetUser(ctx)

	created, err := s.bookmarks.Create(ctx, user.UserID, c.Param("id"), index, req.Note)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	span.SetAttributes(attribute.String("bookmark_id", created.ID))
	c.JSON(http.StatusCreated, created)
}

// DeleteLessonBookmark removes the bookmark of a lesson.
// DELETE /api/courses/:id/lessons/:index/bookmark
func (s *BookmarkService) DeleteLessonBookmark(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeleteLessonBookmark")
	defer span.End()

	index, err := httputils.IntParam(c, "index")
	if err != nil {
		httputils.BadRequest(c, err)
		return
	}

	user, _ := auth.GetUser(ctx)

	if err := s.bookmarks.DeleteByLesson(ctx, user.UserID, c.Param("id"), index); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateBookmark replaces the note of a bookmark.
// PATCH /api/bookmarks/:bookmarkId
func (s *BookmarkService) UpdateBookmark(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateBookmark")
	defer span.End()

	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.BadRequest(c, err)
		return
	}

	user, _ := auth.GetUser(ctx)

	updated, err := s.bookmarks.UpdateNote(ctx, user.UserID, c.Param("bookmarkId"), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteBookmark removes a bookmark.
// DELETE /api/bookmarks/:bookmarkId
func (s *BookmarkService) DeleteBookmark(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeleteBookmark")
	defer span.End()

	user, _ := auth.GetUser(ctx)

	if err := s.bookmarks.Delete(ctx, user.UserID, c.Param("bookmarkId")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		httputils.ValidationError(c, verr.Fields)
	case errors.Is(err, course.ErrCourseNotFound):
		httputils.Error(c, http.StatusNotFound, "course not found", nil)
	case errors.Is(err, bookmark.ErrBookmarkNotFound):
		httputils.Error(c, http.StatusNotFound, "bookmark not found", nil)
	case errors.Is(err, bookmark.ErrLessonOutOfRange):
		httputils.BadRequest(c, err)
	case errors.Is(err, bookmark.ErrBookmarkExists):
		httputils.Error(c, http.StatusConflict, "lesson already bookmarked", err)
	default:
		httputils.Error(c, http.StatusInternalServerError, "internal error", err)
	}
}

var _ httpapi.Service = (*BookmarkService)(nil)
