// Package bookmark keeps the lessons a learner marked to come back to.
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/validation"
	"github.com/google/uuid"
)

var (
	ErrBookmarkNotFound = errors.New("bookmark not found")
	ErrBookmarkExists   = errors.New("lesson is already bookmarked")
	ErrLessonOutOfRange = errors.New("lesson index out of range")
)

// MaxNoteLength is the longest note, in characters.
const MaxNoteLength = 500

// Bookmark marks a lesson. It follows the lesson when the course is
// reordered; LessonIndex is its current position.
type Bookmark struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CourseID    string    `json:"courseId"`
	LessonID    string    `json:"lessonId"`
	LessonIndex int       `json:"lessonIndex"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LessonLister returns the lesson IDs of a course in their current
// order, or an error when the course does not exist.
type LessonLister interface {
	LessonIDs(ctx context.Context, courseID string) ([]string, error)
}

type Service struct {
	store   *store.Store
	lessons LessonLister
}

func NewService(s *store.Store, lessons LessonLister) *Service {
	return &Service{
		store:   s,
		lessons: lessons,
	}
}

func validateNote(note string) error {
	fields := validation.FieldErrors{}
	if utf8.RuneCountInString(note) > MaxNoteLength {
		fields.Add("note", fmt.Sprintf("Note must be at most %d characters", MaxNoteLength))
	}

	return fields.Err()
}

var bookmarkColumns = []string{"id", "user_id", "course_id", "lesson_id", "note", "created_at", "updated_at"}

func (s *Service) query(ctx context.Context, pred *entsql.Predicate) ([]Bookmark, error) {
	var bookmarks []Bookmark

	err := store.QueryBuilt(ctx, s.store, s.store.Builder().
		Select(bookmarkColumns...).
		From(entsql.Table("bookmarks")).
		Where(pred).
		OrderBy(entsql.Desc("created_at")), func(rows *entsql.Rows) error {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.CourseID, &b.LessonID, &b.Note, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return err
		}

		bookmarks = append(bookmarks, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}

	return s.resolve(ctx, bookmarks)
}

// resolve fills the current lesson positions. Bookmarks of lessons that
// were removed since are left out.
func (s *Service) resolve(ctx context.Context, bookmarks []Bookmark) ([]Bookmark, error) {
	lessonsByCourse := map[string][]string{}
	resolved := make([]Bookmark, 0, len(bookmarks))

	for _, b := range bookmarks {
		ids, ok := lessonsByCourse[b.CourseID]
		if !ok {
			var err error
			ids, err = s.lessons.LessonIDs(ctx, b.CourseID)
			if err != nil {
				return nil, fmt.Errorf("lessons of course %s: %w", b.CourseID, err)
			}
			lessonsByCourse[b.CourseID] = ids
		}

		b.LessonIndex = slices.Index(ids, b.LessonID)
		if b.LessonIndex < 0 {
			continue
		}
		resolved = append(resolved, b)
	}

	return resolved, nil
}

// ListByUser returns the bookmarks of a user, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Bookmark, error) {
	return s.query(ctx, entsql.EQ("user_id", userID))
}

// ListByCourse returns the bookmarks of a user in a course, newest first.
func (s *Service) ListByCourse(ctx context.Context, userID, courseID string) ([]Bookmark, error) {
	if _, err := s.lessons.LessonIDs(ctx, courseID); err != nil {
		return nil, err
	}

	return s.query(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("course_id", courseID),
	))
}

func (s *Service) lessonAt(ctx context.Context, courseID string, index int) (string, error) {
	ids, err := s.lessons.LessonIDs(ctx, courseID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(ids) {
		return "", fmt.Errorf("%w: %d", ErrLessonOutOfRange, index)
	}

	return ids[index], nil
}

// Create bookmarks the lesson at lessonIndex.
func (s *Service) Create(ctx context.Context, userID, courseID string, lessonIndex int, note string) (Bookmark, error) {
	note = strings.TrimSpace(note)
	if err := validateNote(note); err != nil {
		return Bookmark{}, err
	}

	lessonID, err := s.lessonAt(ctx, courseID, lessonIndex)
	if err != nil {
		return Bookmark{}, err
	}

	now := time.Now()
	b := Bookmark{
		ID:          uuid.NewString(),
		UserID:      userID,
		CourseID:    courseID,
		LessonID:    lessonID,
		LessonIndex: lessonIndex,
		Note:        note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.WithTx(ctx, func(tx store.Querier) error {
		existing, err := store.Count(ctx, tx, s.store.Builder().
			Select(entsql.Count("*")).
			From(entsql.Table("bookmarks")).
			Where(entsql.And(
				entsql.EQ("user_id", userID),
				entsql.EQ("lesson_id", lessonID),
			)))
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrBookmarkExists
		}

		_, err = store.ExecBuilt(ctx, tx, s.store.Builder().
			Insert("bookmarks").
			Columns(bookmarkColumns...).
			Values(b.ID, b.UserID, b.CourseID, b.LessonID, b.Note, b.CreatedAt, b.UpdatedAt))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrBookmarkExists) {
			return Bookmark{}, err
		}
		return Bookmark{}, fmt.Errorf("create bookmark: %w", err)
	}

	return b, nil
}

// Get returns a bookmark of the user.
func (s *Service) Get(ctx context.Context, userID, id string) (Bookmark, error) {
	bookmarks, err := s.query(ctx, entsql.And(
		entsql.EQ("id", id),
		entsql.EQ("user_id", userID),
	))
	if err != nil {
		return Bookmark{}, err
	}
	if len(bookmarks) == 0 {
		return Bookmark{}, ErrBookmarkNotFound
	}

	return bookmarks[0], nil
}

// UpdateNote replaces the note of a bookmark of the user.
func (s *Service) UpdateNote(ctx context.Context, userID, id, note string) (Bookmark, error) {
	note = strings.TrimSpace(note)
	if err := validateNote(note); err != nil {
		return Bookmark{}, err
	}

	affected, err := store.ExecBuilt(ctx, s.store, s.store.Builder().
		Update("bookmarks").
		Set("note", note).
		Set("updated_at", time.Now()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("user_id", userID),
		)))
	if err != nil {
		return Bookmark{}, fmt.Errorf("update bookmark: %w", err)
	}
	if affected == 0 {
		return Bookmark{}, ErrBookmarkNotFound
	}

	return s.Get(ctx, userID, id)
}

// Delete removes a bookmark of the user.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.delete(ctx, entsql.And(
		entsql.EQ("id", id),
		entsql.EQ("user_id", userID),
	))
}

// DeleteByLesson removes the bookmark of the user on the lesson at
// lessonIndex.
func (s *Service) DeleteByLesson(ctx context.Context, userID, courseID string, lessonIndex int) error {
	lessonID, err := s.lessonAt(ctx, courseID, lessonIndex)
	if err != nil {
		return err
	}

	return s.delete(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("lesson_id", lessonID),
	))
}

func (s *Service) delete(ctx context.Context, pred *entsql.Predicate) error {
	affected, err := store.ExecBuilt(ctx, s.store, s.store.Builder().
		Delete("bookmarks").
		Where(pred))
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if affected == 0 {
		return ErrBookmarkNotFound
	}

	return nil
}
