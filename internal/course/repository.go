package course

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/quiz"
	"github.com/coursetutor/backend/internal/store"
	"github.com/samber/lo"
)

var courseColumns = []string{
	"id", "owner_id", "title", "description", "author", "difficulty", "estimated_hours", "created_at", "updated_at",
}

var lessonColumns = []string{"id", "course_id", "position", "title", "content", "quiz"}

func scanCourse(rows *entsql.Rows) (Course, error) {
	var (
		c          Course
		difficulty string
	)
	err := rows.Scan(&c.ID, &c.OwnerID, &c.Title, &c.Description, &c.Author, &difficulty, &c.EstimatedHours, &c.CreatedAt, &c.UpdatedAt)
	c.Difficulty = Difficulty(difficulty)

	return c, err
}

func insertCourse(ctx context.Context, q store.Querier, b *entsql.DialectBuilder, c Course) error {
	_, err := store.ExecBuilt(ctx, q, b.
		Insert("courses").
		Columns(courseColumns...).
		Values(c.ID, c.OwnerID, c.Title, c.Description, c.Author, string(c.Difficulty), c.EstimatedHours, c.CreatedAt, c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}

	return insertLessons(ctx, q, b, c.ID, c.Lessons)
}

func insertLessons(ctx context.Context, q store.Querier, b *entsql.DialectBuilder, courseID string, lessons []Lesson) error {
	if len(lessons) == 0 {
		return nil
	}

	insert := b.Insert("lessons").Columns(lessonColumns...)
	for _, l := range lessons {
		quizJSON, err := encodeQuiz(l.Quiz)
		if err != nil {
			return err
		}

		insert.Values(l.ID, courseID, l.Position, l.Title, l.Content, quizJSON)
	}

	if _, err := store.ExecBuilt(ctx, q, insert); err != nil {
		return fmt.Errorf("insert lessons: %w", err)
	}

	return nil
}

// replaceLessons swaps the whole lesson list of a course.
func replaceLessons(ctx context.Context, q store.Querier, b *entsql.DialectBuilder, courseID string, lessons []Lesson) error {
	if _, err := store.ExecBuilt(ctx, q, b.Delete("lessons").Where(entsql.EQ("course_id", courseID))); err != nil {
		return fmt.Errorf("delete lessons: %w", err)
	}

	return insertLessons(ctx, q, b, courseID, lessons)
}

func updateCourse(ctx context.Context, q store.Querier, b *entsql.DialectBuilder, c Course) error {
	affected, err := store.ExecBuilt(ctx, q, b.
		Update("courses").
		Set("title", c.Title).
		Set("description", c.Description).
		Set("author", c.Author).
		Set("difficulty", string(c.Difficulty)).
		Set("estimated_hours", c.EstimatedHours).
		Set("updated_at", c.UpdatedAt).
		Where(entsql.EQ("id", c.ID)))
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected == 0 {
		return ErrCourseNotFound
	}

	return replaceLessons(ctx, q, b, c.ID, c.Lessons)
}

func encodeQuiz(q *quiz.Quiz) (string, error) {
	if q == nil {
		return "", nil
	}

	raw, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("marshal quiz: %w", err)
	}

	return string(raw), nil
}

func decodeQuiz(raw string) (*quiz.Quiz, error) {
	if raw == "" {
		return nil, nil
	}

	var q quiz.Quiz
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}

	return &q, nil
}

func (s *Service) getCourse(ctx context.Context, id string) (Course, error) {
	var (
		c     Course
		found bool
	)

	err := store.QueryBuilt(ctx, s.store, s.store.Builder().
		Select(courseColumns...).
		From(entsql.Table("courses")).
		Where(entsql.EQ("id", id)).
		Limit(1), func(rows *entsql.Rows) error {
		var err error
		c, err = scanCourse(rows)
		found = true
		return err
	})
	if err != nil {
		return Course{}, fmt.Errorf("query course: %w", err)
	}
	if !found {
		return Course{}, ErrCourseNotFound
	}

	c.Lessons, err = s.getLessons(ctx, id)
	if err != nil {
		return Course{}, err
	}

	return c, nil
}

func (s *Service) getLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	lessons := []Lesson{}

	err := store.QueryBuilt(ctx, s.store, s.store.Builder().
		Select("id", "position", "title", "content", "quiz").
		From(entsql.Table("lessons")).
		Where(entsql.EQ("course_id", courseID)).
		OrderBy("position"), func(rows *entsql.Rows) error {
		var (
			l        Lesson
			quizJSON string
		)
		if err := rows.Scan(&l.ID, &l.Position, &l.Title, &l.Content, &quizJSON); err != nil {
			return err
		}

		var err error
		if l.Quiz, err = decodeQuiz(quizJSON); err != nil {
			return err
		}

		lessons = append(lessons, l)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}

	return lessons, nil
}

func (s *Service) listCourses(ctx context.Context, f Filter) ([]Summary, int, error) {
	var preds []*entsql.Predicate
	if f.Difficulty != "" {
		preds = append(preds, entsql.EQ("difficulty", string(f.Difficulty)))
	}
	if f.Query != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold("title", f.Query),
			entsql.ContainsFold("description", f.Query),
			entsql.ContainsFold("author", f.Query),
		))
	}

	where := func(sel *entsql.Selector) *entsql.Selector {
		if len(preds) > 0 {
			sel.Where(entsql.And(preds...))
		}
		return sel
	}

	total, err := store.Count(ctx, s.store, where(s.store.Builder().
		Select(entsql.Count("*")).
		From(entsql.Table("courses"))))
	if err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	summaries := []Summary{}
	err = store.QueryBuilt(ctx, s.store, where(s.store.Builder().
		Select(courseColumns...).
		From(entsql.Table("courses"))).
		OrderBy(entsql.Desc("created_at"), "id").
		Limit(f.EffectiveLimit()).
		Offset(max(f.Offset, 0)), func(rows *entsql.Rows) error {
		c, err := scanCourse(rows)
		if err != nil {
			return err
		}

		summaries = append(summaries, Summary{
			ID:             c.ID,
			OwnerID:        c.OwnerID,
			Title:          c.Title,
			Description:    c.Description,
			Author:         c.Author,
			Difficulty:     c.Difficulty,
			EstimatedHours: c.EstimatedHours,
			CreatedAt:      c.CreatedAt,
			UpdatedAt:      c.UpdatedAt,
		})
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	counts, err := s.lessonCounts(ctx, lo.Map(summaries, func(c Summary, _ int) string { return c.ID }))
	if err != nil {
		return nil, 0, err
	}
	for i := range summaries {
		summaries[i].LessonCount = counts[summaries[i].ID]
	}

	return summaries, total, nil
}

func (s *Service) lessonCounts(ctx context.Context, courseIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	err := store.QueryBuilt(ctx, s.store, s.store.Builder().
		Select("course_id", entsql.Count("*")).
		From(entsql.Table("lessons")).
		Where(entsql.In("course_id", lo.ToAnySlice(courseIDs)...)).
		GroupBy("course_id"), func(rows *entsql.Rows) error {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return err
		}

		counts[id] = count
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}

	return counts, nil
}
