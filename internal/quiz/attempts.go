package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/store"
)

var attemptColumns = []string{
	"id", "user_id", "course_id", "lesson_id", "quiz_id",
	"correct_count", "total_questions", "percentage", "mastery", "answers", "completed_at",
}

func insertAttempt(ctx context.Context, s *store.Store, a Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	_, err = store.ExecBuilt(ctx, s, s.Builder().
		Insert("quiz_attempts").
		Columns(attemptColumns...).
		Values(a.ID, a.UserID, a.CourseID, a.LessonID, a.QuizID,
			a.CorrectCount, a.TotalQuestions, a.Percentage, string(a.Mastery), string(answers), a.CompletedAt))
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	return nil
}

// listAttempts returns the attempts of a user on a quiz, newest first.
func listAttempts(ctx context.Context, s *store.Store, userID, quizID string) ([]Attempt, error) {
	return queryAttempts(ctx, s, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("quiz_id", quizID),
	))
}

// listUserAttempts returns the attempts of a user finished between from
// and to, newest first. A nil bound is open.
func listUserAttempts(ctx context.Context, s *store.Store, userID string, from, to *time.Time) ([]Attempt, error) {
	predicates := []*entsql.Predicate{entsql.EQ("user_id", userID)}
	if from != nil {
		predicates = append(predicates, entsql.GTE("completed_at", *from))
	}
	if to != nil {
		predicates = append(predicates, entsql.LTE("completed_at", *to))
	}

	return queryAttempts(ctx, s, entsql.And(predicates...))
}

func queryAttempts(ctx context.Context, s *store.Store, pred *entsql.Predicate) ([]Attempt, error) {
	attempts := []Attempt{}

	err := store.QueryBuilt(ctx, s, s.Builder().
		Select(attemptColumns...).
		From(entsql.Table("quiz_attempts")).
		Where(pred).
		OrderBy(entsql.Desc("completed_at")), func(rows *entsql.Rows) error {
		var (
			a       Attempt
			mastery string
			answers string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.CourseID, &a.LessonID, &a.QuizID,
			&a.CorrectCount, &a.TotalQuestions, &a.Percentage, &mastery, &answers, &a.CompletedAt); err != nil {
			return err
		}
		a.Mastery = Mastery(mastery)
		if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
			return fmt.Errorf("unmarshal answers: %w", err)
		}

		attempts = append(attempts, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	return attempts, nil
}
