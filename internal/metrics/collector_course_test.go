package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func insertCourse(t *testing.T, s *store.Store, difficulty string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now()
	_, err := store.ExecBuilt(context.Background(), s, s.Builder().
		Insert("courses").
		Columns("id", "owner_id", "title", "description", "author", "difficulty", "estimated_hours", "created_at", "updated_at").
		Values(id, "owner", "Title", "Description", "Author", difficulty, 3, now, now))
	require.NoError(t, err)

	return id
}

func insertAttempt(t *testing.T, s *store.Store, courseID, mastery string) {
	t.Helper()

	_, err := store.ExecBuilt(context.Background(), s, s.Builder().
		Insert("quiz_attempts").
		Columns("id", "user_id", "course_id", "lesson_id", "quiz_id", "correct_count", "total_questions", "percentage", "mastery", "answers", "completed_at").
		Values(uuid.NewString(), "user-1", courseID, "lesson", "quiz", 1, 2, 50, mastery, "[]", time.Now()))
	require.NoError(t, err)
}

func insertEnrollment(t *testing.T, s *store.Store, courseID, userID string, completed bool) {
	t.Helper()

	now := time.Now()
	var completedAt *time.Time
	if completed {
		completedAt = &now
	}

	_, err := store.ExecBuilt(context.Background(), s, s.Builder().
		Insert("enrollments").
		Columns("id", "user_id", "course_id", "completed_lessons", "progress", "current_lesson_id", "started_at", "updated_at", "completed_at").
		Values(uuid.NewString(), userID, courseID, "[]", 0, "", now, now, completedAt))
	require.NoError(t, err)
}

func TestCourseCollector_Collect(t *testing.T) {
	s := testhelper.NewStore(t)

	insertCourse(t, s, "beginner")
	insertCourse(t, s, "beginner")
	insertCourse(t, s, "advanced")

	expected := `
# HELP coursetutor_courses_total Total number of courses by difficulty
# TYPE coursetutor_courses_total gauge
coursetutor_courses_total{difficulty="advanced"} 1
coursetutor_courses_total{difficulty="beginner"} 2
`
	require.NoError(t, testutil.CollectAndCompare(NewCourseCollector(s), strings.NewReader(expected)))
}

func TestAttemptCollector_Collect(t *testing.T) {
	s := testhelper.NewStore(t)
	courseID := insertCourse(t, s, "beginner")

	insertAttempt(t, s, courseID, "novice")
	insertAttempt(t, s, courseID, "expert")
	insertAttempt(t, s, courseID, "expert")

	expected := `
# HELP coursetutor_quiz_attempts_total Total number of finished quiz attempts by mastery level
# TYPE coursetutor_quiz_attempts_total gauge
coursetutor_quiz_attempts_total{mastery="expert"} 2
coursetutor_quiz_attempts_total{mastery="novice"} 1
`
	require.NoError(t, testutil.CollectAndCompare(NewAttemptCollector(s), strings.NewReader(expected)))
}

func TestEnrollmentCollector_Collect(t *testing.T) {
	s := testhelper.NewStore(t)
	courseID := insertCourse(t, s, "beginner")

	insertEnrollment(t, s, courseID, "user-1", true)
	insertEnrollment(t, s, courseID, "user-2", false)
	insertEnrollment(t, s, courseID, "user-3", false)

	expected := `
# HELP coursetutor_enrollments_total Total number of enrollments by completion status
# TYPE coursetutor_enrollments_total gauge
coursetutor_enrollments_total{status="completed"} 1
coursetutor_enrollments_total{status="in_progress"} 2
`
	require.NoError(t, testutil.CollectAndCompare(NewEnrollmentCollector(s), strings.NewReader(expected)))
}
