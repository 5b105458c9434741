package quizservice_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coursetutor/backend/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e testEnv) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e testEnv) finishQuiz(t *testing.T, options ...int) {
	t.Helper()
	const base = "/lessons/1/quiz/session"

	rr, _ := e.do(t, http.MethodPost, base, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, option := range options {
		e.do(t, http.MethodPost, base+"/select", map[string]int{"option": option})
		e.do(t, http.MethodPost, base+"/submit", nil)
		rr, _ = e.do(t, http.MethodPost, base+"/next", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestCourseSummary(t *testing.T) {
	env := setup(t)

	rr := env.get("/api/courses/"+env.courseID+"/quiz-summary", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.get("/api/courses/missing/quiz-summary", env.token)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	env.finishQuiz(t, 1, 3, 1)

	rr = env.get("/api/courses/"+env.courseID+"/quiz-summary", env.token)
	require.Equal(t, http.StatusOK, rr.Code)

	var summary quiz.CourseSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, "Go", summary.CourseTitle)
	assert.Equal(t, 1, summary.TotalQuizzes)
	assert.Equal(t, 1, summary.CompletedQuizzes)
	assert.Equal(t, 67, summary.AverageScore)
	assert.Equal(t, []string{"Types"}, summary.WeakLessons)
	require.Len(t, summary.Quizzes, 1)
	assert.Equal(t, 1, summary.Quizzes[0].LessonIndex)
}

func TestDashboard(t *testing.T) {
	env := setup(t)

	rr := env.get("/api/me/quiz-dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	env.finishQuiz(t, 1, 0, 1)

	rr = env.get("/api/me/quiz-dashboard", env.token)
	require.Equal(t, http.StatusOK, rr.Code)

	var dashboard quiz.Dashboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dashboard))
	assert.Equal(t, 1, dashboard.TotalAttempts)
	assert.Equal(t, 100, dashboard.AverageScore)
	assert.Equal(t, quiz.MasteryExpert, dashboard.OverallMastery)
	require.Len(t, dashboard.Courses, 1)
	assert.Equal(t, env.courseID, dashboard.Courses[0].CourseID)
	require.Len(t, dashboard.ScoreHistory, 1)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(time.DateOnly)
	rr = env.get("/api/me/quiz-dashboard?from="+tomorrow, env.token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dashboard))
	assert.Zero(t, dashboard.TotalAttempts)

	for _, query := range []string{"?from=yesterday", "?to=13/01/2026", "?from=2026-02-01&to=2026-01-01"} {
		rr = env.get("/api/me/quiz-dashboard"+query, env.token)
		assert.Equal(t, http.StatusBadRequest, rr.Code, query)
	}
}
