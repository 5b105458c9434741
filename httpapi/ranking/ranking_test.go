package rankingservice_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	rankingservice "github.com/coursetutor/backend/httpapi/ranking"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/auth/authtest"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/ranking"
	"github.com/coursetutor/backend/internal/scope"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertUser(t *testing.T, s *store.Store, id, name string) {
	t.Helper()

	now := time.Now()
	_, err := store.ExecBuilt(context.Background(), s, s.Builder().
		Insert("users").
		Columns("id", "email", "name", "password_hash", "avatar", "role", "created_at", "updated_at").
		Values(id, id+"@example.com", name, "", "", "student", now, now))
	require.NoError(t, err)
}

func TestRankingService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	s := testhelper.NewStore(t)
	insertUser(t, s, "alice", "Alice")
	insertUser(t, s, "bob", "Bob")

	granter := events.NewPointsGranter(s, nil)
	_, err := granter.GrantFirstCompletionPoints(ctx, "alice", "quiz-1")
	require.NoError(t, err)
	_, err = granter.GrantPerfectScorePoints(ctx, "alice", "quiz-1")
	require.NoError(t, err)
	_, err = granter.GrantFirstCompletionPoints(ctx, "bob", "quiz-1")
	require.NoError(t, err)

	storage := authtest.NewMemoryStorage()
	router := gin.New()
	router.Use(auth.Middleware(storage))
	rankingservice.NewRankingService(ranking.NewService(s)).Register(router.Group("/api"))

	token, err := storage.Create(ctx, auth.TokenInfo{
		UserID:    "alice",
		UserEmail: "alice@example.com",
		Machine:   "test",
		Scopes:    scope.Student,
	})
	require.NoError(t, err)

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("requires login", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get("/api/ranking", "").Code)
	})

	t.Run("defaults", func(t *testing.T) {
		rr := get("/api/ranking", token)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp rankingservice.RankingResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

		assert.Equal(t, ranking.ByPoints, resp.By)
		assert.Equal(t, ranking.PeriodWeekly, resp.Period)
		assert.Equal(t, 2, resp.Total)
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, ranking.Entry{Rank: 1, UserID: "alice", Name: "Alice", Score: 90}, resp.Entries[0])
		assert.Equal(t, ranking.Entry{Rank: 2, UserID: "bob", Name: "Bob", Score: 30}, resp.Entries[1])
	})

	t.Run("paging", func(t *testing.T) {
		rr := get("/api/ranking?period=all&limit=1&offset=1", token)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp rankingservice.RankingResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
		require.Len(t, resp.Entries, 1)
		assert.Equal(t, "bob", resp.Entries[0].UserID)
	})

	t.Run("no quizzes completed", func(t *testing.T) {
		rr := get("/api/ranking?by=completed_quizzes&period=daily", token)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"by":"completed_quizzes","period":"daily","total":0,"entries":[]}`, rr.Body.String())
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, path := range []string{
			"/api/ranking?by=stars",
			"/api/ranking?period=monthly",
			"/api/ranking?limit=abc",
			"/api/ranking?offset=-1",
		} {
			assert.Equal(t, http.StatusBadRequest, get(path, token).Code, path)
		}
	})
}
