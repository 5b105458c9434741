package quiz

import (
	"context"
	"testing"
	"time"

	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSessionStorage(t *testing.T, storage SessionStorage) {
	t.Helper()
	ctx := context.Background()

	_, err := storage.Get(ctx, "user-1", "lesson-1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	session := NewSession(Quiz{ID: "quiz-1", Questions: []Question{
		{ID: "q1", Prompt: "a?", Options: []string{"x", "y"}, CorrectIndex: 1},
	}})
	require.NoError(t, session.Start())
	require.NoError(t, session.Select(1))
	require.NoError(t, storage.Save(ctx, "user-1", "lesson-1", session))

	got, err := storage.Get(ctx, "user-1", "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseAnswering, got.Phase)
	require.NotNil(t, got.Selected)
	assert.Equal(t, 1, *got.Selected)
	assert.Equal(t, "quiz-1", got.Quiz.ID)

	_, err = storage.Get(ctx, "user-2", "lesson-1")
	require.ErrorIs(t, err, ErrSessionNotFound, "sessions are per user")

	t.Run("compare and save", func(t *testing.T) {
		stale, err := storage.Get(ctx, "user-1", "lesson-1")
		require.NoError(t, err)
		version := stale.Version

		fresh, err := storage.Get(ctx, "user-1", "lesson-1")
		require.NoError(t, err)
		_, err = fresh.Submit()
		require.NoError(t, err)
		fresh.Version = version + 1
		require.NoError(t, storage.CompareAndSave(ctx, "user-1", "lesson-1", fresh, version))

		stale.Version = version + 1
		require.ErrorIs(t, storage.CompareAndSave(ctx, "user-1", "lesson-1", stale, version), ErrSessionConflict)

		got, err := storage.Get(ctx, "user-1", "lesson-1")
		require.NoError(t, err)
		assert.Equal(t, PhaseFeedback, got.Phase, "the stale write is rejected")
		assert.Equal(t, version+1, got.Version)

		require.ErrorIs(t, storage.CompareAndSave(ctx, "user-3", "lesson-1", fresh, 0), ErrSessionNotFound)
	})

	require.NoError(t, storage.Delete(ctx, "user-1", "lesson-1"))
	require.NoError(t, storage.Delete(ctx, "user-1", "lesson-1"))
	_, err = storage.Get(ctx, "user-1", "lesson-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStorage(t *testing.T) {
	testSessionStorage(t, NewMemorySessionStorage())
}

func TestRedisSessionStorage(t *testing.T) {
	redis := testhelper.NewRedis(t)

	t.Run("round trip", func(t *testing.T) {
		testSessionStorage(t, NewRedisSessionStorage(redis, time.Hour))
	})

	t.Run("expire", func(t *testing.T) {
		storage := NewRedisSessionStorage(redis, 5*time.Minute)
		ctx := context.Background()

		require.NoError(t, storage.Save(ctx, "user-ttl", "lesson-ttl", NewSession(Quiz{})))

		ttl, err := storage.getCurrentTTL(ctx, "user-ttl", "lesson-ttl")
		require.NoError(t, err)
		assert.Greater(t, ttl, int64(0))
		assert.LessOrEqual(t, ttl, int64(300))
	})

	t.Run("default expire", func(t *testing.T) {
		storage := NewRedisSessionStorage(redis, 0)
		assert.Equal(t, DefaultSessionExpire, storage.expire)
	})
}
