package gauth

import (
	"context"
	"fmt"
	"testing"

	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewRedisStateStorage(testhelper.NewRedis(t))

	t.Run("new token has a ttl", func(t *testing.T) {
		token, err := storage.New(ctx, []byte("test-data"))
		require.NoError(t, err)
		require.NotEmpty(t, token)

		ttl, err := storage.getCurrentTTL(ctx, token)
		require.NoError(t, err)
		assert.InDelta(t, int64(stateTokenExpire.Seconds()), ttl, 5)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		token1, err := storage.New(ctx, nil)
		require.NoError(t, err)
		token2, err := storage.New(ctx, nil)
		require.NoError(t, err)

		assert.NotEqual(t, token1, token2)
	})

	t.Run("token can only be used once", func(t *testing.T) {
		token, err := storage.New(ctx, []byte("test-data"))
		require.NoError(t, err)

		data, err := storage.Use(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, []byte("test-data"), data)

		_, err = storage.Use(ctx, token)
		require.ErrorIs(t, err, ErrBadState)

		ttl, err := storage.getCurrentTTL(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, int64(-2), ttl)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := storage.Use(ctx, "non-existent-token")
		require.ErrorIs(t, err, ErrBadState)
	})

	t.Run("keeps data intact", func(t *testing.T) {
		for i, data := range [][]byte{
			[]byte(`{"redirect_uri":"https://example.com/callback"}`),
			{0x00, 0x01, 0xFF},
			[]byte(fmt.Sprintf("data-%d", 42)),
		} {
			token, err := storage.New(ctx, data)
			require.NoError(t, err)

			got, err := storage.Use(ctx, token)
			require.NoError(t, err)
			assert.Equal(t, data, got, "case %d", i)
		}
	})
}
