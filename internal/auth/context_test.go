package auth_test

import (
	"context"
	"testing"

	"github.com/coursetutor/backend/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContext(t *testing.T) {
	_, ok := auth.GetUser(context.Background())
	assert.False(t, ok)

	ctx := auth.WithUser(context.Background(), auth.TokenInfo{
		UserID:    "user-1",
		UserEmail: "user@example.com",
	})

	user, ok := auth.GetUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", user.UserID)
	assert.Equal(t, "user@example.com", user.UserEmail)
}
