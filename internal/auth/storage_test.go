package auth_test

import (
	"testing"

	"github.com/coursetutor/backend/internal/auth"
	"github.com/stretchr/testify/require"
)

func TestTokenInfo_Validate(t *testing.T) {
	valid := auth.TokenInfo{
		UserID:    "user-1",
		UserEmail: "test@example.com",
		Machine:   "web",
		Scopes:    []string{"*"},
	}

	t.Run("valid token info", func(t *testing.T) {
		require.NoError(t, valid.Validate())
	})

	cases := []struct {
		name   string
		modify func(*auth.TokenInfo)
		err    error
	}{
		{"user id is empty", func(i *auth.TokenInfo) { i.UserID = "" }, auth.ErrValidationRequireUserID},
		{"user email is empty", func(i *auth.TokenInfo) { i.UserEmail = "" }, auth.ErrValidationRequireUserEmail},
		{"machine is empty", func(i *auth.TokenInfo) { i.Machine = "" }, auth.ErrValidationRequireMachine},
		{"no scopes", func(i *auth.TokenInfo) { i.Scopes = nil }, auth.ErrValidationAtLeastOneScope},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := valid
			tc.modify(&info)
			require.ErrorIs(t, info.Validate(), tc.err)
		})
	}
}
