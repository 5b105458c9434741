package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursetutor/backend/internal/useraccount"
)

// PromoteAdmin makes the user with the given email an administrator.
// The user has to log in again to get the new scopes.
func (c *Context) PromoteAdmin(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := c.useraccount.SetRole(ctx, email, useraccount.RoleAdmin)
	if err != nil {
		if errors.Is(err, useraccount.ErrUserNotFound) {
			return fmt.Errorf("user with email %q not found", email)
		}

		return err
	}

	if user.Role != useraccount.RoleAdmin {
		return fmt.Errorf("user %q was not promoted", email)
	}

	return nil
}
