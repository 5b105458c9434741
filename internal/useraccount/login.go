package useraccount

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursetutor/backend/internal/authutil"
)

// Login checks the email and password of a user.
//
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (c *Context) Login(ctx context.Context, email, password string) (User, error) {
	user, err := c.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}

		return User{}, err
	}

	if err := authutil.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, authutil.ErrPasswordMismatch) {
			return User{}, ErrInvalidCredentials
		}

		return User{}, fmt.Errorf("check password: %w", err)
	}

	return user, nil
}
