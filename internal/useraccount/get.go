package useraccount

import (
	"context"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/store"
)

var userColumns = []string{"id", "email", "name", "password_hash", "avatar", "role", "created_at", "updated_at"}

func scanUser(rows *entsql.Rows) (User, error) {
	var (
		u    User
		role string
	)
	err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Avatar, &role, &u.CreatedAt, &u.UpdatedAt)
	u.Role = Role(role)

	return u, err
}

func (c *Context) getUserBy(ctx context.Context, pred *entsql.Predicate) (User, error) {
	var (
		user  User
		found bool
	)

	err := store.QueryBuilt(ctx, c.store, c.store.Builder().
		Select(userColumns...).
		From(entsql.Table("users")).
		Where(pred).
		Limit(1), func(rows *entsql.Rows) error {
		var err error
		user, err = scanUser(rows)
		found = true
		return err
	})
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	if !found {
		return User{}, ErrUserNotFound
	}

	return user, nil
}

func (c *Context) GetUser(ctx context.Context, userID string) (User, error) {
	return c.getUserBy(ctx, entsql.EQ("id", userID))
}

func (c *Context) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return c.getUserBy(ctx, entsql.EQ("email", normalizeEmail(email)))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
