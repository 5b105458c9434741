package useraccount

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/store"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetRole changes the role of the user with the given email.
//
// Tokens granted before the change keep their old scopes, so they are revoked.
func (c *Context) SetRole(ctx context.Context, email string, role Role) (User, error) {
	user, err := c.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}

	_, err = store.ExecBuilt(ctx, c.store, c.store.Builder().
		Update("users").
		Set("role", string(role)).
		Set("updated_at", time.Now()).
		Where(entsql.EQ("id", user.ID)))
	if err != nil {
		return User{}, fmt.Errorf("update role: %w", err)
	}

	if err := c.RevokeAllTokens(ctx, user.ID); err != nil {
		return User{}, fmt.Errorf("revoke tokens: %w", err)
	}

	user.Role = role
	return user, nil
}

// DeleteUser deletes a user and revokes their tokens.
func (c *Context) DeleteUser(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "DeleteUser",
		trace.WithAttributes(
			attribute.String("user.id", userID),
		))
	defer span.End()

	affected, err := store.ExecBuilt(ctx, c.store, c.store.Builder().
		Delete("users").
		Where(entsql.EQ("id", userID)))
	if err != nil {
		span.SetStatus(otelcodes.Error, "Failed to delete user")
		span.RecordError(err)
		return err
	}
	if affected == 0 {
		span.SetStatus(otelcodes.Error, "User not found")
		return ErrUserNotFound
	}

	if err := c.RevokeAllTokens(ctx, userID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("revoke tokens: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "User deleted successfully")
	return nil
}
