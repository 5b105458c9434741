package useraccount

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/authutil"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/validation"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	fields := validation.FieldErrors{}

	if strings.TrimSpace(r.Email) == "" {
		fields.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		fields.Add("email", "Email is invalid")
	}
	if strings.TrimSpace(r.Name) == "" {
		fields.Add("name", "Name is required")
	}
	if len(r.Password) < MinPasswordLength {
		fields.Add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	return fields.Err()
}

// Register creates a student account with a password.
func (c *Context) Register(ctx context.Context, req RegisterRequest) (User, error) {
	if err := req.Validate(); err != nil {
		return User{}, err
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return User{}, err
	}

	user, err := c.createUser(ctx, req.Email, strings.TrimSpace(req.Name), hash, "")
	if err != nil {
		return User{}, err
	}

	c.eventService.TriggerEvent(ctx, events.Event{
		Type:   events.EventTypeRegister,
		UserID: user.ID,
		Payload: map[string]any{
			"flow": "password",
		},
	})

	return user, nil
}

type GoogleUser struct {
	Email  string
	Name   string
	Avatar string
}

// GetOrRegister returns the user with the given email, creating a
// password-less student account on the first login.
func (c *Context) GetOrRegister(ctx context.Context, req GoogleUser) (User, error) {
	user, err := c.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("check user existence: %w", err)
	}

	name := req.Name
	if name == "" {
		name = req.Email
	}

	user, err = c.createUser(ctx, req.Email, name, "", req.Avatar)
	if err != nil {
		return User{}, err
	}

	c.eventService.TriggerEvent(ctx, events.Event{
		Type:   events.EventTypeRegister,
		UserID: user.ID,
		Payload: map[string]any{
			"flow": "google",
		},
	})

	return user, nil
}

func (c *Context) createUser(ctx context.Context, email, name, passwordHash, avatar string) (User, error) {
	email = normalizeEmail(email)

	exists, err := store.Count(ctx, c.store, c.store.Builder().
		Select(entsql.Count("*")).
		From(entsql.Table("users")).
		Where(entsql.EQ("email", email)))
	if err != nil {
		return User{}, fmt.Errorf("check user existence: %w", err)
	}
	if exists > 0 {
		return User{}, ErrEmailExists
	}

	now := time.Now()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Avatar:       avatar,
		Role:         RoleStudent,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = store.ExecBuilt(ctx, c.store, c.store.Builder().
		Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Email, user.Name, user.PasswordHash, user.Avatar, string(user.Role), user.CreatedAt, user.UpdatedAt))
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}
