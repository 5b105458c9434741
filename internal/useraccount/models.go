package useraccount

import (
	"errors"
	"time"

	"github.com/coursetutor/backend/internal/scope"
)

// Role decides the scope set of a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Scopes returns the scopes granted to the role.
func (r Role) Scopes() []string {
	if r == RoleAdmin {
		return scope.Admin
	}

	return scope.Student
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const MinPasswordLength = 8
