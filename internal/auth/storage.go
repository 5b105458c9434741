package auth

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("no such token")

// Storage is the storage for authentication token.
type Storage interface {
	// Get the token info of the given token and extend its expiration time.
	//
	// Error is implementation-defined except for ErrNotFound.
	// ErrNotFound is returned when the token is not found.
	Get(ctx context.Context, token string) (TokenInfo, error)

	// Peek the token info of the given token. It does not extend the expiration time.
	//
	// Error is implementation-defined except for ErrNotFound.
	Peek(ctx context.Context, token string) (TokenInfo, error)

	// Create a new token carrying info and return it.
	Create(ctx context.Context, info TokenInfo) (string, error)

	// Delete the specified token.
	//
	// ErrNotFound is returned when the token is not found.
	Delete(ctx context.Context, token string) error

	// DeleteByUser deletes every token of the given user.
	DeleteByUser(ctx context.Context, userID string) error
}

// TokenInfo is the information of the token.
type TokenInfo struct {
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	Machine   string `json:"machine"` // the client the token was issued to

	Scopes []string          `json:"scopes"`
	Meta   map[string]string `json:"meta,omitempty"`
}

var (
	ErrValidationRequireUserID    = errors.New("user ID is required")
	ErrValidationRequireUserEmail = errors.New("user email is required")
	ErrValidationRequireMachine   = errors.New("machine is required")
	ErrValidationAtLeastOneScope  = errors.New("at least one scope is required")
)

func (t TokenInfo) Validate() error {
	if t.UserID == "" {
		return ErrValidationRequireUserID
	}

	if t.UserEmail == "" {
		return ErrValidationRequireUserEmail
	}

	if t.Machine == "" {
		return ErrValidationRequireMachine
	}

	if len(t.Scopes) == 0 {
		return ErrValidationAtLeastOneScope
	}

	return nil
}

// DefaultTokenExpire is the default sliding lifetime of a token.
const DefaultTokenExpire = 8 * time.Hour
