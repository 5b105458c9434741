package useraccount

import (
	"context"

	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/metrics"
)

type grantTokenOptions struct {
	flow string
}

type GrantTokenOption func(*grantTokenOptions)

// WithFlow records how the token was obtained (password, register, google).
func WithFlow(flow string) GrantTokenOption {
	return func(o *grantTokenOptions) {
		o.flow = flow
	}
}

// GrantToken creates a new token for the user and records the login.
func (c *Context) GrantToken(ctx context.Context, user User, machine string, opts ...GrantTokenOption) (string, error) {
	options := &grantTokenOptions{
		flow: "undefined",
	}
	for _, opt := range opts {
		opt(options)
	}

	token, err := c.auth.Create(ctx, auth.TokenInfo{
		UserID:    user.ID,
		UserEmail: user.Email,
		Machine:   machine,
		Scopes:    user.Role.Scopes(),
		Meta: map[string]string{
			"initiate_from_flow": options.flow,
		},
	})
	if err != nil {
		return "", err
	}

	metrics.RecordLogin()
	c.eventService.TriggerEvent(ctx, events.Event{
		Type:   events.EventTypeLogin,
		UserID: user.ID,
		Payload: map[string]any{
			"machine": machine,
			"flow":    options.flow,
		},
	})

	return token, nil
}

// RevokeToken revokes a token of the user.
func (c *Context) RevokeToken(ctx context.Context, userID, token string) error {
	if err := c.auth.Delete(ctx, token); err != nil {
		return err
	}

	c.eventService.TriggerEvent(ctx, events.Event{
		Type:   events.EventTypeLogout,
		UserID: userID,
	})

	return nil
}

// RevokeAllTokens revokes all tokens for a user.
func (c *Context) RevokeAllTokens(ctx context.Context, userID string) error {
	return c.auth.DeleteByUser(ctx, userID)
}
