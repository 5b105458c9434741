package authservice

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/coursetutor/backend/internal/gauth"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/useraccount"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
)

// GoogleCallback finishes the Google login and sends the browser back
// to the client with the token cookie set.
// GET /api/auth/google/callback
func (s *AuthService) GoogleCallback(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GoogleCallback")
	defer span.End()

	info, redirectURI, err := s.gauthFlow.Exchange(ctx, c.Query("state"), c.Query("code"))
	if err != nil {
		span.SetStatus(otelcodes.Error, "exchange failed")
		span.RecordError(err)

		// the state could not be read, so there is nowhere to send the browser
		if redirectURI == "" {
			status := http.StatusInternalServerError
			if errors.Is(err, gauth.ErrBadState) || errors.Is(err, gauth.ErrMissingCode) {
				status = http.StatusBadRequest
			}
			httputils.Error(c, status, "google login failed", err)
			return
		}

		redirectWithError(c, redirectURI, "exchange_failed")
		return
	}

	span.SetAttributes(attribute.String("user.email", info.Email))

	user, err := s.useraccount.GetOrRegister(ctx, useraccount.GoogleUser{
		Email:  info.Email,
		Name:   info.Name,
		Avatar: info.Picture,
	})
	if err != nil {
		span.RecordError(err)
		redirectWithError(c, redirectURI, "register_failed")
		return
	}

	token, err := s.useraccount.GrantToken(ctx, user, httputils.GetMachineName(ctx), useraccount.WithFlow("google"))
	if err != nil {
		span.RecordError(err)
		redirectWithError(c, redirectURI, "grant_token_failed")
		return
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	s.setTokenCookie(c, token)
	c.Redirect(http.StatusFound, redirectURI)
}

func redirectWithError(c *gin.Context, redirectURI, code string) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		httputils.Error(c, http.StatusInternalServerError, "invalid redirect uri", err)
		return
	}

	q := u.Query()
	q.Set("error", code)
	u.RawQuery = q.Encode()

	c.Redirect(http.StatusFound, u.String())
}
