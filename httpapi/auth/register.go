package authservice

import (
	"errors"
	"net/http"

	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/useraccount"
	"github.com/coursetutor/backend/internal/validation"
	"github.com/gin-gonic/gin"
)

// RegisterAccount creates a student account and logs it in.
// POST /api/auth/register
func (s *AuthService) RegisterAccount(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "RegisterAccount")
	defer span.End()

	var req useraccount.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.BadRequest(c, err)
		return
	}

	user, err := s.useraccount.Register(ctx, req)
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			httputils.ValidationError(c, verr.Fields)
		case errors.Is(err, useraccount.ErrEmailExists):
			httputils.Error(c, http.StatusConflict, "email already registered", nil)
		default:
			span.RecordError(err)
			httputils.Error(c, http.StatusInternalServerError, "failed to register", err)
		}
		return
	}

	token, err := s.useraccount.GrantToken(ctx, user, httputils.GetMachineName(ctx), useraccount.WithFlow("register"))
	if err != nil {
		span.RecordError(err)
		httputils.Error(c, http.StatusInternalServerError, "failed to grant token", err)
		return
	}

	s.setTokenCookie(c, token)
	c.JSON(http.StatusCreated, TokenResponse{Token: token, User: user})
}
