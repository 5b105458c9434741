package authservice

import (
	"errors"
	"net/http"

	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/useraccount"
	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks the credentials and grants a token, also set as cookie.
// POST /api/auth/login
func (s *AuthService) Login(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "Login")
	defer span.End()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.BadRequest(c, err)
		return
	}

	user, err := s.useraccount.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, useraccount.ErrInvalidCredentials) {
			httputils.Error(c, http.StatusUnauthorized, "invalid email or password", nil)
			return
		}

		span.RecordError(err)
		httputils.Error(c, http.StatusInternalServerError, "failed to login", err)
		return
	}

	token, err := s.useraccount.GrantToken(ctx, user, httputils.GetMachineName(ctx), useraccount.WithFlow("password"))
	if err != nil {
		span.RecordError(err)
		httputils.Error(c, http.StatusInternalServerError, "failed to grant token", err)
		return
	}

	s.setTokenCookie(c, token)
	c.JSON(http.StatusOK, TokenResponse{Token: token, User: user})
}

// Logout revokes the token of the request and clears the cookie.
// POST /api/auth/logout
func (s *AuthService) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := auth.GetUser(ctx)
	token := auth.TokenFromRequest(c.Request)
	if !ok || token == "" {
		httputils.Error(c, http.StatusUnauthorized, "You should be logged in to logout.", nil)
		return
	}

	if err := s.useraccount.RevokeToken(ctx, user.UserID, token); err != nil && !errors.Is(err, auth.ErrNotFound) {
		httputils.Error(c, http.StatusInternalServerError, "Failed to revoke the token. Please try again later.", err)
		return
	}

	clearTokenCookie(c)
	c.Status(http.StatusResetContent)
}

// MeResponse is the authentication status of the request.
type MeResponse struct {
	User   useraccount.User `json:"user"`
	Scopes []string         `json:"scopes"`
}

// Me returns the logged-in user.
// GET /api/auth/me
func (s *AuthService) Me(c *gin.Context) {
	ctx := c.Request.Context()
	info, _ := auth.GetUser(ctx)

	user, err := s.useraccount.GetUser(ctx, info.UserID)
	if err != nil {
		if errors.Is(err, useraccount.ErrUserNotFound) {
			httputils.Error(c, http.StatusUnauthorized, "unauthorized", err)
			return
		}

		httputils.Error(c, http.StatusInternalServerError, "failed to get user", err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: user, Scopes: info.Scopes})
}
