// Package authservice provides the account endpoints: register, login,
// logout, the current user and the Google login.
package authservice

import (
	"net/http"

	"github.com/coursetutor/backend/httpapi"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/config"
	"github.com/coursetutor/backend/internal/gauth"
	"github.com/coursetutor/backend/internal/useraccount"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("coursetutor.httpapi.auth")

type AuthService struct {
	useraccount *useraccount.Context
	config      config.BackendConfig

	// gauthFlow is nil when the Google login is not configured.
	gauthFlow *gauth.Flow
}

func NewAuthService(useraccount *useraccount.Context, config config.BackendConfig, gauthFlow *gauth.Flow) *AuthService {
	return &AuthService{
		useraccount: useraccount,
		config:      config,
		gauthFlow:   gauthFlow,
	}
}

func (s *AuthService) Register(router gin.IRouter) {
	group := router.Group("/auth")

	group.POST("/register", s.RegisterAccount)
	group.POST("/login", s.Login)
	group.POST("/logout", s.Logout)
	group.GET("/me", auth.RequireScope(""), s.Me)

	if s.gauthFlow != nil {
		group.GET("/google/login", s.gauthFlow.Authorize)
		group.GET("/google/callback", s.GoogleCallback)
	}
}

// setTokenCookie hands the token to browser clients.
func (s *AuthService) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		/* name */ auth.CookieAuthToken,
		/* value */ token,
		/* maxAge */ int(s.config.Auth.TokenTTL.Seconds()),
		/* path */ "/",
		/* domain */ "",
		/* secure */ true,
		/* httpOnly */ true,
	)
}

func clearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieAuthToken, "", -1, "/", "", true, true)
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token string           `json:"token"`
	User  useraccount.User `json:"user"`
}

var _ httpapi.Service = (*AuthService)(nil)
