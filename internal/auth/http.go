package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coursetutor/backend/internal/scope"
	"github.com/gin-gonic/gin"
)

// CookieAuthToken is the cookie carrying the token for browser clients.
const CookieAuthToken = "auth-token"

var (
	// ErrBadTokenFormat is returned when the Authorization header is not in the correct Bearer format.
	ErrBadTokenFormat = errors.New("bad token format")
)

// Middleware decodes the Authorization header (or the auth cookie)
// and packs the user information into the request context.
//
// It aborts with 401 if the token is invalid. Requests without a
// token pass through anonymously.
func Middleware(storage Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		newCtx, err := ExtractToken(c.Request, storage)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "unauthorized",
				"detail": err.Error(),
			})
			return
		}

		c.Request = c.Request.WithContext(newCtx)
		c.Next()
	}
}

// RequireScope aborts with 401 for anonymous requests and 403 when
// the user does not have fnScope.
func RequireScope(fnScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "unauthorized",
				"detail": "login required",
			})
			return
		}

		if !scope.ShouldAllow(fnScope, user.Scopes) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  "forbidden",
				"detail": "missing scope " + fnScope,
			})
			return
		}

		c.Next()
	}
}

// ExtractToken extracts the token from the Authorization header, or
// the auth cookie when no header is present, and returns the context
// carrying the user information.
//
// It adds nothing to the context if the token is not present.
func ExtractToken(r *http.Request, storage Storage) (context.Context, error) {
	token, err := tokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return r.Context(), nil
	}

	tokenInfo, err := storage.Get(r.Context(), token)
	if err != nil {
		return nil, err
	}

	return WithUser(r.Context(), tokenInfo), nil
}

// TokenFromRequest returns the raw token of the request, or an empty string.
func TokenFromRequest(r *http.Request) string {
	token, _ := tokenFromRequest(r)
	return token
}

func tokenFromRequest(r *http.Request) (string, error) {
	if authHeaderContent := r.Header.Get("Authorization"); authHeaderContent != "" {
		token, ok := strings.CutPrefix(authHeaderContent, "Bearer ")
		if !ok {
			return "", ErrBadTokenFormat
		}

		return token, nil
	}

	cookie, err := r.Cookie(CookieAuthToken)
	if err != nil || cookie.Value == "" {
		return "", nil
	}

	return cookie.Value, nil
}
