// Package httputils provides utilities for HTTP requests.
package httputils

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type httputilsContextKey string

const (
	// contextKeyMachine is the key for the machine name in the context.
	contextKeyMachine httputilsContextKey = "httputils:machine"
)

// MachineMiddleware puts the User-Agent header into the context.
// The machine name is recorded in the tokens granted to the request.
func MachineMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		newCtx := context.WithValue(c.Request.Context(), contextKeyMachine, c.GetHeader("User-Agent"))
		c.Request = c.Request.WithContext(newCtx)
		c.Next()
	}
}

// GetMachineName returns the machine name from the context.
func GetMachineName(ctx context.Context) string {
	if machine, ok := ctx.Value(contextKeyMachine).(string); ok && machine != "" {
		return machine
	}

	return "unknown"
}

// Error writes the standard error body and aborts the request.
func Error(c *gin.Context, status int, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}

	c.AbortWithStatusJSON(status, body)
}

// ValidationError writes a 422 with the per-field messages.
func ValidationError(c *gin.Context, fields map[string]string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "validation failed",
		"fields": fields,
	})
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, err error) {
	Error(c, http.StatusBadRequest, "bad request", err)
}

// IntParam parses the path parameter name as an integer.
func IntParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}

	return v, nil
}
