// Package cli provides the administration tasks run by the admin CLI.
package cli

import (
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/useraccount"
)

// Context is the context for the CLI.
type Context struct {
	store       *store.Store
	useraccount *useraccount.Context
	courses     *course.Service
}

// NewContext creates a new Context.
func NewContext(s *store.Store, ua *useraccount.Context, courses *course.Service) *Context {
	return &Context{
		store:       s,
		useraccount: ua,
		courses:     courses,
	}
}
