// Package useraccount manages the user account and its lifecycle.
package useraccount

import (
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/store"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("coursetutor.useraccount")

type Context struct {
	store        *store.Store
	auth         auth.Storage
	eventService *events.EventService
}

func NewContext(s *store.Store, authStorage auth.Storage, eventService *events.EventService) *Context {
	return &Context{
		store:        s,
		auth:         authStorage,
		eventService: eventService,
	}
}
