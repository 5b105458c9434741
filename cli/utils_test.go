package cli_test

import (
	"testing"

	"github.com/coursetutor/backend/cli"
	"github.com/coursetutor/backend/internal/auth/authtest"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/coursetutor/backend/internal/useraccount"
)

type TestContext struct {
	store       *store.Store
	authStorage *authtest.MemoryStorage
	useraccount *useraccount.Context
	courses     *course.Service
}

func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	s := testhelper.NewStore(t)
	eventService := events.NewEventService(s)
	authStorage := authtest.NewMemoryStorage()

	return &TestContext{
		store:       s,
		authStorage: authStorage,
		useraccount: useraccount.NewContext(s, authStorage, eventService),
		courses:     course.NewService(s, eventService),
	}
}

func (tc *TestContext) GetContext(t *testing.T) *cli.Context {
	t.Helper()

	return cli.NewContext(tc.store, tc.useraccount, tc.courses)
}
