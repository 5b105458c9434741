package testhelper

import (
	"context"
	"database/sql"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/workers"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// NewStore creates a migrated in-memory SQLite store for testing.
// Every call gets its own database.
func NewStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := sql.Open("sqlite3", "file:"+uuid.NewString()+"?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	s := store.New(dialect.SQLite, db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		// must wait the workers to finish
		workers.Global.Wait()

		if err := s.Close(); err != nil {
			t.Fatalf("Failed to close store: %v", err)
		}
	})

	return s
}
