package cli

import (
	"context"
	"fmt"
	"log/slog"
)

// Migrate creates the missing tables and indexes.
func (c *Context) Migrate(ctx context.Context) error {
	if err := c.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s database: %w", c.store.Dialect(), err)
	}

	slog.Info("database is up to date", "dialect", c.store.Dialect())
	return nil
}
