// Package store opens the relational database and provides a dialect-aware
// SQL builder shared by the repositories.
//
// SQLite is used for local development and tests, PostgreSQL in production.
// Queries are built with ent's dialect/sql builder so the same repository
// code renders the right placeholders and quoting for both.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/config"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Store wraps the ent SQL driver.
type Store struct {
	drv *entsql.Driver
}

// New wraps an opened *sql.DB of the given ent dialect.
func New(dialectName string, db *sql.DB) *Store {
	return &Store{drv: entsql.OpenDB(dialectName, db)}
}

// Open opens the database described by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite:
		db, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		// sqlite only allows a single writer.
		db.SetMaxOpenConns(1)

		return New(dialect.SQLite, db), nil
	case config.DatabaseDriverPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool: %w", err)
		}

		return New(dialect.Postgres, stdlib.OpenDBFromPool(pool)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Dialect returns the ent dialect name.
func (s *Store) Dialect() string {
	return s.drv.Dialect()
}

// Builder returns a SQL builder for the store's dialect.
func (s *Store) Builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

// Close closes the database.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.drv.DB().PingContext(ctx)
}

// Querier is the subset of the driver that can run statements.
// Both *Store and the transaction passed to WithTx implement it.
type Querier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

var _ Querier = (*Store)(nil)

func (s *Store) Exec(ctx context.Context, query string, args, v any) error {
	return s.drv.Exec(ctx, query, args, v)
}

func (s *Store) Query(ctx context.Context, query string, args, v any) error {
	return s.drv.Query(ctx, query, args, v)
}

// WithTx runs fn inside a transaction. The transaction is rolled back
// if fn returns an error.
func (s *Store) WithTx(ctx context.Context, fn func(tx Querier) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Statement is something that renders a SQL statement.
type Statement interface {
	Query() (string, []any)
}

// ExecBuilt renders b and executes it on q, returning the number of affected rows.
func ExecBuilt(ctx context.Context, q Querier, b Statement) (int64, error) {
	query, args := b.Query()

	var res sql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// QueryBuilt renders b and runs it on q, calling scan for every row.
func QueryBuilt(ctx context.Context, q Querier, b Statement, scan func(rows *entsql.Rows) error) error {
	query, args := b.Query()

	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}

	return rows.Err()
}

// Count runs a COUNT(*) selector and returns its value.
func Count(ctx context.Context, q Querier, selector *entsql.Selector) (int, error) {
	var total int
	err := QueryBuilt(ctx, q, selector, func(rows *entsql.Rows) error {
		return rows.Scan(&total)
	})

	return total, err
}
