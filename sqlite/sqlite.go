// Package sqlite stores reservations in an embedded SQLite database. It backs
// local development and tests; production runs on the postgres package.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nhatthm/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	// Registers the "sqlite" driver wrapped below.
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Config is the required properties to use the database.
type Config struct {
	// Path is a database file, or ":memory:".
	Path string
}

// Open opens the database file. All access goes through a single connection,
// which keeps a ":memory:" database alive for the life of the pool.
func Open(cfg Config) (*sqlx.DB, error) {
	driverName, err := otelsql.Register("sqlite",
		otelsql.AllowRoot(),
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsAffected(),
		otelsql.WithDatabaseName(cfg.Path),
		otelsql.WithSystem(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.Path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	return sqlx.NewDb(db, "sqlite"), nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
