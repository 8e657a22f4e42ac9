// Package postgres stores reservations in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	"github.com/jmoiron/sqlx"
	"github.com/nhatthm/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

//go:embed migrations
var migrations embed.FS

// Config describes how to reach the reservations database.
type Config struct {
	User         string
	Password     string
	Host         string
	Name         string
	MaxIdleConns int
	MaxOpenConns int
	DisableTLS   bool
}

// DSN renders the connection URL. Sessions run in UTC.
func (cfg Config) DSN() string {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	return (&url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host,
		Path:   cfg.Name,
		RawQuery: url.Values{
			"sslmode":  {sslMode},
			"timezone": {"utc"},
		}.Encode(),
	}).String()
}

// Open returns a traced connection pool. It does not dial the server; use
// StatusCheck for that.
func Open(cfg Config) (*sqlx.DB, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.AllowRoot(),
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithDatabaseName(cfg.Name),
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("registering traced driver: %w", err)
	}

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := otelsql.RecordStats(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("recording pool stats: %w", err)
	}

	// The traced driver has its own name; sqlx needs the real one for binds.
	return sqlx.NewDb(db, "postgres"), nil
}

// StatusCheck pings db until it answers or ctx ends, backing off a little
// longer after each failed attempt, then runs one query as a round trip.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			break
		}

		wait := time.NewTimer(time.Duration(attempt) * 100 * time.Millisecond)
		select {
		case <-ctx.Done():
			wait.Stop()
			return fmt.Errorf("ping failed after %d attempts: %w", attempt, ctx.Err())
		case <-wait.C:
		}
	}

	var ok bool
	if err := db.QueryRowContext(ctx, `SELECT true`).Scan(&ok); err != nil {
		return fmt.Errorf("round trip: %w", err)
	}
	return nil
}

// Migrate applies the embedded migrations that db has not seen yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("db status check: %w", err)
	}

	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	switch err := m.Up(); {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
		return nil
	default:
		return fmt.Errorf("applying migrations: %w", err)
	}
}

func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	source, err := httpfs.New(http.FS(migrations), "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	target, err := postgres.WithInstance(db.DB, &postgres.Config{MigrationsTable: "frontdesk_migrations"})
	if err != nil {
		return nil, fmt.Errorf("preparing migration target: %w", err)
	}

	return migrate.NewWithInstance("httpfs", source, "postgres", target)
}
