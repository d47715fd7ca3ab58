// Package storage persists items and the sync cursor in Postgres or SQLite.
package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"EngagementSync/internal/config"
)

const pingAttempts = 5

var schemas = map[string][]string{
	config.DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS items (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL,
			links        TEXT NOT NULL DEFAULT '{}',
			views        BIGINT NOT NULL DEFAULT 0,
			likes        BIGINT NOT NULL DEFAULT 0,
			comments     BIGINT NOT NULL DEFAULT 0,
			publish_date TIMESTAMPTZ NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS items_status_idx ON items (status)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	},
	config.DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS items (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL,
			links        TEXT NOT NULL DEFAULT '{}',
			views        INTEGER NOT NULL DEFAULT 0,
			likes        INTEGER NOT NULL DEFAULT 0,
			comments     INTEGER NOT NULL DEFAULT 0,
			publish_date TIMESTAMP NULL,
			created_at   TIMESTAMP NOT NULL,
			updated_at   TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS items_status_idx ON items (status)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	},
}

// Open connects to driver/dsn, retries the initial ping with exponential
// backoff and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if _, ok := schemas[driver]; !ok {
		return nil, errors.Newf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if driver == config.DriverSQLite {
		// SQLite serialises writers; a single connection also keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	}

	ping := func() (struct{}, error) {
		return struct{}{}, db.PingContext(ctx)
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("database not ready, retrying", "driver", driver, "error", err, "retry_in", next)
	}
	if _, err := backoff.Retry(ctx, ping,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(pingAttempts),
		backoff.WithNotify(notify),
	); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping %s", driver)
	}

	if err := Migrate(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the items and settings tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	for _, stmt := range schemas[driver] {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	return nil
}

func builder(driver string) squirrel.StatementBuilderType {
	if driver == config.DriverPostgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}
