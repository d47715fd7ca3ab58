package storage

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"EngagementSync/internal/ports"
)

// SettingsRepository is the key/value settings table. The sync cursor lives here.
type SettingsRepository struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

var _ ports.CursorStore = (*SettingsRepository)(nil)

// NewSettingsRepository wires a sql.DB opened with driver.
func NewSettingsRepository(db *sql.DB, driver string) *SettingsRepository {
	return &SettingsRepository{db: db, sb: builder(driver)}
}

// Get returns the value under key and whether it exists.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := r.sb.Select("value").From("settings").Where(squirrel.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false, errors.Wrap(err, "build select")
	}

	var value string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, errors.Wrapf(err, "read setting %s", key)
	}
	return value, true, nil
}

// Set upserts value under key.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query, args, err := r.sb.Insert("settings").Columns("key", "value").Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value").ToSql()
	if err != nil {
		return errors.Wrap(err, "build upsert")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "write setting %s", key)
	}
	return nil
}
