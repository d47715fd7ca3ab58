// Package gate decides whether a sync cycle is due, based on a single
// timestamp cursor kept in a key/value store.
package gate

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"EngagementSync/internal/ports"
)

const (
	// DefaultInterval is the cycle cadence.
	DefaultInterval = 24 * time.Hour
	// CursorKey holds the last sync time as epoch milliseconds.
	CursorKey = "stats_sync.last_synced_at"
)

// Gate tracks the sync cursor and answers whether a new cycle is due.
type Gate struct {
	store    ports.CursorStore
	interval time.Duration
	key      string
	logger   *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithKey stores the cursor under a different key.
func WithKey(key string) Option {
	return func(g *Gate) {
		if key != "" {
			g.key = key
		}
	}
}

// WithLogger sets the logger used to report unreadable cursors.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

// New builds a gate over store.
func New(store ports.CursorStore, opts ...Option) *Gate {
	g := &Gate{
		store:    store,
		interval: DefaultInterval,
		key:      CursorKey,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Interval returns the configured cadence.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// LastSyncTime returns the cursor and whether one is recorded. A value that
// cannot be parsed counts as absent.
func (g *Gate) LastSyncTime(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := g.store.Get(ctx, g.key)
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "read sync cursor")
	}
	if !ok {
		return time.Time{}, false, nil
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("ignoring unreadable sync cursor", "key", g.key, "value", raw, "error", err)
		}
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// MarkSynced overwrites the cursor with now.
func (g *Gate) MarkSynced(ctx context.Context, now time.Time) error {
	value := strconv.FormatInt(now.UnixMilli(), 10)
	if err := g.store.Set(ctx, g.key, value); err != nil {
		return errors.Wrap(err, "write sync cursor")
	}
	return nil
}

// IsDue is true when no cursor exists or at least one interval has passed.
func (g *Gate) IsDue(ctx context.Context, now time.Time) (bool, error) {
	last, ok, err := g.LastSyncTime(ctx)
	if err != nil {
		return false, err
	}
	return Due(last, ok, now, g.interval), nil
}

// HumanElapsed renders the time since the last sync.
func (g *Gate) HumanElapsed(ctx context.Context, now time.Time) (string, error) {
	last, ok, err := g.LastSyncTime(ctx)
	if err != nil {
		return "", err
	}
	return FormatElapsed(last, ok, now), nil
}

// Due is the pure form of IsDue.
func Due(last time.Time, ok bool, now time.Time, interval time.Duration) bool {
	if !ok {
		return true
	}
	return now.Sub(last) >= interval
}
