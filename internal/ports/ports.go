package ports

import (
	"context"
	"time"

	"EngagementSync/internal/domain"
)

// StatsClient talks to the remote stats service.
type StatsClient interface {
	// Probe reports whether the service is reachable. It never fails loudly.
	Probe(ctx context.Context) bool
	// FetchOne fetches a single link. Failures come back inside the result.
	FetchOne(ctx context.Context, url string) domain.FetchResult
	// FetchBatch fetches several links and returns server-computed totals.
	FetchBatch(ctx context.Context, urls []string) domain.BatchResult
}

// ItemStore persists content items.
type ItemStore interface {
	List(ctx context.Context) ([]domain.Item, error)
	Get(ctx context.Context, id string) (domain.Item, error)
	ListByStatus(ctx context.Context, status domain.ItemStatus) ([]domain.Item, error)
	// Update merges the supplied fields and returns the stored record.
	Update(ctx context.Context, id string, patch domain.ItemPatch) (domain.Item, error)
	Create(ctx context.Context, item domain.Item) (domain.Item, error)
}

// CursorStore is the durable scalar key/value store the host provides.
type CursorStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Pacer suspends between consecutive item fetches.
type Pacer interface {
	Wait(ctx context.Context) error
}

// SyncMetrics records cycle outcomes.
type SyncMetrics interface {
	ObserveCycle(outcome string, duration time.Duration)
	AddUpdated(n int)
	AddItemFailures(n int)
	SetLastSync(t time.Time)
}

// Notifier publishes cycle reports to Telegram or other channels.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}

// Scheduler controls when cycles are triggered.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
