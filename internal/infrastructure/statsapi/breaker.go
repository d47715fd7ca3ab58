package statsapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker/v2"

	"EngagementSync/internal/domain"
	"EngagementSync/internal/infrastructure/metrics"
	"EngagementSync/internal/ports"
)

// ErrBreakerOpen is the error text returned while the breaker rejects calls.
const ErrBreakerOpen = "circuit breaker open"

var errFetchFailed = errors.New("stats fetch failed")

// BreakerClient guards fetches of another StatsClient with a circuit breaker.
// Probe is passed through untouched.
type BreakerClient struct {
	next ports.StatsClient
	cb   *gobreaker.CircuitBreaker[any]
}

var _ ports.StatsClient = (*BreakerClient)(nil)

// NewBreakerClient trips after maxFailures consecutive failed fetches and
// stays open for openTimeout.
func NewBreakerClient(next ports.StatsClient, maxFailures int, openTimeout time.Duration, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}

	const name = "stats"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	settings := gobreaker.Settings{
		Name:    name,
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures) //nolint:gosec // bounded by config
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerClient{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Probe delegates without consulting the breaker.
func (b *BreakerClient) Probe(ctx context.Context) bool {
	return b.next.Probe(ctx)
}

// FetchOne runs the inner fetch through the breaker.
func (b *BreakerClient) FetchOne(ctx context.Context, url string) domain.FetchResult {
	var res domain.FetchResult
	_, err := b.cb.Execute(func() (any, error) {
		res = b.next.FetchOne(ctx, url)
		if !res.Success && res.Error != ErrNoValidURLs {
			return nil, errFetchFailed
		}
		return nil, nil
	})
	if isRejected(err) {
		return domain.FetchResult{Success: false, Error: ErrBreakerOpen}
	}
	return res
}

// FetchBatch runs the inner batch fetch through the breaker.
func (b *BreakerClient) FetchBatch(ctx context.Context, urls []string) domain.BatchResult {
	var res domain.BatchResult
	_, err := b.cb.Execute(func() (any, error) {
		res = b.next.FetchBatch(ctx, urls)
		if !res.Success && res.Error != ErrNoValidURLs {
			return nil, errFetchFailed
		}
		return nil, nil
	})
	if isRejected(err) {
		return domain.BatchResult{Success: false, Error: ErrBreakerOpen}
	}
	return res
}

// State exposes the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
