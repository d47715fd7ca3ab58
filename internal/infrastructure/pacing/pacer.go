// Package pacing holds the delay policies applied between item fetches.
package pacing

import (
	"context"
	"math/rand/v2"
	"time"

	"EngagementSync/internal/ports"
)

// Fixed waits the same duration every time.
type Fixed struct {
	Delay time.Duration
}

var _ ports.Pacer = Fixed{}

// Wait sleeps for Delay or until ctx is done.
func (f Fixed) Wait(ctx context.Context) error {
	return sleep(ctx, f.Delay)
}

// Jitter waits a random duration in [Min, Max], like a human browsing.
type Jitter struct {
	Min time.Duration
	Max time.Duration
}

var _ ports.Pacer = Jitter{}

// Wait sleeps for a random duration between Min and Max.
func (j Jitter) Wait(ctx context.Context) error {
	return sleep(ctx, j.next())
}

func (j Jitter) next() time.Duration {
	lo, hi := j.Min, j.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi <= lo {
		return lo
	}
	//nolint:gosec // pacing jitter does not need a cryptographic source
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

// None never waits. Tests use it to keep cycles fast.
type None struct{}

var _ ports.Pacer = None{}

// Wait returns immediately unless ctx is already done.
func (None) Wait(ctx context.Context) error {
	return ctx.Err()
}

// New picks a policy by mode: "fixed", "jitter" or "none".
func New(mode string, delay, minDelay, maxDelay time.Duration) ports.Pacer {
	switch mode {
	case "none":
		return None{}
	case "jitter":
		return Jitter{Min: minDelay, Max: maxDelay}
	default:
		return Fixed{Delay: delay}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
