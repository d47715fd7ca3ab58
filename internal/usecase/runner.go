package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"EngagementSync/internal/domain"
	"EngagementSync/internal/ports"
)

// RunnerDeps wires the runner to its store, the sync core and the optional
// scheduler and notifier.
type RunnerDeps struct {
	Orchestrator *Orchestrator
	Store        ports.ItemStore
	Driver       ports.Scheduler
	Notifier     ports.Notifier
	Logger       *slog.Logger
}

// Runner is the caller side of the Orchestrator: it hands the cycle a lazy
// store snapshot, refuses overlapping cycles and reports outcomes.
type Runner struct {
	orchestrator *Orchestrator
	store        ports.ItemStore
	driver       ports.Scheduler
	notifier     ports.Notifier
	logger       *slog.Logger

	running  atomic.Bool
	inflight sync.WaitGroup

	mu   sync.RWMutex
	last *domain.CycleResult
}

// NewRunner returns a runner; Driver and Notifier may be nil.
func NewRunner(deps RunnerDeps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		orchestrator: deps.Orchestrator,
		store:        deps.Store,
		driver:       deps.Driver,
		notifier:     deps.Notifier,
		logger:       logger,
	}
}

// Trigger runs one cycle over the current store contents. The store is read
// only when the cycle is due and the stats service is up. It returns
// ErrCycleRunning when a cycle is already in flight; everything else is
// reported in the result.
func (r *Runner) Trigger(ctx context.Context) (domain.CycleResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return domain.CycleResult{}, domain.ErrCycleRunning
	}
	defer r.running.Store(false)

	return r.run(ctx), nil
}

// TriggerAsync starts a cycle in the background. It fails fast with
// ErrCycleRunning instead of queueing behind a cycle in flight.
func (r *Runner) TriggerAsync(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return domain.ErrCycleRunning
	}

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer r.running.Store(false)
		r.run(ctx)
	}()
	return nil
}

// Running reports whether a cycle is in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

func (r *Runner) run(ctx context.Context) domain.CycleResult {
	result := r.orchestrator.RunCycleFrom(ctx, r.store.List, r.store.Update, r.progress)

	r.mu.Lock()
	r.last = &result
	r.mu.Unlock()

	r.report(ctx, result)
	return result
}

// LastResult returns the outcome of the most recent cycle, if any.
func (r *Runner) LastResult() (domain.CycleResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return domain.CycleResult{}, false
	}
	return *r.last, true
}

// Start registers Trigger with the scheduler driver.
func (r *Runner) Start(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}

	job := func(tick time.Time) {
		if _, err := r.Trigger(ctx); err != nil {
			r.logger.Warn("scheduled sync not run", "tick", tick, "error", err)
		}
	}

	return r.driver.Start(ctx, job)
}

// Stop tears down the scheduler driver and waits for background cycles
// started by TriggerAsync, bounded by ctx.
func (r *Runner) Stop(ctx context.Context) error {
	if r.driver != nil {
		if err := r.driver.Stop(ctx); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) progress(current, total int) {
	r.logger.Info("processing item", "current", current, "total", total)
}

func (r *Runner) report(ctx context.Context, result domain.CycleResult) {
	if r.notifier == nil || result.Skipped {
		return
	}
	if result.Success && result.Updated == 0 && len(result.Failures) == 0 {
		return
	}
	if err := r.notifier.PublishReport(ctx, FormatReport(result)); err != nil {
		r.logger.Warn("publish sync report", "error", err)
	}
}
