package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"EngagementSync/internal/aggregate"
	"EngagementSync/internal/domain"
	"EngagementSync/internal/gate"
	"EngagementSync/internal/platform"
	"EngagementSync/internal/ports"
)

// Cycle outcomes reported to metrics.
const (
	OutcomeSkipped     = "skipped"
	OutcomeCompleted   = "completed"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
)

// UpdateFunc applies a partial update to one item through the item store.
type UpdateFunc func(ctx context.Context, id string, patch domain.ItemPatch) (domain.Item, error)

// ProgressFunc is told (current, total) before each item fetch.
type ProgressFunc func(current, total int)

// ItemLoader supplies the items of a cycle. RunCycleFrom calls it only once the
// cycle is due and the stats service answered the probe.
type ItemLoader func(ctx context.Context) ([]domain.Item, error)

// OrchestratorDeps wires the collaborators of a sync cycle.
type OrchestratorDeps struct {
	Gate    *gate.Gate
	Client  ports.StatsClient
	Pacer   ports.Pacer
	Metrics ports.SyncMetrics
	Logger  *slog.Logger
	Clock   func() time.Time
}

// Orchestrator runs sync cycles. It is not safe for overlapping calls;
// Runner guards against that.
type Orchestrator struct {
	gate    *gate.Gate
	client  ports.StatsClient
	pacer   ports.Pacer
	metrics ports.SyncMetrics
	logger  *slog.Logger
	clock   func() time.Time
}

// NewOrchestrator constructs the sync core.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		gate:    deps.Gate,
		client:  deps.Client,
		pacer:   deps.Pacer,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		clock:   deps.Clock,
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

type eligibleItem struct {
	item  domain.Item
	links []string
}

// RunCycle performs one due-check → probe → select → iterate → commit pass
// over items. It never panics or returns a Go error; failures are reported in
// the result and leave the cursor untouched so the next trigger retries.
func (o *Orchestrator) RunCycle(ctx context.Context, items []domain.Item, update UpdateFunc, progress ProgressFunc) domain.CycleResult {
	return o.RunCycleFrom(ctx, func(context.Context) ([]domain.Item, error) { return items, nil }, update, progress)
}

// RunCycleFrom is RunCycle with items loaded lazily, so a trigger that is not
// due (or finds the service down) never touches the item store. A load error
// aborts the cycle with ErrPersistence.
func (o *Orchestrator) RunCycleFrom(ctx context.Context, load ItemLoader, update UpdateFunc, progress ProgressFunc) domain.CycleResult {
	if progress == nil {
		progress = func(int, int) {}
	}

	result := domain.CycleResult{
		CycleID:   uuid.NewString(),
		StartedAt: o.clock(),
	}
	logger := o.logger.With("cycle_id", result.CycleID)

	due, err := o.gate.IsDue(ctx, result.StartedAt)
	if err != nil {
		return o.fail(logger, result, errors.Mark(err, domain.ErrPersistence), OutcomeFailed)
	}
	if !due {
		logger.Debug("sync cycle not due")
		result.Success = true
		result.Skipped = true
		return o.finish(result, OutcomeSkipped)
	}

	if !o.client.Probe(ctx) {
		return o.fail(logger, result, domain.ErrServiceUnavailable, OutcomeUnavailable)
	}

	items, err := load(ctx)
	if err != nil {
		return o.fail(logger, result, errors.Mark(errors.Wrap(err, "load items"), domain.ErrPersistence), OutcomeFailed)
	}

	eligible := selectEligible(items)
	result.Eligible = len(eligible)
	logger.Info("sync cycle started", "items", len(items), "eligible", len(eligible))

	if err := o.iterate(ctx, logger, eligible, update, progress, &result); err != nil {
		return o.fail(logger, result, err, OutcomeFailed)
	}

	finished := o.clock()
	if err := o.gate.MarkSynced(ctx, finished); err != nil {
		return o.fail(logger, result, errors.Mark(err, domain.ErrPersistence), OutcomeFailed)
	}
	if o.metrics != nil {
		o.metrics.SetLastSync(finished)
	}

	result.Success = true
	logger.Info("sync cycle completed",
		"updated", result.Updated,
		"eligible", result.Eligible,
		"failed_items", len(result.Failures),
		"link_warnings", len(result.Warnings))
	return o.finish(result, OutcomeCompleted)
}

func (o *Orchestrator) iterate(
	ctx context.Context,
	logger *slog.Logger,
	eligible []eligibleItem,
	update UpdateFunc,
	progress ProgressFunc,
	result *domain.CycleResult,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("sync loop panicked: %v", r)
		}
	}()

	total := len(eligible)
	for i, e := range eligible {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "sync cycle interrupted")
		}

		progress(i+1, total)
		logger.Debug("fetching item stats", "item", e.item.ID, "index", i+1, "total", total, "links", len(e.links))

		batch := o.client.FetchBatch(ctx, e.links)
		if batch.Success && batch.Summary != nil {
			stats := aggregate.FromSummary(*batch.Summary).Stats()
			if _, err := update(ctx, e.item.ID, domain.ItemPatch{Stats: &stats}); err != nil {
				return errors.Mark(errors.Wrapf(err, "update item %s", e.item.ID), domain.ErrPersistence)
			}
			result.Updated++
			for _, link := range batch.Data {
				if link.Error == "" {
					continue
				}
				linkErr := errors.Mark(errors.Newf("fetch stats of item %s link %s: %s", e.item.ID, link.URL, link.Error), domain.ErrItemFetch)
				logger.Warn("link counted as zero", "item", e.item.ID, "url", link.URL, "error", link.Error)
				result.Warnings = append(result.Warnings, domain.ItemFailure{ItemID: e.item.ID, Error: link.URL + ": " + link.Error, Err: linkErr})
			}
		} else {
			reason := batch.Error
			if reason == "" {
				reason = "response carried no summary"
			}
			fetchErr := errors.Mark(errors.Newf("fetch stats of item %s: %s", e.item.ID, reason), domain.ErrItemFetch)
			logger.Warn("skipping item", "item", e.item.ID, "error", fetchErr)
			result.Failures = append(result.Failures, domain.ItemFailure{ItemID: e.item.ID, Error: reason, Err: fetchErr})
		}

		if i < total-1 {
			if err := o.pacer.Wait(ctx); err != nil {
				return errors.Wrap(err, "sync cycle interrupted")
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "sync cycle interrupted")
	}
	return nil
}

func (o *Orchestrator) fail(logger *slog.Logger, result domain.CycleResult, err error, outcome string) domain.CycleResult {
	result.Success = false
	result.Err = err
	result.Error = err.Error()
	if outcome == OutcomeUnavailable {
		logger.Warn("stats service unavailable, cycle aborted")
	} else {
		logger.Error("sync cycle failed", "updated", result.Updated, "error", err)
	}
	return o.finish(result, outcome)
}

func (o *Orchestrator) finish(result domain.CycleResult, outcome string) domain.CycleResult {
	result.FinishedAt = o.clock()
	if o.metrics != nil {
		o.metrics.ObserveCycle(outcome, result.FinishedAt.Sub(result.StartedAt))
		o.metrics.AddUpdated(result.Updated)
		o.metrics.AddItemFailures(len(result.Failures))
	}
	return result
}

func selectEligible(items []domain.Item) []eligibleItem {
	var eligible []eligibleItem
	for _, item := range items {
		if !platform.Eligible(item) {
			continue
		}
		eligible = append(eligible, eligibleItem{item: item, links: platform.SelectLinks(item.Links)})
	}
	return eligible
}

// FormatReport renders a cycle result as a short human message.
func FormatReport(result domain.CycleResult) string {
	switch {
	case result.Skipped:
		return "Stats sync skipped: not due yet"
	case !result.Success:
		return fmt.Sprintf("Stats sync failed after %d updates: %s", result.Updated, result.Error)
	case len(result.Failures) > 0:
		return fmt.Sprintf("Stats sync finished: %d of %d items updated, %d skipped",
			result.Updated, result.Eligible, len(result.Failures))
	default:
		return fmt.Sprintf("Stats sync finished: %d of %d items updated", result.Updated, result.Eligible)
	}
}
