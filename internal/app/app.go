package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"EngagementSync/internal/aggregate"
	"EngagementSync/internal/config"
	"EngagementSync/internal/domain"
	"EngagementSync/internal/gate"
	"EngagementSync/internal/infrastructure/httpapi"
	"EngagementSync/internal/infrastructure/memory"
	"EngagementSync/internal/infrastructure/metrics"
	"EngagementSync/internal/infrastructure/pacing"
	"EngagementSync/internal/infrastructure/scheduler"
	"EngagementSync/internal/infrastructure/statsapi"
	"EngagementSync/internal/infrastructure/storage"
	"EngagementSync/internal/infrastructure/telegram"
	"EngagementSync/internal/logging"
	"EngagementSync/internal/ports"
	"EngagementSync/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db     *sql.DB
	store  ports.ItemStore
	gate   *gate.Gate
	client ports.StatsClient
	runner *usecase.Runner
	server *httpapi.Server
}

// New builds the application from configuration, opening the database when
// a SQL driver is selected.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	var cursors ports.CursorStore
	switch cfg.Database.Driver {
	case config.DriverPostgres, config.DriverSQLite:
		db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, baseLogger.With("component", "storage"))
		if err != nil {
			return nil, err
		}
		a.db = db
		a.store = storage.NewItemRepository(db, cfg.Database.Driver)
		cursors = storage.NewSettingsRepository(db, cfg.Database.Driver)
	default:
		a.store = memory.NewItemStore()
		cursors = memory.NewCursorStore()
	}

	a.gate = gate.New(cursors,
		gate.WithInterval(cfg.Sync.IntervalDuration()),
		gate.WithLogger(baseLogger.With("component", "gate")),
	)

	a.client = statsapi.NewClient(cfg.Stats, nil, baseLogger.With("component", "statsapi"))
	if !cfg.Stats.Breaker.Disabled {
		a.client = statsapi.NewBreakerClient(a.client,
			cfg.Stats.Breaker.MaxFailures,
			cfg.Stats.Breaker.OpenTimeoutDuration(),
			baseLogger.With("component", "breaker"),
		)
	}

	delay, minDelay, maxDelay := cfg.Sync.Pacing.Durations()
	loc := cfg.Scheduler.Location()

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Gate:    a.gate,
		Client:  a.client,
		Pacer:   pacing.New(cfg.Sync.Pacing.Mode, delay, minDelay, maxDelay),
		Metrics: metrics.Prometheus{},
		Logger:  baseLogger.With("component", "sync"),
		Clock:   func() time.Time { return time.Now().In(loc) },
	})

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		notifier = telegram.NewNotifier(tg.APIBaseURL, tg.BotToken, tg.ChatID)
	}

	a.runner = usecase.NewRunner(usecase.RunnerDeps{
		Orchestrator: orchestrator,
		Store:        a.store,
		Driver:       scheduler.NewTickerScheduler(cfg.Scheduler.CheckIntervalDuration()),
		Notifier:     notifier,
		Logger:       baseLogger.With("component", "runner"),
	})

	a.server = httpapi.NewServer(cfg.HTTP.Addr, a.runner, a.gate, baseLogger.With("component", "http"))
	return a, nil
}

// RunOnce executes a single cycle and returns its outcome.
func (a *Application) RunOnce(ctx context.Context) (domain.CycleResult, error) {
	return a.runner.Trigger(ctx)
}

// Serve starts the scheduler and the ops server and blocks until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.runner.Start(ctx); err != nil {
		return errors.Wrap(err, "start scheduler")
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.server.ListenAndServe() }()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if shutErr := a.server.Shutdown(shutdownCtx); shutErr != nil {
		a.logger.Warn("http shutdown", "error", shutErr)
	}
	if stopErr := a.runner.Stop(shutdownCtx); stopErr != nil {
		a.logger.Warn("scheduler stop", "error", stopErr)
	}
	return err
}

// Status summarises the sync cursor for the status command.
type Status struct {
	LastSyncedAt time.Time
	Synced       bool
	Elapsed      string
	Due          bool
	Interval     time.Duration
}

// Status reads the cursor without running anything.
func (a *Application) Status(ctx context.Context) (Status, error) {
	last, ok, err := a.gate.LastSyncTime(ctx)
	if err != nil {
		return Status{}, err
	}
	now := time.Now()
	return Status{
		LastSyncedAt: last,
		Synced:       ok,
		Elapsed:      gate.FormatElapsed(last, ok, now),
		Due:          gate.Due(last, ok, now, a.gate.Interval()),
		Interval:     a.gate.Interval(),
	}, nil
}

// Fetch asks the stats service about urls directly, bypassing items and the
// cursor. When the service omits totals they are summed from the per-link data.
func (a *Application) Fetch(ctx context.Context, urls []string) domain.BatchResult {
	res := a.client.FetchBatch(ctx, urls)
	if res.Success && res.Summary == nil && len(res.Data) > 0 {
		summary := aggregate.ToSummary(aggregate.Sum(res.Data))
		res.Summary = &summary
	}
	return res
}

// Store exposes the item store the runner reads from.
func (a *Application) Store() ports.ItemStore {
	return a.store
}

// Close releases the database handle, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
