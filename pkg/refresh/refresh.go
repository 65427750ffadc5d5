package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/levenlabs/go-lflag"
	"github.com/sungauge/sungauge/pkg/alerts"
	"github.com/sungauge/sungauge/pkg/log"
	"github.com/sungauge/sungauge/pkg/rates"
	"github.com/sungauge/sungauge/pkg/solar"
	"github.com/sungauge/sungauge/pkg/storage"
	"github.com/sungauge/sungauge/pkg/types"
)

const runTimeout = 2 * time.Minute

// Refresher periodically re-evaluates production and regenerates the day's
// alerts for the dashboard user. A config save rearms the schedule so the
// next run happens immediately with the new orientation and the interval
// restarts from that point.
type Refresher struct {
	db        storage.Database
	agg       *solar.Aggregator
	evaluator *alerts.Evaluator
	rates     rates.Lookup

	interval time.Duration
	userID   string

	mu        sync.Mutex
	scheduler *gocron.Scheduler
	runCtx    context.Context
}

// Configured sets up the Refresher. It registers flags for configuration.
func Configured(db storage.Database, agg *solar.Aggregator, rl rates.Lookup) *Refresher {
	interval := lflag.Duration("refresh-interval", 15*time.Minute, "How often to re-evaluate production and alerts")
	userID := lflag.String("refresh-user", "default", "User whose dashboard the background refresh maintains")

	r := &Refresher{
		db:        db,
		agg:       agg,
		evaluator: alerts.NewEvaluator(),
		rates:     rl,
	}

	lflag.Do(func() {
		r.interval = *interval
		r.userID = *userID
	})

	return r
}

// Run starts the periodic refresh and blocks until the context is canceled.
func (r *Refresher) Run(ctx context.Context) error {
	r.mu.Lock()
	r.runCtx = ctx
	if err := r.startLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	<-ctx.Done()

	r.mu.Lock()
	r.scheduler.Stop()
	r.mu.Unlock()
	return nil
}

// Rearm cancels the pending run and restarts the schedule, causing an
// immediate refresh. Call it after a config change so stale timers never
// publish alerts computed from the old orientation.
func (r *Refresher) Rearm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runCtx == nil || r.runCtx.Err() != nil {
		return
	}
	r.scheduler.Stop()
	if err := r.startLocked(); err != nil {
		log.Ctx(r.runCtx).ErrorContext(r.runCtx, "failed to rearm refresh schedule", slog.Any("error", err))
	}
}

func (r *Refresher) startLocked() error {
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(r.interval).StartImmediately().Do(func() {
		ctx, cancel := context.WithTimeout(r.runCtx, runTimeout)
		defer cancel()
		r.RunOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.StartAsync()
	r.scheduler = s
	return nil
}

// RunOnce performs a single refresh pass: evaluate production under current
// weather, regenerate today's alerts, and purge expired ones. Failures are
// logged, never fatal; the next tick retries.
func (r *Refresher) RunOnce(ctx context.Context) {
	now := time.Now()

	cfg, version, err := r.db.GetPanelConfig(ctx, r.userID)
	if err != nil {
		if !errors.Is(err, storage.ErrConfigNotFound) {
			log.Ctx(ctx).ErrorContext(ctx, "refresh: failed to load panel config", slog.Any("error", err))
			return
		}
		cfg = types.DefaultPanelConfig()
	} else if migrated, changed, err := types.MigratePanelConfig(cfg, version); err == nil && changed {
		cfg = migrated
	}

	ev := r.agg.Evaluate(ctx, cfg)
	if ev.Report.Fallback {
		// nothing trustworthy to alert on
		log.Ctx(ctx).WarnContext(ctx, "refresh: evaluation fell back, skipping alert generation")
		return
	}

	rate, err := r.rates.Rate(ctx, ev.Coordinates)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "refresh: rate lookup failed, using default", slog.Any("error", err))
		rate = rates.DefaultRate
	}

	generated := r.evaluator.Evaluate(ctx, ev.Weather, cfg, ev.ProjectedDailyKWH, ev.MaxDailyKWH, rate, now)

	if err := r.db.ReplaceDayAlerts(ctx, r.userID, now, generated); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "refresh: failed to store alerts", slog.Any("error", err))
		return
	}
	if err := r.db.PurgeAlertsBefore(ctx, r.userID, now.Add(-types.AlertRetention)); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "refresh: failed to purge expired alerts", slog.Any("error", err))
	}

	log.Ctx(ctx).InfoContext(ctx, "refresh complete",
		slog.Float64("currentOutputKW", ev.Report.CurrentOutputKW),
		slog.Int("alerts", len(generated)),
	)
}
