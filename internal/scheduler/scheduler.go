// Package scheduler runs the marketplace's periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"lendhub/internal/config"
	"lendhub/internal/logger"
	"lendhub/internal/services"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Runner wraps a seconds-aware cron scheduler. Overlapping runs of the same
// job are skipped.
type Runner struct {
	cron    *cron.Cron
	log     *zap.SugaredLogger
	baseCtx context.Context
	names   map[cron.EntryID]string
}

// New creates a Runner whose jobs receive baseCtx.
func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		log:     logger.Named("scheduler"),
		baseCtx: baseCtx,
		names:   make(map[cron.EntryID]string),
	}
}

// Add schedules job under name. An empty spec leaves the job disabled.
func (r *Runner) Add(name, spec string, job Job) error {
	if spec == "" {
		r.log.Infow("job disabled", "job", name)
		return nil
	}
	id, err := r.cron.AddFunc(spec, func() { r.run(name, job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	r.names[id] = name
	return nil
}

func (r *Runner) run(name string, job Job) {
	if r.baseCtx.Err() != nil {
		return
	}
	start := time.Now()
	if err := job(r.baseCtx); err != nil {
		r.log.Errorw("job failed", "job", name, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return
	}
	r.log.Debugw("job finished", "job", name, "elapsed_ms", time.Since(start).Milliseconds())
}

// Jobs returns the names of the scheduled jobs.
func (r *Runner) Jobs() []string {
	out := make([]string, 0, len(r.names))
	for _, e := range r.cron.Entries() {
		out = append(out, r.names[e.ID])
	}
	return out
}

// Start begins running jobs in the background.
func (r *Runner) Start() {
	r.log.Infow("scheduler started", "jobs", r.Jobs())
	r.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("scheduler stopped")
}

// RegisterJobs schedules the expiry, auto-invest and snapshot jobs.
func RegisterJobs(r *Runner, cfg config.SchedulerConfig, opps services.OpportunityServicer, autoInvest services.AutoInvestServicer, snapshots services.MarketSnapshotServicer) error {
	if err := r.Add("expire_opportunities", cfg.ExpirySpec, ExpireJob(opps)); err != nil {
		return err
	}
	if err := r.Add("auto_invest", cfg.AutoInvestSpec, AutoInvestJob(autoInvest)); err != nil {
		return err
	}
	return r.Add("market_snapshot", cfg.SnapshotSpec, SnapshotJob(snapshots, time.Now))
}

// ExpireJob marks open opportunities past their expiry date as expired.
func ExpireJob(opps services.OpportunityServicer) Job {
	return func(ctx context.Context) error {
		n, err := opps.ExpireOpportunities()
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Named("scheduler").Infow("opportunities expired", "count", n)
		}
		return nil
	}
}

// AutoInvestJob sweeps every active lender's rules.
func AutoInvestJob(autoInvest services.AutoInvestServicer) Job {
	return func(ctx context.Context) error {
		results, err := autoInvest.RunAll(ctx)
		if err != nil {
			return err
		}
		count := 0
		for _, res := range results {
			count += len(res.Investments)
		}
		logger.Named("scheduler").Infow("auto-invest sweep", "lenders", len(results), "investments", count)
		return nil
	}
}

// SnapshotJob records market statistics, truncated to the minute.
func SnapshotJob(snapshots services.MarketSnapshotServicer, now func() time.Time) Job {
	return func(ctx context.Context) error {
		_, err := snapshots.RecordSnapshot(now().UTC().Truncate(time.Minute))
		return err
	}
}
