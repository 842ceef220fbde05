package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/metrics"
)

// StatsRecalculator rebuilds the platform counters from the source tables
type StatsRecalculator interface {
	RecalculateStats(ctx context.Context) (*entities.PlatformStats, error)
}

// RankRecalculator reassigns leaderboard ranks
type RankRecalculator interface {
	RecalculateRankings(ctx context.Context) (int, error)
}

// MilestoneRecomputer refreshes milestone progress
type MilestoneRecomputer interface {
	Recompute(ctx context.Context) ([]*entities.Milestone, error)
}

const (
	JobStats      = "stats_rescan"
	JobRanks      = "rank_recalculation"
	JobMilestones = "milestone_recompute"
)

// ReconcilerSchedule holds one cron spec per job; an empty spec disables that job
type ReconcilerSchedule struct {
	Stats      string
	Ranks      string
	Milestones string
}

// Reconciler repairs drift in the derived data on a cron schedule
type Reconciler struct {
	cron *cron.Cron
	jobs map[string]func(context.Context) error
	ctx  context.Context
}

// NewReconciler registers the jobs whose spec is set
func NewReconciler(stats StatsRecalculator, ranks RankRecalculator, milestones MilestoneRecomputer, schedule ReconcilerSchedule) (*Reconciler, error) {
	r := &Reconciler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs: map[string]func(context.Context) error{
			JobStats: func(ctx context.Context) error {
				_, err := stats.RecalculateStats(ctx)
				return err
			},
			JobRanks: func(ctx context.Context) error {
				_, err := ranks.RecalculateRankings(ctx)
				return err
			},
			JobMilestones: func(ctx context.Context) error {
				_, err := milestones.Recompute(ctx)
				return err
			},
		},
		ctx: context.Background(),
	}

	specs := map[string]string{
		JobStats:      schedule.Stats,
		JobRanks:      schedule.Ranks,
		JobMilestones: schedule.Milestones,
	}
	for name, spec := range specs {
		if spec == "" {
			continue
		}
		name := name
		if _, err := r.cron.AddFunc(spec, func() { _ = r.Run(r.ctx, name) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", name, spec, err)
		}
	}
	return r, nil
}

// Run executes one job immediately
func (r *Reconciler) Run(ctx context.Context, name string) error {
	job, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	start := time.Now()
	err := job(ctx)
	metrics.RecordJobRun(name, time.Since(start), err == nil)
	if err != nil {
		logger.Error(ctx, "Reconciliation job failed", zap.String("job", name), zap.Error(err))
		return err
	}
	logger.Debug(ctx, "Reconciliation job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	return nil
}

// Entries is the number of scheduled jobs
func (r *Reconciler) Entries() int {
	return len(r.cron.Entries())
}

// Start runs the scheduler in the background; scheduled runs use ctx
func (r *Reconciler) Start(ctx context.Context) {
	r.ctx = ctx
	r.cron.Start()
	logger.Info(ctx, "Reconciler started", zap.Int("jobs", r.Entries()))
}

// Stop halts the scheduler and waits for running jobs
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}
