package usecases

import (
	"context"

	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/internal/domain/repositories"
	"ptradoor.backend/pkg/logger"
)

// DefaultMilestones are seeded on startup
var DefaultMilestones = []entities.Milestone{
	{ID: "users_100", Name: "100 Traders", Type: entities.MilestoneTypeUsers, Target: 100},
	{ID: "users_1000", Name: "1,000 Traders", Type: entities.MilestoneTypeUsers, Target: 1000},
	{ID: "users_10000", Name: "10,000 Traders", Type: entities.MilestoneTypeUsers, Target: 10000},
	{ID: "transactions_1000", Name: "1,000 Transactions", Type: entities.MilestoneTypeTransactions, Target: 1000},
	{ID: "transactions_100000", Name: "100,000 Transactions", Type: entities.MilestoneTypeTransactions, Target: 100000},
	{ID: "points_1000000", Name: "1M Points Earned", Type: entities.MilestoneTypePoints, Target: 1000000},
	{ID: "points_100000000", Name: "100M Points Earned", Type: entities.MilestoneTypePoints, Target: 100000000},
}

// MilestoneUsecase tracks platform progress against fixed targets
type MilestoneUsecase struct {
	milestoneRepo repositories.MilestoneRepository
	stats         *StatsUsecase
}

// NewMilestoneUsecase creates a new milestone usecase
func NewMilestoneUsecase(milestoneRepo repositories.MilestoneRepository, stats *StatsUsecase) *MilestoneUsecase {
	return &MilestoneUsecase{milestoneRepo: milestoneRepo, stats: stats}
}

// SeedDefaults creates the built-in milestones that do not exist yet
func (u *MilestoneUsecase) SeedDefaults(ctx context.Context) error {
	for i := range DefaultMilestones {
		m := DefaultMilestones[i]
		m.UpdatedAt = u.stats.clock.Now().UTC()
		if _, err := u.milestoneRepo.CreateIfAbsent(ctx, &m); err != nil {
			return err
		}
	}
	return nil
}

// List returns every milestone
func (u *MilestoneUsecase) List(ctx context.Context) ([]*entities.Milestone, error) {
	return u.milestoneRepo.List(ctx)
}

// Recompute refreshes progress from the stats document. Completion is sticky.
func (u *MilestoneUsecase) Recompute(ctx context.Context) ([]*entities.Milestone, error) {
	stats, err := u.stats.EnsureStats(ctx)
	if err != nil {
		return nil, err
	}
	milestones, err := u.milestoneRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := u.stats.clock.Now().UTC()
	for _, m := range milestones {
		current := milestoneValue(stats, m.Type)
		completed := m.Completed || current >= m.Target
		if current == m.Current && completed == m.Completed {
			continue
		}
		if completed && !m.Completed {
			logger.Info(ctx, "Milestone reached", zap.String("milestone", m.ID), zap.Int64("target", m.Target))
		}
		m.Current = current
		m.Completed = completed
		m.UpdatedAt = now
		if err := u.milestoneRepo.Update(ctx, m); err != nil {
			logger.Error(ctx, "Failed to update milestone", zap.String("milestone", m.ID), zap.Error(err))
			return nil, err
		}
	}
	return milestones, nil
}

func milestoneValue(stats *entities.PlatformStats, t entities.MilestoneType) int64 {
	switch t {
	case entities.MilestoneTypeUsers:
		return stats.TotalUsers
	case entities.MilestoneTypeTransactions:
		return stats.TotalTransactions
	case entities.MilestoneTypePoints:
		return stats.TotalPoints
	default:
		return 0
	}
}
