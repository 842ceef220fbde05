package usecases

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
	"ptradoor.backend/internal/config"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/domain/repositories"
	"ptradoor.backend/pkg/cache"
	"ptradoor.backend/pkg/logger"
)

// StatsUsecase maintains the platform-wide aggregate document
type StatsUsecase struct {
	statsRepo   repositories.StatsRepository
	profileRepo repositories.ProfileRepository
	txRepo      repositories.TransactionRepository
	uow         repositories.UnitOfWork
	defaults    config.StatsConfig
	clock       cache.Clock
	inv         invalidator
}

// NewStatsUsecase creates a new stats usecase
func NewStatsUsecase(
	statsRepo repositories.StatsRepository,
	profileRepo repositories.ProfileRepository,
	txRepo repositories.TransactionRepository,
	uow repositories.UnitOfWork,
	defaults config.StatsConfig,
	readCache ReadCache,
	notifier ChangeNotifier,
) *StatsUsecase {
	return &StatsUsecase{
		statsRepo:   statsRepo,
		profileRepo: profileRepo,
		txRepo:      txRepo,
		uow:         uow,
		defaults:    defaults,
		clock:       cache.SystemClock,
		inv:         invalidator{cache: readCache, notifier: notifier},
	}
}

// SetClock replaces the time source
func (u *StatsUsecase) SetClock(c cache.Clock) {
	u.clock = c
}

// EnsureStats returns the stats document, creating it with zero counters if absent
func (u *StatsUsecase) EnsureStats(ctx context.Context) (*entities.PlatformStats, error) {
	stats, err := u.statsRepo.Get(ctx, entities.GlobalStatsID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		logger.Error(ctx, "Failed to read stats", zap.Error(err))
		return nil, err
	}

	fresh := &entities.PlatformStats{
		ID:                entities.GlobalStatsID,
		TotalSupply:       u.defaults.TotalSupply,
		CirculatingSupply: u.defaults.CirculatingSupply,
		LastUpdated:       u.clock.Now().UTC(),
	}
	if _, err := u.statsRepo.CreateIfAbsent(ctx, fresh); err != nil {
		logger.Error(ctx, "Failed to create stats", zap.Error(err))
		return nil, err
	}
	// another writer may have won the insert; the stored document is authoritative
	return u.statsRepo.Get(ctx, entities.GlobalStatsID)
}

// GetStats returns the cached stats document
func (u *StatsUsecase) GetStats(ctx context.Context) (*entities.PlatformStats, error) {
	if stats, ok := cacheGet[*entities.PlatformStats](u.inv.cache, cacheKeyStats); ok {
		return stats, nil
	}
	stats, err := u.EnsureStats(ctx)
	if err != nil {
		return nil, err
	}
	cacheSet(u.inv.cache, cacheKeyStats, stats)
	return stats, nil
}

// UpdateStats merges a partial update onto a fresh read. Any invalid field
// rejects the whole update.
func (u *StatsUsecase) UpdateStats(ctx context.Context, in entities.StatsUpdate) (*entities.PlatformStats, error) {
	if err := validateStatsUpdate(in); err != nil {
		return nil, err
	}
	if _, err := u.EnsureStats(ctx); err != nil {
		return nil, err
	}

	var updated *entities.PlatformStats
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		current, err := u.statsRepo.Get(u.uow.WithLock(txCtx), entities.GlobalStatsID)
		if err != nil {
			return err
		}

		if in.TotalUsers != nil {
			current.TotalUsers = *in.TotalUsers
		}
		if in.TotalTransactions != nil {
			current.TotalTransactions = *in.TotalTransactions
		}
		if in.TotalPoints != nil {
			current.TotalPoints = *in.TotalPoints
		}
		if in.TotalSupply != nil {
			current.TotalSupply = *in.TotalSupply
		}
		if in.CirculatingSupply != nil {
			current.CirculatingSupply = *in.CirculatingSupply
		}
		if current.CirculatingSupply > current.TotalSupply {
			return domainerrors.Validation("circulatingSupply %.2f exceeds totalSupply %.2f",
				current.CirculatingSupply, current.TotalSupply)
		}

		current.LastUpdated = u.clock.Now().UTC()
		if err := u.statsRepo.Save(txCtx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrValidationFailed) {
			logger.Error(ctx, "Failed to update stats", zap.Error(err))
		}
		return nil, err
	}

	u.inv.changed(ctx, TopicStats)
	return updated, nil
}

// RecalculateStats rebuilds the counters from the profiles and transactions tables
func (u *StatsUsecase) RecalculateStats(ctx context.Context) (*entities.PlatformStats, error) {
	if _, err := u.EnsureStats(ctx); err != nil {
		return nil, err
	}

	var rebuilt *entities.PlatformStats
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		current, err := u.statsRepo.Get(u.uow.WithLock(txCtx), entities.GlobalStatsID)
		if err != nil {
			return err
		}
		users, err := u.profileRepo.Count(txCtx)
		if err != nil {
			return err
		}
		points, err := u.profileRepo.SumPoints(txCtx)
		if err != nil {
			return err
		}
		txs, err := u.txRepo.Count(txCtx)
		if err != nil {
			return err
		}

		current.TotalUsers = users
		current.TotalPoints = points
		current.TotalTransactions = txs
		current.LastUpdated = u.clock.Now().UTC()
		if err := u.statsRepo.Save(txCtx, current); err != nil {
			return err
		}
		rebuilt = current
		return nil
	})
	if err != nil {
		logger.Error(ctx, "Failed to recalculate stats", zap.Error(err))
		return nil, err
	}

	logger.Info(ctx, "Stats recalculated",
		zap.Int64("users", rebuilt.TotalUsers),
		zap.Int64("transactions", rebuilt.TotalTransactions),
		zap.Int64("points", rebuilt.TotalPoints),
	)
	u.inv.changed(ctx, TopicStats)
	return rebuilt, nil
}

// Increment atomically adds delta to the counters (col = col + ?). It is safe
// inside a caller's transaction; invalidation is left to the caller.
func (u *StatsUsecase) Increment(ctx context.Context, delta entities.StatsDelta) error {
	if delta.IsZero() {
		return nil
	}
	err := u.statsRepo.Increment(ctx, entities.GlobalStatsID, delta)
	if errors.Is(err, domainerrors.ErrNotFound) {
		if _, err = u.EnsureStats(ctx); err != nil {
			return err
		}
		err = u.statsRepo.Increment(ctx, entities.GlobalStatsID, delta)
	}
	if err != nil {
		logger.Error(ctx, "Failed to increment stats", zap.Error(err))
	}
	return err
}

func validateStatsUpdate(in entities.StatsUpdate) error {
	counters := []struct {
		name  string
		value *int64
	}{
		{"totalUsers", in.TotalUsers},
		{"totalTransactions", in.TotalTransactions},
		{"totalPoints", in.TotalPoints},
	}
	for _, c := range counters {
		if c.value != nil && *c.value < 0 {
			return domainerrors.Validation("%s must be non-negative, got %d", c.name, *c.value)
		}
	}

	supplies := []struct {
		name  string
		value *float64
	}{
		{"totalSupply", in.TotalSupply},
		{"circulatingSupply", in.CirculatingSupply},
	}
	for _, s := range supplies {
		if s.value != nil && (math.IsNaN(*s.value) || math.IsInf(*s.value, 0) || *s.value < 0) {
			return domainerrors.Validation("%s must be a non-negative number, got %v", s.name, *s.value)
		}
	}
	return nil
}
