package usecases

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/domain/repositories"
	"ptradoor.backend/pkg/cache"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/metrics"
	"ptradoor.backend/pkg/utils"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// LeaderboardUsecase keeps the denormalized leaderboard in step with profiles.
//
// Without a rank index every entry write is followed by a full rank
// recalculation. With one, writes only touch the index and the stored ranks
// are rewritten by RecalculateRankings on a schedule; reads take their rank
// from the index.
type LeaderboardUsecase struct {
	leaderboardRepo repositories.LeaderboardRepository
	profileRepo     repositories.ProfileRepository
	uow             repositories.UnitOfWork
	rankIndex       RankIndex
	clock           cache.Clock
	inv             invalidator
}

// NewLeaderboardUsecase creates a new leaderboard usecase. rankIndex may be nil.
func NewLeaderboardUsecase(
	leaderboardRepo repositories.LeaderboardRepository,
	profileRepo repositories.ProfileRepository,
	uow repositories.UnitOfWork,
	rankIndex RankIndex,
	readCache ReadCache,
	notifier ChangeNotifier,
) *LeaderboardUsecase {
	return &LeaderboardUsecase{
		leaderboardRepo: leaderboardRepo,
		profileRepo:     profileRepo,
		uow:             uow,
		rankIndex:       rankIndex,
		clock:           cache.SystemClock,
		inv:             invalidator{cache: readCache, notifier: notifier},
	}
}

// SetClock replaces the time source
func (u *LeaderboardUsecase) SetClock(c cache.Clock) {
	u.clock = c
}

// UpsertEntry writes the entry for address with the given points and tier,
// taking transactions and balance from the profile, then refreshes ranks.
func (u *LeaderboardUsecase) UpsertEntry(ctx context.Context, address string, points int64, tier entities.Tier) error {
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		profile, err := u.profileRepo.GetByAddress(txCtx, address)
		if err != nil {
			return err
		}
		profile.TotalPoints = points
		profile.Tier = tier
		return u.writeEntry(txCtx, profile)
	})
	if err != nil {
		logger.Error(ctx, "Failed to upsert leaderboard entry", zap.String("address", address), zap.Error(err))
		return err
	}

	if err := u.refreshRanks(ctx, address, points); err != nil {
		return err
	}
	u.inv.changed(ctx, TopicLeaderboard)
	return nil
}

// RecalculateRankings assigns dense ranks 1..N by points descending, ties by address
func (u *LeaderboardUsecase) RecalculateRankings(ctx context.Context) (int, error) {
	n, err := u.recalculate(ctx)
	if err != nil {
		return 0, err
	}
	u.inv.changed(ctx, TopicLeaderboard)
	return n, nil
}

// EnsureEntry repairs the entry of one profile when it is missing or stale
func (u *LeaderboardUsecase) EnsureEntry(ctx context.Context, address string) (bool, error) {
	profile, err := u.profileRepo.GetByAddress(ctx, address)
	if err != nil {
		return false, err
	}
	repaired, err := u.ensureEntry(ctx, profile)
	if err != nil || !repaired {
		return repaired, err
	}
	if err := u.refreshRanks(ctx, address, profile.TotalPoints); err != nil {
		return true, err
	}
	u.inv.changed(ctx, TopicLeaderboard)
	return true, nil
}

// SyncAll runs EnsureEntry over every profile and recalculates ranks once at the end
func (u *LeaderboardUsecase) SyncAll(ctx context.Context) (*entities.LeaderboardSyncResult, error) {
	profiles, err := u.profileRepo.ListAll(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to list profiles for leaderboard sync", zap.Error(err))
		return nil, err
	}

	result := &entities.LeaderboardSyncResult{}
	for _, p := range profiles {
		repaired, err := u.ensureEntry(ctx, p)
		if err != nil {
			return nil, err
		}
		result.Checked++
		if repaired {
			result.Repaired++
		}
	}

	if _, err := u.RecalculateRankings(ctx); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Leaderboard synced", zap.Int("checked", result.Checked), zap.Int("repaired", result.Repaired))
	return result, nil
}

// Diagnose compares every profile with its entry without writing anything
func (u *LeaderboardUsecase) Diagnose(ctx context.Context) (*entities.LeaderboardDiagnosis, error) {
	profiles, err := u.profileRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := u.leaderboardRepo.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}

	byAddress := make(map[string]*entities.LeaderboardEntry, len(entries))
	for _, e := range entries {
		byAddress[e.UserAddress] = e
	}

	report := &entities.LeaderboardDiagnosis{
		TotalProfiles: len(profiles),
		TotalEntries:  len(entries),
		Mismatched:    []entities.LeaderboardMismatch{},
		Missing:       []string{},
	}
	for _, p := range profiles {
		e, ok := byAddress[p.Address]
		if !ok {
			report.Missing = append(report.Missing, p.Address)
			continue
		}
		if e.Points != p.TotalPoints || e.Tier != p.Tier {
			report.Mismatched = append(report.Mismatched, entities.LeaderboardMismatch{
				Address:       p.Address,
				EntryPoints:   e.Points,
				ProfilePoints: p.TotalPoints,
				EntryTier:     e.Tier,
				ProfileTier:   p.Tier,
			})
		}
	}
	if u.rankIndex != nil {
		indexed, err := u.rankIndex.Count(ctx)
		if err != nil {
			return nil, err
		}
		report.IndexedEntries = &indexed
	}
	return report, nil
}

// GetTop returns the first limit entries, served from cache when possible
func (u *LeaderboardUsecase) GetTop(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error) {
	limit = utils.ClampLimit(limit, DefaultLeaderboardLimit, MaxLeaderboardLimit)
	key := leaderboardCacheKey(limit)
	if entries, ok := cacheGet[[]*entities.LeaderboardEntry](u.inv.cache, key); ok {
		return entries, nil
	}

	entries, err := u.leaderboardRepo.GetTop(ctx, limit)
	if err != nil {
		logger.Error(ctx, "Failed to read leaderboard", zap.Error(err))
		return nil, err
	}
	if u.rankIndex != nil {
		// the index and the query share one ordering, so position is rank
		for i, e := range entries {
			e.Rank = i + 1
		}
	}

	cacheSet(u.inv.cache, key, entries)
	return entries, nil
}

// GetEntry returns one entry with its live rank
func (u *LeaderboardUsecase) GetEntry(ctx context.Context, address string) (*entities.LeaderboardEntry, error) {
	entry, err := u.leaderboardRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if rank, ok := u.liveRank(ctx, address); ok {
		entry.Rank = rank
	}
	return entry, nil
}

// writeEntry upserts the entry from a profile snapshot; safe inside a caller's transaction
func (u *LeaderboardUsecase) writeEntry(ctx context.Context, p *entities.UserProfile) error {
	return u.leaderboardRepo.Upsert(ctx, &entities.LeaderboardEntry{
		UserAddress:  p.Address,
		Points:       p.TotalPoints,
		Tier:         p.Tier,
		Transactions: p.TotalTransactions,
		Balance:      p.PtradoorBalance,
		LastUpdated:  u.clock.Now().UTC(),
	})
}

func (u *LeaderboardUsecase) ensureEntry(ctx context.Context, p *entities.UserProfile) (bool, error) {
	entry, err := u.leaderboardRepo.GetByAddress(ctx, p.Address)
	switch {
	case err == nil:
		if entry.Points == p.TotalPoints && entry.Tier == p.Tier &&
			entry.Transactions == p.TotalTransactions && entry.Balance == p.PtradoorBalance {
			return false, nil
		}
	case errors.Is(err, domainerrors.ErrNotFound):
	default:
		return false, err
	}

	if err := u.writeEntry(ctx, p); err != nil {
		logger.Error(ctx, "Failed to repair leaderboard entry", zap.String("address", p.Address), zap.Error(err))
		return false, err
	}
	return true, nil
}

// refreshRanks runs after the entry write committed
func (u *LeaderboardUsecase) refreshRanks(ctx context.Context, address string, points int64) error {
	if u.rankIndex != nil {
		err := u.rankIndex.Set(ctx, address, points)
		if err == nil {
			return nil
		}
		logger.Warn(ctx, "Rank index update failed, recalculating", zap.String("address", address), zap.Error(err))
	}
	_, err := u.recalculate(ctx)
	return err
}

func (u *LeaderboardUsecase) recalculate(ctx context.Context) (int, error) {
	start := time.Now()
	var entries []*entities.LeaderboardEntry

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		entries, err = u.leaderboardRepo.ListOrdered(txCtx)
		if err != nil {
			return err
		}
		ranks := make(map[string]int, len(entries))
		for i, e := range entries {
			ranks[e.UserAddress] = i + 1
		}
		if err := u.leaderboardRepo.UpdateRanks(txCtx, ranks); err != nil {
			return err
		}
		return u.profileRepo.UpdateRanks(txCtx, ranks)
	})
	if err != nil {
		logger.Error(ctx, "Failed to recalculate rankings", zap.Error(err))
		return 0, err
	}
	metrics.ObserveRankRecalculation(time.Since(start))

	if u.rankIndex != nil {
		points := make(map[string]int64, len(entries))
		for _, e := range entries {
			points[e.UserAddress] = e.Points
		}
		if err := u.rankIndex.Replace(ctx, points); err != nil {
			logger.Warn(ctx, "Failed to rebuild rank index", zap.Error(err))
		}
	}
	return len(entries), nil
}

// liveRank reads the rank index; false when there is no index or no entry
func (u *LeaderboardUsecase) liveRank(ctx context.Context, address string) (int, bool) {
	if u.rankIndex == nil {
		return 0, false
	}
	rank, ok, err := u.rankIndex.Rank(ctx, address)
	if err != nil {
		logger.Warn(ctx, "Rank index lookup failed", zap.String("address", address), zap.Error(err))
		return 0, false
	}
	return rank, ok
}
