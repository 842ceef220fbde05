package usecases

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/domain/repositories"
	"ptradoor.backend/pkg/cache"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/metrics"
	"ptradoor.backend/pkg/utils"
)

// errInitialClaimed means a concurrent first touch already granted the initial points
var errInitialClaimed = errors.New("initial grant already claimed")

// ProfileUsecase reads and writes user profiles, including the one-time initial grant
type ProfileUsecase struct {
	profileRepo repositories.ProfileRepository
	txRepo      repositories.TransactionRepository
	uow         repositories.UnitOfWork
	chain       ChainActivityLookup
	calc        *PointCalculator
	stats       *StatsUsecase
	leaderboard *LeaderboardUsecase
	clock       cache.Clock
	inv         invalidator
}

// NewProfileUsecase creates a new profile usecase
func NewProfileUsecase(
	profileRepo repositories.ProfileRepository,
	txRepo repositories.TransactionRepository,
	uow repositories.UnitOfWork,
	chain ChainActivityLookup,
	calc *PointCalculator,
	stats *StatsUsecase,
	leaderboard *LeaderboardUsecase,
	readCache ReadCache,
	notifier ChangeNotifier,
) *ProfileUsecase {
	return &ProfileUsecase{
		profileRepo: profileRepo,
		txRepo:      txRepo,
		uow:         uow,
		chain:       chain,
		calc:        calc,
		stats:       stats,
		leaderboard: leaderboard,
		clock:       cache.SystemClock,
		inv:         invalidator{cache: readCache, notifier: notifier},
	}
}

// SetClock replaces the time source
func (u *ProfileUsecase) SetClock(c cache.Clock) {
	u.clock = c
}

// GetProfile returns the profile for address or ErrProfileNotFound
func (u *ProfileUsecase) GetProfile(ctx context.Context, address string) (*entities.UserProfile, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	key := profileCacheKey(address)
	if p, ok := cacheGet[*entities.UserProfile](u.inv.cache, key); ok {
		return p, nil
	}

	p, err := u.load(ctx, address)
	if err != nil {
		return nil, err
	}
	cacheSet(u.inv.cache, key, p)
	return p, nil
}

// UpsertProfile creates or updates a profile. The first touch of an address
// computes the initial grant from its on-chain history; later calls only apply
// the partial update.
func (u *ProfileUsecase) UpsertProfile(ctx context.Context, address string, update *entities.ProfileUpdate, identity entities.Identity) (*entities.UserProfile, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if update != nil && update.Referrals != nil && *update.Referrals < 0 {
		return nil, domainerrors.Validation("referrals must be non-negative")
	}

	existing, err := u.profileRepo.GetByAddress(ctx, address)
	switch {
	case err == nil && existing.Initial:
		return u.applyPartial(ctx, address, update)
	case err != nil && !errors.Is(err, domainerrors.ErrProfileNotFound):
		logger.Error(ctx, "Failed to read profile", zap.String("address", address), zap.Error(err))
		return nil, err
	}

	profile, err := u.firstTouch(ctx, address, update, identity)
	if errors.Is(err, errInitialClaimed) {
		metrics.RecordInitialGrant("already_claimed")
		return u.applyPartial(ctx, address, update)
	}
	return profile, err
}

// UpdatePoints adds delta to the profile's points, floored at zero, and
// keeps tier, stats and leaderboard in step in the same transaction.
func (u *ProfileUsecase) UpdatePoints(ctx context.Context, address string, delta int64) (*entities.UserProfile, error) {
	updated, err := u.commitPoints(ctx, address, delta)
	if err != nil {
		return nil, err
	}
	u.afterPointsChange(ctx, updated)
	return u.load(ctx, updated.Address)
}

// commitPoints writes points, tier, stats and the leaderboard entry in one
// transaction. Ranks are left for settlePoints.
func (u *ProfileUsecase) commitPoints(ctx context.Context, address string, delta int64) (*entities.UserProfile, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var updated *entities.UserProfile
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		updated, _, err = u.applyPoints(txCtx, address, delta)
		return err
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrProfileNotFound) {
			logger.Error(ctx, "Failed to update points", zap.String("address", address), zap.Error(err))
		}
		return nil, err
	}
	return updated, nil
}

// ListProfiles returns a page of profiles ordered by points
func (u *ProfileUsecase) ListProfiles(ctx context.Context, page, limit int) ([]*entities.UserProfile, utils.PaginationMeta, error) {
	params := utils.GetPaginationParams(page, limit)
	profiles, total, err := u.profileRepo.List(ctx, params.Limit, params.CalculateOffset())
	if err != nil {
		logger.Error(ctx, "Failed to list profiles", zap.Error(err))
		return nil, utils.PaginationMeta{}, err
	}
	for _, p := range profiles {
		if rank, ok := u.leaderboard.liveRank(ctx, p.Address); ok {
			p.CurrentRank = rank
		}
	}
	return profiles, utils.CalculateMeta(total, params.Page, params.Limit), nil
}

// GetTierProgress reports progress towards the profile's next tier
func (u *ProfileUsecase) GetTierProgress(ctx context.Context, address string) (*entities.TierProgress, error) {
	p, err := u.GetProfile(ctx, address)
	if err != nil {
		return nil, err
	}
	progress := ResolveTierProgress(p.TotalPoints)
	return &progress, nil
}

func (u *ProfileUsecase) firstTouch(ctx context.Context, address string, update *entities.ProfileUpdate, identity entities.Identity) (*entities.UserProfile, error) {
	history, err := u.chain.GetTransactions(ctx, address)
	if err != nil {
		logger.Error(ctx, "Chain activity lookup failed", zap.String("address", address), zap.Error(err))
		metrics.RecordInitialGrant("upstream_error")
		return nil, domainerrors.Upstream("chain activity lookup", err)
	}
	grant, qualifying := u.calc.GrantFromHistory(address, history)
	now := u.clock.Now().UTC()

	var profile *entities.UserProfile
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		created, err := u.profileRepo.CreateIfAbsent(txCtx, &entities.UserProfile{
			Address:    address,
			Tier:       entities.TierBronze,
			JoinDate:   now,
			LastActive: now,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}

		claimed, err := u.profileRepo.ClaimInitial(txCtx, address)
		if err != nil {
			return err
		}
		if !claimed {
			return errInitialClaimed
		}

		profile, err = u.profileRepo.GetByAddress(u.uow.WithLock(txCtx), address)
		if err != nil {
			return err
		}
		identity.ApplyTo(profile)
		if update != nil {
			update.Identity.ApplyTo(profile)
		}
		profile.TotalPoints += grant.Total
		profile.Tier = ResolveTier(profile.TotalPoints)
		profile.LastActive = now
		profile.UpdatedAt = now
		if err := u.profileRepo.SaveInitialized(txCtx, profile); err != nil {
			return err
		}
		if update != nil && (update.HasMinted != nil || update.Referrals != nil) {
			flags := &entities.ProfileUpdate{HasMinted: update.HasMinted, Referrals: update.Referrals}
			if err := u.profileRepo.UpdateIdentity(txCtx, address, flags, now); err != nil {
				return err
			}
		}

		if err := u.txRepo.Create(txCtx, &entities.Transaction{
			UserAddress: address,
			Type:        entities.TransactionTypeInitialGrant,
			Points:      grant.Total,
			Status:      entities.TransactionStatusCompleted,
			Metadata: map[string]interface{}{
				"transactionPoints":      grant.TransactionPoints,
				"gasPoints":              grant.GasPoints,
				"valuePoints":            grant.ValuePoints,
				"qualifyingTransactions": qualifying,
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}

		delta := entities.StatsDelta{Transactions: 1, Points: grant.Total}
		if created {
			delta.Users = 1
		}
		if err := u.stats.Increment(txCtx, delta); err != nil {
			return err
		}
		return u.leaderboard.writeEntry(txCtx, profile)
	})
	if err != nil {
		if !errors.Is(err, errInitialClaimed) {
			logger.Error(ctx, "Failed to initialize profile", zap.String("address", address), zap.Error(err))
		}
		return nil, err
	}

	metrics.RecordInitialGrant("granted")
	metrics.RecordPoints("initial_grant", grant.Total)
	logger.Info(ctx, "Initial grant applied",
		zap.String("address", address),
		zap.Int("qualifyingTransactions", qualifying),
		zap.Int64("points", grant.Total),
	)

	u.afterPointsChange(ctx, profile)
	return u.load(ctx, address)
}

func (u *ProfileUsecase) applyPartial(ctx context.Context, address string, update *entities.ProfileUpdate) (*entities.UserProfile, error) {
	if err := u.profileRepo.UpdateIdentity(ctx, address, update, u.clock.Now().UTC()); err != nil {
		logger.Error(ctx, "Failed to update profile", zap.String("address", address), zap.Error(err))
		return nil, err
	}
	u.inv.changed(ctx, ProfileTopic(address))
	return u.load(ctx, address)
}

// applyPoints must run inside a transaction. It returns the updated profile
// and the delta actually applied after flooring at zero.
func (u *ProfileUsecase) applyPoints(txCtx context.Context, address string, delta int64) (*entities.UserProfile, int64, error) {
	p, err := u.profileRepo.GetByAddress(u.uow.WithLock(txCtx), address)
	if err != nil {
		return nil, 0, err
	}

	points := p.TotalPoints + delta
	if points < 0 {
		points = 0
	}
	applied := points - p.TotalPoints
	now := u.clock.Now().UTC()

	p.TotalPoints = points
	p.Tier = ResolveTier(points)
	p.UpdatedAt = now
	if err := u.profileRepo.UpdatePoints(txCtx, address, points, p.Tier, now); err != nil {
		return nil, 0, err
	}
	if err := u.stats.Increment(txCtx, entities.StatsDelta{Points: applied}); err != nil {
		return nil, 0, err
	}
	if err := u.leaderboard.writeEntry(txCtx, p); err != nil {
		return nil, 0, err
	}
	return p, applied, nil
}

// settlePoints runs the post-commit side effects of any points write: refresh
// ranks, then invalidate and announce whether or not the refresh succeeded.
func (u *ProfileUsecase) settlePoints(ctx context.Context, p *entities.UserProfile) error {
	err := u.leaderboard.refreshRanks(ctx, p.Address, p.TotalPoints)
	u.inv.changed(ctx, ProfileTopic(p.Address), TopicLeaderboard, TopicStats)
	return err
}

// afterPointsChange settles a points write. A failed rank refresh is repaired
// by the next recalculation.
func (u *ProfileUsecase) afterPointsChange(ctx context.Context, p *entities.UserProfile) {
	if err := u.settlePoints(ctx, p); err != nil {
		logger.Warn(ctx, "Rank refresh failed", zap.String("address", p.Address), zap.Error(err))
	}
}

// load reads the stored profile and overlays the live rank when an index is configured
func (u *ProfileUsecase) load(ctx context.Context, address string) (*entities.UserProfile, error) {
	p, err := u.profileRepo.GetByAddress(ctx, address)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrProfileNotFound) {
			logger.Error(ctx, "Failed to read profile", zap.String("address", address), zap.Error(err))
		}
		return nil, err
	}
	if rank, ok := u.leaderboard.liveRank(ctx, address); ok {
		p.CurrentRank = rank
	}
	return p, nil
}

func normalizeAddress(raw string) (string, error) {
	address, ok := utils.NormalizeAddress(raw)
	if !ok {
		return "", domainerrors.Validation("invalid wallet address %q", raw)
	}
	return address, nil
}
