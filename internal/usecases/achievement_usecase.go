package usecases

import (
	"context"

	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/internal/domain/repositories"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/metrics"
)

// DefaultAchievements are seeded on startup
var DefaultAchievements = []entities.Achievement{
	{
		ID:           "first_trade",
		Name:         "First Trade",
		Description:  "Complete your first trade",
		Rarity:       entities.RarityCommon,
		Requirement:  entities.Requirement{Kind: entities.RequirementTransactions, Threshold: 1},
		PointsReward: 50,
		Active:       true,
	},
	{
		ID:           "active_trader",
		Name:         "Active Trader",
		Description:  "Complete 10 trades",
		Rarity:       entities.RarityRare,
		Requirement:  entities.Requirement{Kind: entities.RequirementTransactions, Threshold: 10},
		PointsReward: 200,
		Active:       true,
	},
	{
		ID:           "point_collector",
		Name:         "Point Collector",
		Description:  "Earn 1,000 points",
		Rarity:       entities.RarityRare,
		Requirement:  entities.Requirement{Kind: entities.RequirementPoints, Threshold: 1000},
		PointsReward: 100,
		Active:       true,
	},
	{
		ID:           "week_warrior",
		Name:         "Week Warrior",
		Description:  "Trade seven weeks in a row",
		Rarity:       entities.RarityEpic,
		Requirement:  entities.Requirement{Kind: entities.RequirementStreak, Threshold: 7},
		PointsReward: 250,
		Active:       true,
	},
	{
		ID:           "whale",
		Name:         "Whale",
		Description:  "Hold 100,000 pTradoor",
		Rarity:       entities.RarityLegendary,
		Requirement:  entities.Requirement{Kind: entities.RequirementBalance, Threshold: 100000},
		PointsReward: 500,
		Active:       true,
	},
	{
		ID:           "networker",
		Name:         "Networker",
		Description:  "Refer five friends",
		Rarity:       entities.RarityRare,
		Requirement:  entities.Requirement{Kind: entities.RequirementReferrals, Threshold: 5},
		PointsReward: 150,
		Active:       true,
	},
}

// AchievementUsecase unlocks achievements exactly once per address
type AchievementUsecase struct {
	achievementRepo repositories.AchievementRepository
	profileRepo     repositories.ProfileRepository
	txRepo          repositories.TransactionRepository
	uow             repositories.UnitOfWork
	profiles        *ProfileUsecase
}

// NewAchievementUsecase creates a new achievement usecase
func NewAchievementUsecase(
	achievementRepo repositories.AchievementRepository,
	profileRepo repositories.ProfileRepository,
	txRepo repositories.TransactionRepository,
	uow repositories.UnitOfWork,
	profiles *ProfileUsecase,
) *AchievementUsecase {
	return &AchievementUsecase{
		achievementRepo: achievementRepo,
		profileRepo:     profileRepo,
		txRepo:          txRepo,
		uow:             uow,
		profiles:        profiles,
	}
}

// SeedDefaults writes the built-in templates
func (u *AchievementUsecase) SeedDefaults(ctx context.Context) error {
	return u.uow.Do(ctx, func(txCtx context.Context) error {
		for i := range DefaultAchievements {
			a := DefaultAchievements[i]
			if err := u.achievementRepo.Upsert(txCtx, &a); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListAchievements returns every template
func (u *AchievementUsecase) ListAchievements(ctx context.Context) ([]*entities.Achievement, error) {
	return u.achievementRepo.List(ctx)
}

// ListUserAchievements returns what address has unlocked
func (u *AchievementUsecase) ListUserAchievements(ctx context.Context, address string) ([]*entities.UserAchievement, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return u.achievementRepo.GetUnlocked(ctx, address)
}

// CheckAndAward unlocks every active achievement the profile now satisfies and
// returns the ids unlocked by this call. A concurrent call that already created
// the unlock wins; this one skips it without awarding.
func (u *AchievementUsecase) CheckAndAward(ctx context.Context, address string) ([]string, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	profile, err := u.profileRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	unlocked, err := u.achievementRepo.GetUnlocked(ctx, address)
	if err != nil {
		return nil, err
	}
	templates, err := u.achievementRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(unlocked))
	for _, ua := range unlocked {
		have[ua.AchievementID] = true
	}

	newly := []string{}
	var latest *entities.UserProfile
	for _, a := range templates {
		if have[a.ID] {
			continue
		}
		ok, err := a.Requirement.SatisfiedBy(profile)
		if err != nil {
			logger.Warn(ctx, "Skipping achievement with invalid requirement", zap.String("achievement", a.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		awarded, updated, err := u.award(ctx, address, a)
		if err != nil {
			logger.Error(ctx, "Failed to award achievement",
				zap.String("address", address), zap.String("achievement", a.ID), zap.Error(err))
			return newly, err
		}
		if !awarded {
			continue
		}
		if updated != nil {
			latest = updated
		}
		newly = append(newly, a.ID)
		metrics.RecordAchievementUnlocked(a.ID)
		metrics.RecordPoints("achievement", a.PointsReward)
	}

	if len(newly) == 0 {
		return newly, nil
	}
	if latest == nil {
		latest = profile
	}
	u.profiles.afterPointsChange(ctx, latest)
	logger.Info(ctx, "Achievements unlocked", zap.String("address", address), zap.Strings("achievements", newly))
	return newly, nil
}

func (u *AchievementUsecase) award(ctx context.Context, address string, a *entities.Achievement) (bool, *entities.UserProfile, error) {
	awarded := false
	var updated *entities.UserProfile
	now := u.profiles.clock.Now().UTC()

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		created, err := u.achievementRepo.CreateUnlockIfAbsent(txCtx, &entities.UserAchievement{
			UserAddress:   address,
			AchievementID: a.ID,
			PointsAwarded: a.PointsReward,
			UnlockedAt:    now,
		})
		if err != nil || !created {
			return err
		}
		if err := u.profileRepo.IncrementAchievements(txCtx, address, 1); err != nil {
			return err
		}

		if a.PointsReward > 0 {
			if err := u.txRepo.Create(txCtx, &entities.Transaction{
				UserAddress: address,
				Type:        entities.TransactionTypeAchievementReward,
				Points:      a.PointsReward,
				Status:      entities.TransactionStatusCompleted,
				Metadata:    map[string]interface{}{"achievementId": a.ID},
				CreatedAt:   now,
			}); err != nil {
				return err
			}
			if err := u.profiles.stats.Increment(txCtx, entities.StatsDelta{Transactions: 1}); err != nil {
				return err
			}
			if updated, _, err = u.profiles.applyPoints(txCtx, address, a.PointsReward); err != nil {
				return err
			}
		}
		awarded = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return awarded, updated, nil
}
