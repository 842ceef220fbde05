package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/internal/infrastructure/models"
)

// AchievementRepository implements achievement templates and unlock records
type AchievementRepository struct {
	db *gorm.DB
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// List returns every template
func (r *AchievementRepository) List(ctx context.Context) ([]*entities.Achievement, error) {
	return r.find(GetDB(ctx, r.db).WithContext(ctx).Order("id ASC"))
}

// ListActive returns the templates currently eligible for unlocking
func (r *AchievementRepository) ListActive(ctx context.Context) ([]*entities.Achievement, error) {
	return r.find(GetDB(ctx, r.db).WithContext(ctx).Where("is_active = ?", true).Order("id ASC"))
}

// Upsert creates or replaces a template
func (r *AchievementRepository) Upsert(ctx context.Context, a *entities.Achievement) error {
	m := &models.Achievement{
		ID:              a.ID,
		Name:            a.Name,
		Description:     a.Description,
		Rarity:          string(a.Rarity),
		RequirementType: a.Requirement.Kind.String(),
		Threshold:       a.Requirement.Threshold,
		PointsReward:    a.PointsReward,
		IsActive:        a.Active,
	}
	return GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "rarity", "requirement_type", "threshold", "points_reward", "is_active", "updated_at"}),
		}).
		Create(m).Error
}

// GetUnlocked returns the unlock records of an address
func (r *AchievementRepository) GetUnlocked(ctx context.Context, address string) ([]*entities.UserAchievement, error) {
	var ms []models.UserAchievement
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("user_address = ?", address).
		Order("unlocked_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	unlocks := make([]*entities.UserAchievement, len(ms))
	for i, m := range ms {
		unlocks[i] = &entities.UserAchievement{
			UserAddress:   m.UserAddress,
			AchievementID: m.AchievementID,
			PointsAwarded: m.PointsAwarded,
			UnlockedAt:    m.UnlockedAt,
		}
	}
	return unlocks, nil
}

// CreateUnlockIfAbsent inserts the unlock unless the composite key already exists
func (r *AchievementRepository) CreateUnlockIfAbsent(ctx context.Context, unlock *entities.UserAchievement) (bool, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_address"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(&models.UserAchievement{
			UserAddress:   unlock.UserAddress,
			AchievementID: unlock.AchievementID,
			PointsAwarded: unlock.PointsAwarded,
			UnlockedAt:    unlock.UnlockedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Templates with an unknown stored requirement type are skipped rather than failing the whole list.
func (r *AchievementRepository) find(db *gorm.DB) ([]*entities.Achievement, error) {
	var ms []models.Achievement
	if err := db.Find(&ms).Error; err != nil {
		return nil, err
	}
	achievements := make([]*entities.Achievement, 0, len(ms))
	for _, m := range ms {
		kind, err := entities.ParseRequirementKind(m.RequirementType)
		if err != nil {
			continue
		}
		achievements = append(achievements, &entities.Achievement{
			ID:           m.ID,
			Name:         m.Name,
			Description:  m.Description,
			Rarity:       entities.Rarity(m.Rarity),
			Requirement:  entities.Requirement{Kind: kind, Threshold: m.Threshold},
			PointsReward: m.PointsReward,
			Active:       m.IsActive,
		})
	}
	return achievements, nil
}
