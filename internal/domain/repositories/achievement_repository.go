package repositories

import (
	"context"

	"ptradoor.backend/internal/domain/entities"
)

// AchievementRepository defines achievement template and unlock operations
type AchievementRepository interface {
	List(ctx context.Context) ([]*entities.Achievement, error)
	ListActive(ctx context.Context) ([]*entities.Achievement, error)
	Upsert(ctx context.Context, achievement *entities.Achievement) error
	GetUnlocked(ctx context.Context, address string) ([]*entities.UserAchievement, error)
	// CreateUnlockIfAbsent reports false when the (address, achievementId) key already exists.
	CreateUnlockIfAbsent(ctx context.Context, unlock *entities.UserAchievement) (bool, error)
}
