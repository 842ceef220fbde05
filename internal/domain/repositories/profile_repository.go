package repositories

import (
	"context"
	"time"

	"ptradoor.backend/internal/domain/entities"
)

// ProfileRepository defines user profile data operations
type ProfileRepository interface {
	GetByAddress(ctx context.Context, address string) (*entities.UserProfile, error)
	// CreateIfAbsent inserts the profile unless the address exists and reports whether it inserted.
	CreateIfAbsent(ctx context.Context, profile *entities.UserProfile) (bool, error)
	// ClaimInitial flips initial false->true and reports whether this call won the transition.
	ClaimInitial(ctx context.Context, address string) (bool, error)
	SaveInitialized(ctx context.Context, profile *entities.UserProfile) error
	UpdateIdentity(ctx context.Context, address string, update *entities.ProfileUpdate, now time.Time) error
	UpdatePoints(ctx context.Context, address string, points int64, tier entities.Tier, now time.Time) error
	UpdateBalance(ctx context.Context, address string, balance, earned float64, now time.Time) error
	UpdateStreak(ctx context.Context, address string, streak int, lastActive time.Time) error
	IncrementTransactions(ctx context.Context, address string, delta int64) error
	IncrementAchievements(ctx context.Context, address string, delta int) error
	UpdateLastProcessedBlock(ctx context.Context, address string, block uint64) error
	UpdateRanks(ctx context.Context, ranks map[string]int) error
	List(ctx context.Context, limit, offset int) ([]*entities.UserProfile, int64, error)
	ListAll(ctx context.Context) ([]*entities.UserProfile, error)
	Count(ctx context.Context) (int64, error)
	SumPoints(ctx context.Context) (int64, error)
}
