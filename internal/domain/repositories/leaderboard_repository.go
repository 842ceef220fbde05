package repositories

import (
	"context"

	"ptradoor.backend/internal/domain/entities"
)

// LeaderboardRepository defines leaderboard entry operations
type LeaderboardRepository interface {
	Upsert(ctx context.Context, entry *entities.LeaderboardEntry) error
	GetByAddress(ctx context.Context, address string) (*entities.LeaderboardEntry, error)
	// ListOrdered returns every entry by points descending, ties by address ascending.
	ListOrdered(ctx context.Context) ([]*entities.LeaderboardEntry, error)
	GetTop(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error)
	UpdateRanks(ctx context.Context, ranks map[string]int) error
}
