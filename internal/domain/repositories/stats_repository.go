package repositories

import (
	"context"

	"ptradoor.backend/internal/domain/entities"
)

// StatsRepository defines platform stats operations
type StatsRepository interface {
	Get(ctx context.Context, id string) (*entities.PlatformStats, error)
	CreateIfAbsent(ctx context.Context, stats *entities.PlatformStats) (bool, error)
	Save(ctx context.Context, stats *entities.PlatformStats) error
	Increment(ctx context.Context, id string, delta entities.StatsDelta) error
}
