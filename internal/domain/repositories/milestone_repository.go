package repositories

import (
	"context"

	"ptradoor.backend/internal/domain/entities"
)

// MilestoneRepository defines milestone operations
type MilestoneRepository interface {
	List(ctx context.Context) ([]*entities.Milestone, error)
	CreateIfAbsent(ctx context.Context, milestone *entities.Milestone) (bool, error)
	Update(ctx context.Context, milestone *entities.Milestone) error
}
