package repositories

import (
	"context"

	"ptradoor.backend/internal/domain/entities"
)

// TransactionRepository defines append-only transaction operations
type TransactionRepository interface {
	// Create returns ErrAlreadyProcessed when the hash is already recorded.
	Create(ctx context.Context, tx *entities.Transaction) error
	GetByUser(ctx context.Context, address string, limit int) ([]*entities.Transaction, error)
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	Count(ctx context.Context) (int64, error)
}
