package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/infrastructure/models"
)

// StatsRepository implements the platform stats singleton
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get reads the stats document
func (r *StatsRepository) Get(ctx context.Context, id string) (*entities.PlatformStats, error) {
	var m models.PlatformStats
	if err := readDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toStatsEntity(&m), nil
}

// CreateIfAbsent initializes the document unless it exists
func (r *StatsRepository) CreateIfAbsent(ctx context.Context, stats *entities.PlatformStats) (bool, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(toStatsModel(stats))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Save overwrites every counter of the document
func (r *StatsRepository) Save(ctx context.Context, stats *entities.PlatformStats) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(toStatsModel(stats)).Error
}

// Increment applies the delta with col = col + ? so concurrent writers never lose updates
func (r *StatsRepository) Increment(ctx context.Context, id string, delta entities.StatsDelta) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.PlatformStats{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_users":        gorm.Expr("total_users + ?", delta.Users),
			"total_transactions": gorm.Expr("total_transactions + ?", delta.Transactions),
			"total_points":       gorm.Expr("total_points + ?", delta.Points),
			"last_updated":       time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toStatsEntity(m *models.PlatformStats) *entities.PlatformStats {
	return &entities.PlatformStats{
		ID:                m.ID,
		TotalUsers:        m.TotalUsers,
		TotalTransactions: m.TotalTransactions,
		TotalPoints:       m.TotalPoints,
		TotalSupply:       m.TotalSupply,
		CirculatingSupply: m.CirculatingSupply,
		LastUpdated:       m.LastUpdated,
	}
}

func toStatsModel(s *entities.PlatformStats) *models.PlatformStats {
	return &models.PlatformStats{
		ID:                s.ID,
		TotalUsers:        s.TotalUsers,
		TotalTransactions: s.TotalTransactions,
		TotalPoints:       s.TotalPoints,
		TotalSupply:       s.TotalSupply,
		CirculatingSupply: s.CirculatingSupply,
		LastUpdated:       s.LastUpdated,
	}
}
