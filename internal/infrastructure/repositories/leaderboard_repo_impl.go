package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/infrastructure/models"
)

const leaderboardOrder = "points DESC, user_address ASC"

// LeaderboardRepository implements leaderboard entry storage
type LeaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// Upsert writes the entry; rank is only set on insert and otherwise left to recalculation
func (r *LeaderboardRepository) Upsert(ctx context.Context, entry *entities.LeaderboardEntry) error {
	m := r.toModel(entry)
	return GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_address"}},
			DoUpdates: clause.AssignmentColumns([]string{"points", "tier", "transactions", "balance", "last_updated"}),
		}).
		Create(m).Error
}

// GetByAddress gets the entry of an address
func (r *LeaderboardRepository) GetByAddress(ctx context.Context, address string) (*entities.LeaderboardEntry, error) {
	var m models.LeaderboardEntry
	if err := readDB(ctx, r.db).Where("user_address = ?", address).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListOrdered returns all entries in ranking order
func (r *LeaderboardRepository) ListOrdered(ctx context.Context) ([]*entities.LeaderboardEntry, error) {
	return r.find(GetDB(ctx, r.db).WithContext(ctx).Order(leaderboardOrder))
}

// GetTop returns the first limit entries in ranking order
func (r *LeaderboardRepository) GetTop(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error) {
	return r.find(GetDB(ctx, r.db).WithContext(ctx).Order(leaderboardOrder).Limit(limit))
}

// UpdateRanks writes the given ranks; callers batch it inside a unit of work
func (r *LeaderboardRepository) UpdateRanks(ctx context.Context, ranks map[string]int) error {
	db := GetDB(ctx, r.db).WithContext(ctx)
	for address, rank := range ranks {
		if err := db.Model(&models.LeaderboardEntry{}).
			Where("user_address = ?", address).
			Update("rank", rank).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *LeaderboardRepository) find(db *gorm.DB) ([]*entities.LeaderboardEntry, error) {
	var ms []models.LeaderboardEntry
	if err := db.Find(&ms).Error; err != nil {
		return nil, err
	}
	entries := make([]*entities.LeaderboardEntry, len(ms))
	for i := range ms {
		entries[i] = r.toEntity(&ms[i])
	}
	return entries, nil
}

func (r *LeaderboardRepository) toEntity(m *models.LeaderboardEntry) *entities.LeaderboardEntry {
	return &entities.LeaderboardEntry{
		UserAddress:  m.UserAddress,
		Points:       m.Points,
		Rank:         m.Rank,
		Tier:         entities.Tier(m.Tier),
		Transactions: m.Transactions,
		Balance:      m.Balance,
		LastUpdated:  m.LastUpdated,
	}
}

func (r *LeaderboardRepository) toModel(e *entities.LeaderboardEntry) *models.LeaderboardEntry {
	return &models.LeaderboardEntry{
		UserAddress:  e.UserAddress,
		Points:       e.Points,
		Rank:         e.Rank,
		Tier:         string(e.Tier),
		Transactions: e.Transactions,
		Balance:      e.Balance,
		LastUpdated:  e.LastUpdated,
	}
}
