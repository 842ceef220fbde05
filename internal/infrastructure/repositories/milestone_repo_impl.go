package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/infrastructure/models"
)

// MilestoneRepository implements milestone storage
type MilestoneRepository struct {
	db *gorm.DB
}

// NewMilestoneRepository creates a new milestone repository
func NewMilestoneRepository(db *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// List returns all milestones ordered by type then target
func (r *MilestoneRepository) List(ctx context.Context) ([]*entities.Milestone, error) {
	var ms []models.Milestone
	if err := GetDB(ctx, r.db).WithContext(ctx).Order("type ASC, target ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.Milestone, len(ms))
	for i, m := range ms {
		out[i] = &entities.Milestone{
			ID:        m.ID,
			Name:      m.Name,
			Type:      entities.MilestoneType(m.Type),
			Target:    m.Target,
			Current:   m.Current,
			Completed: m.Completed,
			UpdatedAt: m.UpdatedAt,
		}
	}
	return out, nil
}

// CreateIfAbsent inserts a milestone unless its id exists
func (r *MilestoneRepository) CreateIfAbsent(ctx context.Context, m *entities.Milestone) (bool, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&models.Milestone{
			ID:        m.ID,
			Name:      m.Name,
			Type:      string(m.Type),
			Target:    m.Target,
			Current:   m.Current,
			Completed: m.Completed,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Update writes progress fields
func (r *MilestoneRepository) Update(ctx context.Context, m *entities.Milestone) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Milestone{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"current_value": m.Current,
			"completed":     m.Completed,
			"updated_at":    m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
