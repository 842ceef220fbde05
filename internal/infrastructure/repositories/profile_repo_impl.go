package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/infrastructure/models"
)

// ProfileRepository implements user profile data operations
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByAddress gets a profile by wallet address
func (r *ProfileRepository) GetByAddress(ctx context.Context, address string) (*entities.UserProfile, error) {
	var m models.UserProfile
	if err := readDB(ctx, r.db).Where("address = ?", address).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrProfileNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// CreateIfAbsent inserts a profile unless one already exists for the address
func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, profile *entities.UserProfile) (bool, error) {
	m := r.toModel(profile)
	result := GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "address"}}, DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimInitial is a conditional update; only the caller that flips the flag sees true
func (r *ProfileRepository) ClaimInitial(ctx context.Context, address string) (bool, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.UserProfile{}).
		Where("address = ? AND initial = ?", address, false).
		Update("initial", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SaveInitialized writes the grant fields of a freshly initialized profile
func (r *ProfileRepository) SaveInitialized(ctx context.Context, profile *entities.UserProfile) error {
	updates := map[string]interface{}{
		"fid":          profile.Fid.Ptr(),
		"username":     profile.Username.Ptr(),
		"display_name": profile.DisplayName.Ptr(),
		"avatar":       profile.Avatar.Ptr(),
		"tier":         string(profile.Tier),
		"total_points": profile.TotalPoints,
		"join_date":    profile.JoinDate,
		"last_active":  profile.LastActive,
		"updated_at":   profile.UpdatedAt,
	}
	return r.update(ctx, profile.Address, updates)
}

// UpdateIdentity applies the partial update of an initialized profile
func (r *ProfileRepository) UpdateIdentity(ctx context.Context, address string, update *entities.ProfileUpdate, now time.Time) error {
	updates := map[string]interface{}{
		"last_active": now,
		"updated_at":  now,
	}
	if update != nil {
		if update.Fid.Valid {
			updates["fid"] = update.Fid.Int64
		}
		if update.Username.Valid {
			updates["username"] = update.Username.String
		}
		if update.DisplayName.Valid {
			updates["display_name"] = update.DisplayName.String
		}
		if update.Avatar.Valid {
			updates["avatar"] = update.Avatar.String
		}
		if update.HasMinted != nil {
			updates["has_minted"] = *update.HasMinted
		}
		if update.Referrals != nil {
			updates["referrals"] = *update.Referrals
		}
	}
	return r.update(ctx, address, updates)
}

// UpdatePoints persists points and the tier derived from them together
func (r *ProfileRepository) UpdatePoints(ctx context.Context, address string, points int64, tier entities.Tier, now time.Time) error {
	return r.update(ctx, address, map[string]interface{}{
		"total_points": points,
		"tier":         string(tier),
		"updated_at":   now,
	})
}

// UpdateBalance sets the pTradoor balance and cumulative earned amount
func (r *ProfileRepository) UpdateBalance(ctx context.Context, address string, balance, earned float64, now time.Time) error {
	return r.update(ctx, address, map[string]interface{}{
		"ptradoor_balance": balance,
		"ptradoor_earned":  earned,
		"updated_at":       now,
	})
}

// UpdateStreak sets the weekly streak and refreshes activity time
func (r *ProfileRepository) UpdateStreak(ctx context.Context, address string, streak int, lastActive time.Time) error {
	return r.update(ctx, address, map[string]interface{}{
		"weekly_streak": streak,
		"last_active":   lastActive,
		"updated_at":    lastActive,
	})
}

// IncrementTransactions bumps the trade counter atomically
func (r *ProfileRepository) IncrementTransactions(ctx context.Context, address string, delta int64) error {
	return r.update(ctx, address, map[string]interface{}{
		"total_transactions": gorm.Expr("total_transactions + ?", delta),
	})
}

// IncrementAchievements bumps the unlocked achievement counter atomically
func (r *ProfileRepository) IncrementAchievements(ctx context.Context, address string, delta int) error {
	return r.update(ctx, address, map[string]interface{}{
		"achievements": gorm.Expr("achievements + ?", delta),
	})
}

// UpdateLastProcessedBlock only moves the scan cursor forward
func (r *ProfileRepository) UpdateLastProcessedBlock(ctx context.Context, address string, block uint64) error {
	return GetDB(ctx, r.db).WithContext(ctx).Model(&models.UserProfile{}).
		Where("address = ? AND last_processed_block < ?", address, block).
		Update("last_processed_block", block).Error
}

// UpdateRanks mirrors leaderboard ranks onto profiles
func (r *ProfileRepository) UpdateRanks(ctx context.Context, ranks map[string]int) error {
	db := GetDB(ctx, r.db).WithContext(ctx)
	for address, rank := range ranks {
		if err := db.Model(&models.UserProfile{}).
			Where("address = ?", address).
			Update("current_rank", rank).Error; err != nil {
			return err
		}
	}
	return nil
}

// List returns a page of profiles ordered by points
func (r *ProfileRepository) List(ctx context.Context, limit, offset int) ([]*entities.UserProfile, int64, error) {
	var ms []models.UserProfile
	var total int64

	db := GetDB(ctx, r.db).WithContext(ctx).Model(&models.UserProfile{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("total_points DESC, address ASC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	profiles := make([]*entities.UserProfile, len(ms))
	for i := range ms {
		profiles[i] = r.toEntity(&ms[i])
	}
	return profiles, total, nil
}

// ListAll returns every profile
func (r *ProfileRepository) ListAll(ctx context.Context) ([]*entities.UserProfile, error) {
	var ms []models.UserProfile
	if err := GetDB(ctx, r.db).WithContext(ctx).Order("address ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	profiles := make([]*entities.UserProfile, len(ms))
	for i := range ms {
		profiles[i] = r.toEntity(&ms[i])
	}
	return profiles, nil
}

// Count returns the number of profiles
func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.UserProfile{}).Count(&count).Error
	return count, err
}

// SumPoints returns the sum of total points over all profiles
func (r *ProfileRepository) SumPoints(ctx context.Context) (int64, error) {
	var sum int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.UserProfile{}).
		Select("COALESCE(SUM(total_points), 0)").Scan(&sum).Error
	return sum, err
}

func (r *ProfileRepository) update(ctx context.Context, address string, updates map[string]interface{}) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.UserProfile{}).
		Where("address = ?", address).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) toEntity(m *models.UserProfile) *entities.UserProfile {
	return &entities.UserProfile{
		Address:            m.Address,
		Fid:                null.Int64FromPtr(m.Fid),
		Username:           null.StringFromPtr(m.Username),
		DisplayName:        null.StringFromPtr(m.DisplayName),
		Avatar:             null.StringFromPtr(m.Avatar),
		Tier:               entities.Tier(m.Tier),
		TotalPoints:        m.TotalPoints,
		CurrentRank:        m.CurrentRank,
		TotalTransactions:  m.TotalTransactions,
		PtradoorBalance:    m.PtradoorBalance,
		PtradoorEarned:     m.PtradoorEarned,
		WeeklyStreak:       m.WeeklyStreak,
		Referrals:          m.Referrals,
		Achievements:       m.Achievements,
		HasMinted:          m.HasMinted,
		Initial:            m.Initial,
		LastProcessedBlock: m.LastProcessedBlock,
		JoinDate:           m.JoinDate,
		LastActive:         m.LastActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func (r *ProfileRepository) toModel(p *entities.UserProfile) *models.UserProfile {
	return &models.UserProfile{
		Address:            p.Address,
		Fid:                p.Fid.Ptr(),
		Username:           p.Username.Ptr(),
		DisplayName:        p.DisplayName.Ptr(),
		Avatar:             p.Avatar.Ptr(),
		Tier:               string(p.Tier),
		TotalPoints:        p.TotalPoints,
		CurrentRank:        p.CurrentRank,
		TotalTransactions:  p.TotalTransactions,
		PtradoorBalance:    p.PtradoorBalance,
		PtradoorEarned:     p.PtradoorEarned,
		WeeklyStreak:       p.WeeklyStreak,
		Referrals:          p.Referrals,
		Achievements:       p.Achievements,
		HasMinted:          p.HasMinted,
		Initial:            p.Initial,
		LastProcessedBlock: p.LastProcessedBlock,
		JoinDate:           p.JoinDate,
		LastActive:         p.LastActive,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
