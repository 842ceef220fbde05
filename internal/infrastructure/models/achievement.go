package models

import "time"

type Achievement struct {
	ID              string  `gorm:"type:varchar(64);primaryKey"`
	Name            string  `gorm:"type:varchar(100);not null"`
	Description     string  `gorm:"type:text"`
	Rarity          string  `gorm:"type:varchar(20);not null"`
	RequirementType string  `gorm:"type:varchar(32);not null"`
	Threshold       float64 `gorm:"not null"`
	PointsReward    int64   `gorm:"not null;default:0"`
	IsActive        bool    `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement is keyed by (user_address, achievement_id); the key is the duplicate-award guard.
type UserAchievement struct {
	UserAddress   string `gorm:"type:varchar(42);primaryKey"`
	AchievementID string `gorm:"type:varchar(64);primaryKey"`
	PointsAwarded int64  `gorm:"not null;default:0"`
	UnlockedAt    time.Time
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
