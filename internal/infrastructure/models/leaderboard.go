package models

import "time"

type LeaderboardEntry struct {
	UserAddress  string  `gorm:"type:varchar(42);primaryKey"`
	Points       int64   `gorm:"not null;default:0;index"`
	Rank         int     `gorm:"not null;default:0"`
	Tier         string  `gorm:"type:varchar(20);not null"`
	Transactions int64   `gorm:"not null;default:0"`
	Balance      float64 `gorm:"not null;default:0"`
	LastUpdated  time.Time
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}
