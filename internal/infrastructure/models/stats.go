package models

import "time"

type PlatformStats struct {
	ID                string  `gorm:"type:varchar(32);primaryKey"`
	TotalUsers        int64   `gorm:"not null;default:0"`
	TotalTransactions int64   `gorm:"not null;default:0"`
	TotalPoints       int64   `gorm:"not null;default:0"`
	TotalSupply       float64 `gorm:"not null;default:0"`
	CirculatingSupply float64 `gorm:"not null;default:0"`
	LastUpdated       time.Time
}

func (PlatformStats) TableName() string {
	return "platform_stats"
}
