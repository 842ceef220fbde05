package models

import (
	"time"
)

type UserProfile struct {
	Address            string  `gorm:"type:varchar(42);primaryKey"`
	Fid                *int64  `gorm:"index"`
	Username           *string `gorm:"type:varchar(100)"`
	DisplayName        *string `gorm:"type:varchar(100)"`
	Avatar             *string `gorm:"type:text"`
	Tier               string  `gorm:"type:varchar(20);not null;default:'Bronze'"`
	TotalPoints        int64   `gorm:"not null;default:0;index"`
	CurrentRank        int     `gorm:"not null;default:0"`
	TotalTransactions  int64   `gorm:"not null;default:0"`
	PtradoorBalance    float64 `gorm:"not null;default:0"`
	PtradoorEarned     float64 `gorm:"not null;default:0"`
	WeeklyStreak       int     `gorm:"not null;default:0"`
	Referrals          int     `gorm:"not null;default:0"`
	Achievements       int     `gorm:"not null;default:0"`
	HasMinted          bool    `gorm:"not null;default:false"`
	Initial            bool    `gorm:"not null;default:false"`
	LastProcessedBlock uint64  `gorm:"not null;default:0"`
	JoinDate           time.Time
	LastActive         time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
