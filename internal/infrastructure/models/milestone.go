package models

import "time"

type Milestone struct {
	ID        string `gorm:"type:varchar(64);primaryKey"`
	Name      string `gorm:"type:varchar(100);not null"`
	Type      string `gorm:"type:varchar(32);not null"`
	Target    int64  `gorm:"not null"`
	Current   int64  `gorm:"column:current_value;not null;default:0"`
	Completed bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Milestone) TableName() string {
	return "milestones"
}
