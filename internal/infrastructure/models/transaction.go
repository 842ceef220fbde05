package models

import (
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserAddress string    `gorm:"type:varchar(42);not null;index:idx_transactions_user_created,priority:1"`
	Type        string    `gorm:"type:varchar(32);not null"`
	Amount      float64   `gorm:"not null;default:0"`
	Price       float64   `gorm:"not null;default:0"`
	USDAmount   float64   `gorm:"column:usd_amount;not null;default:0"`
	Points      int64     `gorm:"not null;default:0"`
	Status      string    `gorm:"type:varchar(20);not null"`
	Hash        *string   `gorm:"type:varchar(80);uniqueIndex"`
	Metadata    string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"index:idx_transactions_user_created,priority:2"`
}

func (Transaction) TableName() string {
	return "transactions"
}
