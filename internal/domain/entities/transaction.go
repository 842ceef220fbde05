package entities

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// TransactionType represents the kind of points-bearing event
type TransactionType string

const (
	TransactionTypeBuy               TransactionType = "buy"
	TransactionTypeSell              TransactionType = "sell"
	TransactionTypeBase              TransactionType = "base_transaction"
	TransactionTypeStreakBonus       TransactionType = "streak_bonus"
	TransactionTypeInitialGrant      TransactionType = "initial_grant"
	TransactionTypeAchievementReward TransactionType = "achievement_reward"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeBase,
		TransactionTypeStreakBonus, TransactionTypeInitialGrant, TransactionTypeAchievementReward:
		return true
	}
	return false
}

// TransactionStatus represents transaction status
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusPending, TransactionStatusFailed:
		return true
	}
	return false
}

// Transaction is an append-only record of a trade or bonus event
type Transaction struct {
	ID          uuid.UUID              `json:"id"`
	UserAddress string                 `json:"userAddress"`
	Type        TransactionType        `json:"type"`
	Amount      float64                `json:"amount"`
	Price       float64                `json:"price"`
	USDAmount   float64                `json:"usdAmount"`
	Points      int64                  `json:"points"`
	Status      TransactionStatus      `json:"status"`
	Hash        null.String            `json:"hash"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// ChainTransaction is a historical on-chain transaction returned by the activity lookup
type ChainTransaction struct {
	Hash        string   `json:"hash"`
	BlockNumber uint64   `json:"blockNumber"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *big.Int `json:"value"`
	Gas         uint64   `json:"gas"`
	GasUsed     uint64   `json:"gasUsed"`
	GasPrice    *big.Int `json:"gasPrice"`
	IsError     bool     `json:"isError"`
}

// TokenTransfer is an ERC-20 Transfer log observed on-chain
type TokenTransfer struct {
	TxHash      string   `json:"txHash"`
	BlockNumber uint64   `json:"blockNumber"`
	LogIndex    uint     `json:"logIndex"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *big.Int `json:"value"`
}

// PointBreakdown is the result of the one-time initial grant calculation
type PointBreakdown struct {
	TransactionPoints int64 `json:"transactionPoints"`
	GasPoints         int64 `json:"gasPoints"`
	ValuePoints       int64 `json:"valuePoints"`
	Total             int64 `json:"total"`
}
