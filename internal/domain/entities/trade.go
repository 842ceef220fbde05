package entities

// TradeType is the direction of a trade
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
)

// Valid reports whether the trade type is supported
func (t TradeType) Valid() bool {
	return t == TradeTypeBuy || t == TradeTypeSell
}

// TradeState is the orchestrator's progress through a single trade
type TradeState string

const (
	TradeStateReceived            TradeState = "RECEIVED"
	TradeStatePointsComputed      TradeState = "POINTS_COMPUTED"
	TradeStateTransactionRecorded TradeState = "TRANSACTION_RECORDED"
	TradeStateBalanceUpdated      TradeState = "BALANCE_UPDATED"
	TradeStateStatsUpdated        TradeState = "STATS_UPDATED"
	TradeStateLeaderboardUpdated  TradeState = "LEADERBOARD_UPDATED"
	TradeStateAchievementsChecked TradeState = "ACHIEVEMENTS_CHECKED"
	TradeStateDone                TradeState = "DONE"
	TradeStateFailed              TradeState = "FAILED"
)

// TradeRequest is the input of executeTrade
type TradeRequest struct {
	Address     string    `json:"address" binding:"required"`
	Type        TradeType `json:"type" binding:"required"`
	USDAmount   float64   `json:"usdAmount"`
	TokenAmount float64   `json:"tokenAmount"`
	Price       float64   `json:"price"`
	TxHash      string    `json:"txHash,omitempty"`
}

// TradeResult is returned to callers instead of an error
type TradeResult struct {
	Success              bool       `json:"success"`
	PointsEarned         int64      `json:"pointsEarned"`
	NewBalance           float64    `json:"newBalance"`
	AchievementsUnlocked []string   `json:"achievementsUnlocked"`
	State                TradeState `json:"state"`
	// FailedAt is the last state reached before a failure
	FailedAt TradeState `json:"failedAt,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// UpdatePointsInput is the admin request body for a manual points adjustment
type UpdatePointsInput struct {
	Address string `json:"address" binding:"required"`
	Delta   int64  `json:"delta"`
}

// Committed reports whether a trade in this state has already written to the store
func (s TradeState) Committed() bool {
	switch s {
	case TradeStateReceived, TradeStatePointsComputed, TradeStateFailed, "":
		return false
	default:
		return true
	}
}
