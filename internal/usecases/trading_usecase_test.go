package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
)

func buy(address string, usd, tokens float64) entities.TradeRequest {
	return entities.TradeRequest{Address: address, Type: entities.TradeTypeBuy, USDAmount: usd, TokenAmount: tokens, Price: usd / tokens}
}

func TestTradingUsecase_ExecuteTradeScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)

	res := env.trading.ExecuteTrade(ctx, buy(addrAlice, 100, 50))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, entities.TradeStateDone, res.State)
	assert.Empty(t, res.FailedAt)
	assert.Equal(t, int64(50), res.PointsEarned)
	assert.Equal(t, 50.0, res.NewBalance)
	assert.Empty(t, res.AchievementsUnlocked)

	trades := env.transactionsOfType(t, addrAlice, entities.TransactionTypeBuy)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(50), trades[0].Points)
	assert.Equal(t, 100.0, trades[0].USDAmount)
	assert.Equal(t, false, trades[0].Metadata["multiplier"])

	p := env.mustProfile(t, addrAlice)
	assert.Equal(t, int64(50), p.TotalPoints)
	assert.Equal(t, int64(1), p.TotalTransactions)
	assert.Equal(t, 50.0, p.PtradoorBalance)
	assert.Equal(t, 50.0, p.PtradoorEarned)
	assert.Equal(t, 1, p.WeeklyStreak)

	entry := env.mustEntry(t, addrAlice)
	assert.Equal(t, int64(50), entry.Points)
	assert.Equal(t, int64(1), entry.Transactions)
	assert.Equal(t, 50.0, entry.Balance)

	stats := env.mustStats(t)
	assert.Equal(t, int64(50), stats.TotalPoints)
	assert.Equal(t, int64(2), stats.TotalTransactions)
}

// refuseRankWrites makes every stored rank update fail
func refuseRankWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:refuse_rank_writes", func(tx *gorm.DB) {
		if dest, ok := tx.Statement.Dest.(map[string]interface{}); ok {
			if _, ok := dest["current_rank"]; ok {
				tx.AddError(errors.New("rank write refused"))
			}
		}
	}))
}

func TestTradingUsecase_RankFailureStopsAfterStatsUpdated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)
	refuseRankWrites(t, env.db)

	res := env.trading.ExecuteTrade(ctx, buy(addrAlice, 100, 50))
	assert.False(t, res.Success)
	assert.Equal(t, entities.TradeStateFailed, res.State)
	assert.Equal(t, entities.TradeStateStatsUpdated, res.FailedAt)
	assert.Contains(t, res.Error, "rank write refused")

	// points, stats and the entry stay committed for the recalculation to rank
	assert.Equal(t, int64(50), env.mustProfile(t, addrAlice).TotalPoints)
	assert.Equal(t, int64(50), env.mustStats(t).TotalPoints)
	assert.Equal(t, int64(50), env.mustEntry(t, addrAlice).Points)
	assert.Equal(t, 0, env.mustProfile(t, addrAlice).WeeklyStreak)
}

func TestTradingUsecase_MintedMultiplier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)
	minted := true
	_, err := env.profiles.UpsertProfile(ctx, addrAlice, &entities.ProfileUpdate{HasMinted: &minted}, entities.Identity{})
	require.NoError(t, err)

	res := env.trading.ExecuteTrade(ctx, buy(addrAlice, 100, 50))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(150), res.PointsEarned)
	assert.Equal(t, int64(150), env.mustProfile(t, addrAlice).TotalPoints)
}

func TestTradingUsecase_FailuresAreReportedInTheResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.trading.ExecuteTrade(ctx, buy(addrBob, 100, 50))
	assert.False(t, res.Success)
	assert.Equal(t, entities.TradeStateFailed, res.State)
	assert.Equal(t, entities.TradeStateReceived, res.FailedAt)
	assert.NotEmpty(t, res.Error)
	assert.NotNil(t, res.AchievementsUnlocked)

	env.onboard(t, addrAlice)
	bad := buy(addrAlice, 100, 50)
	bad.Type = "swap"
	res = env.trading.ExecuteTrade(ctx, bad)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "swap")

	negative := buy(addrAlice, 100, 50)
	negative.TokenAmount = -1
	res = env.trading.ExecuteTrade(ctx, negative)
	assert.False(t, res.Success)

	assert.Empty(t, env.transactionsOfType(t, addrAlice, entities.TransactionTypeBuy))
	assert.Equal(t, int64(0), env.mustProfile(t, addrAlice).TotalPoints)
}

func TestTradingUsecase_SellFloorsBalanceAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)

	require.True(t, env.trading.ExecuteTrade(ctx, buy(addrAlice, 20, 10)).Success)
	res := env.trading.ExecuteTrade(ctx, entities.TradeRequest{
		Address: addrAlice, Type: entities.TradeTypeSell, USDAmount: 50, TokenAmount: 25, Price: 2,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0.0, res.NewBalance)

	p := env.mustProfile(t, addrAlice)
	assert.Equal(t, 0.0, p.PtradoorBalance)
	assert.Equal(t, 10.0, p.PtradoorEarned)
	assert.Equal(t, int64(2), p.TotalTransactions)
}

func TestTradingUsecase_DuplicateHashIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)

	req := buy(addrAlice, 100, 50)
	req.TxHash = "0xfeed"
	require.True(t, env.trading.ExecuteTrade(ctx, req).Success)

	res := env.trading.ExecuteTrade(ctx, req)
	assert.False(t, res.Success)
	assert.Equal(t, entities.TradeStateFailed, res.State)

	assert.Len(t, env.transactionsOfType(t, addrAlice, entities.TransactionTypeBuy), 1)
	p := env.mustProfile(t, addrAlice)
	assert.Equal(t, int64(50), p.TotalPoints)
	assert.Equal(t, 50.0, p.PtradoorBalance)
}

func TestTradingUsecase_StreakBonusEverySeventhDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)

	for day := 1; day <= 7; day++ {
		env.clock.Advance(24 * time.Hour)
		res := env.trading.ExecuteTrade(ctx, buy(addrAlice, 100, 1))
		require.True(t, res.Success, res.Error)
		// the bonus is credited separately from the trade's own points
		assert.Equal(t, int64(50), res.PointsEarned)
		assert.Equal(t, day, env.mustProfile(t, addrAlice).WeeklyStreak)
	}

	bonuses := env.transactionsOfType(t, addrAlice, entities.TransactionTypeStreakBonus)
	require.Len(t, bonuses, 1)
	assert.Equal(t, int64(100), bonuses[0].Points)
	assert.Equal(t, int64(7*50+100), env.mustProfile(t, addrAlice).TotalPoints)
	assert.Equal(t, int64(7*50+100), env.mustStats(t).TotalPoints)
}

func TestTradingUsecase_StreakResetsAfterAGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)

	require.True(t, env.trading.ExecuteTrade(ctx, buy(addrAlice, 10, 1)).Success)
	env.clock.Advance(24 * time.Hour)
	require.True(t, env.trading.ExecuteTrade(ctx, buy(addrAlice, 10, 1)).Success)
	assert.Equal(t, 2, env.mustProfile(t, addrAlice).WeeklyStreak)

	env.clock.Advance(8 * 24 * time.Hour)
	require.True(t, env.trading.ExecuteTrade(ctx, buy(addrAlice, 10, 1)).Success)
	assert.Equal(t, 1, env.mustProfile(t, addrAlice).WeeklyStreak)
}

func TestTradingUsecase_FirstTradeUnlocksAchievement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.achievements.SeedDefaults(ctx))
	env.onboard(t, addrAlice)

	res := env.trading.ExecuteTrade(ctx, buy(addrAlice, 100, 50))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"first_trade"}, res.AchievementsUnlocked)
	assert.Equal(t, int64(50), res.PointsEarned)

	p := env.mustProfile(t, addrAlice)
	assert.Equal(t, int64(100), p.TotalPoints)
	assert.Equal(t, 1, p.Achievements)
	assert.Equal(t, int64(100), env.mustEntry(t, addrAlice).Points)
}

func TestTradingUsecase_GetUserTransactions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)

	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Minute)
		require.True(t, env.trading.ExecuteTrade(ctx, buy(addrAlice, 10, 1)).Success)
	}

	txs, err := env.trading.GetUserTransactions(ctx, addrAlice, 0)
	require.NoError(t, err)
	require.Len(t, txs, 4)
	assert.Equal(t, entities.TransactionTypeInitialGrant, txs[3].Type)
	assert.True(t, txs[0].CreatedAt.After(txs[1].CreatedAt))

	limited, err := env.trading.GetUserTransactions(ctx, addrAlice, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := env.trading.GetUserTransactions(ctx, addrBob, 500)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTradingUsecase_AddTransactionCountsInStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)

	tx := &entities.Transaction{UserAddress: "0x00000000000000000000000000000000000A11CE", Type: entities.TransactionTypeBase, Points: 5}
	require.NoError(t, env.trading.AddTransaction(ctx, tx))
	assert.Equal(t, addrAlice, tx.UserAddress)
	assert.Equal(t, entities.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, baseTime, tx.CreatedAt)
	assert.Equal(t, int64(2), env.mustStats(t).TotalTransactions)
}

func TestTradingUsecase_AddTransactionValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)

	cases := map[string]entities.Transaction{
		"unknown type":    {Type: "gift", Points: 5},
		"unknown status":  {Type: entities.TransactionTypeBase, Status: "settled"},
		"negative amount": {Type: entities.TransactionTypeBuy, Amount: -1},
		"negative usd":    {Type: entities.TransactionTypeBuy, USDAmount: -2},
		"negative points": {Type: entities.TransactionTypeBase, Points: -10},
		"not a number":    {Type: entities.TransactionTypeSell, Price: math.NaN()},
	}
	for name, tx := range cases {
		t.Run(name, func(t *testing.T) {
			tx.UserAddress = addrAlice
			err := env.trading.AddTransaction(ctx, &tx)
			require.ErrorIs(t, err, domainerrors.ErrValidationFailed)
		})
	}

	assert.Equal(t, int64(1), env.mustStats(t).TotalTransactions)
	assert.Empty(t, env.transactionsOfType(t, addrAlice, entities.TransactionTypeBase))
}
