package usecases

import (
	"context"
	"math"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/domain/repositories"
	"ptradoor.backend/pkg/cache"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/metrics"
	"ptradoor.backend/pkg/utils"
)

const (
	DefaultTransactionsLimit = 20
	MaxTransactionsLimit     = 100

	defaultStreakWindow = 7 * 24 * time.Hour
)

// TradingUsecase runs a trade through points, balance, streak and achievements.
// Steps commit one by one; a failure stops forward progress without undoing
// earlier steps, and the stats rescan and rank recalculation repair the rest.
type TradingUsecase struct {
	profileRepo  repositories.ProfileRepository
	txRepo       repositories.TransactionRepository
	uow          repositories.UnitOfWork
	profiles     *ProfileUsecase
	achievements *AchievementUsecase
	calc         *PointCalculator
	clock        cache.Clock
}

// NewTradingUsecase creates a new trading usecase
func NewTradingUsecase(
	profileRepo repositories.ProfileRepository,
	txRepo repositories.TransactionRepository,
	uow repositories.UnitOfWork,
	profiles *ProfileUsecase,
	achievements *AchievementUsecase,
	calc *PointCalculator,
) *TradingUsecase {
	return &TradingUsecase{
		profileRepo:  profileRepo,
		txRepo:       txRepo,
		uow:          uow,
		profiles:     profiles,
		achievements: achievements,
		calc:         calc,
		clock:        cache.SystemClock,
	}
}

// SetClock replaces the time source
func (u *TradingUsecase) SetClock(c cache.Clock) {
	u.clock = c
}

// ExecuteTrade never returns an error; failures are reported in the result
func (u *TradingUsecase) ExecuteTrade(ctx context.Context, req entities.TradeRequest) entities.TradeResult {
	res, _ := u.Execute(ctx, req)
	return res
}

// Execute is ExecuteTrade that also returns the cause of a failed trade
func (u *TradingUsecase) Execute(ctx context.Context, req entities.TradeRequest) (res entities.TradeResult, err error) {
	res = entities.TradeResult{State: entities.TradeStateReceived, AchievementsUnlocked: []string{}}
	address := req.Address

	defer func() {
		if res.State.Committed() {
			u.profiles.inv.changed(ctx, ProfileTopic(address))
		}
		if err == nil {
			metrics.RecordTrade(string(req.Type), string(res.State))
			return
		}
		logger.Warn(ctx, "Trade failed",
			zap.String("address", address),
			zap.String("type", string(req.Type)),
			zap.String("state", string(res.State)),
			zap.Error(err),
		)
		metrics.RecordTrade(string(req.Type), string(entities.TradeStateFailed))
		res.Success = false
		res.Error = err.Error()
		res.FailedAt = res.State
		res.State = entities.TradeStateFailed
	}()

	addr, err := normalizeAddress(req.Address)
	if err != nil {
		return res, err
	}
	address = addr
	if !req.Type.Valid() {
		return res, domainerrors.Validation("unsupported trade type %q", req.Type)
	}
	if math.IsNaN(req.TokenAmount) || req.TokenAmount < 0 {
		return res, domainerrors.Validation("tokenAmount must be non-negative")
	}

	profile, err := u.profileRepo.GetByAddress(ctx, address)
	if err != nil {
		return res, err
	}

	points := u.calc.TradePoints(req.USDAmount, profile.HasMinted)
	res.PointsEarned = points
	res.State = entities.TradeStatePointsComputed

	now := u.clock.Now().UTC()
	record := &entities.Transaction{
		UserAddress: address,
		Type:        entities.TransactionType(req.Type),
		Amount:      req.TokenAmount,
		Price:       req.Price,
		USDAmount:   sanitizeAmount(req.USDAmount),
		Points:      points,
		Status:      entities.TransactionStatusCompleted,
		Hash:        null.NewString(req.TxHash, req.TxHash != ""),
		Metadata: map[string]interface{}{
			"multiplier": profile.HasMinted,
			"tier":       string(profile.Tier),
		},
		CreatedAt: now,
	}
	if err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.record(txCtx, record); err != nil {
			return err
		}
		return u.profileRepo.IncrementTransactions(txCtx, address, 1)
	}); err != nil {
		return res, err
	}
	res.State = entities.TradeStateTransactionRecorded

	if res.NewBalance, err = u.applyBalance(ctx, address, req.Type, req.TokenAmount, now); err != nil {
		return res, err
	}
	res.State = entities.TradeStateBalanceUpdated

	// stats and the leaderboard entry commit in the same transaction as the points
	updated, err := u.profiles.commitPoints(ctx, address, points)
	if err != nil {
		return res, err
	}
	metrics.RecordPoints("trade", points)
	res.State = entities.TradeStateStatsUpdated

	if err = u.profiles.settlePoints(ctx, updated); err != nil {
		return res, err
	}
	res.State = entities.TradeStateLeaderboardUpdated

	if err = u.advanceStreak(ctx, profile, now); err != nil {
		return res, err
	}

	unlocked, err := u.achievements.CheckAndAward(ctx, address)
	if err != nil {
		return res, err
	}
	res.AchievementsUnlocked = unlocked
	res.State = entities.TradeStateAchievementsChecked

	res.State = entities.TradeStateDone
	res.Success = true
	return res, nil
}

// AddTransaction appends a transaction and counts it in the platform stats
func (u *TradingUsecase) AddTransaction(ctx context.Context, tx *entities.Transaction) error {
	address, err := normalizeAddress(tx.UserAddress)
	if err != nil {
		return err
	}
	if tx.Status == "" {
		tx.Status = entities.TransactionStatusCompleted
	}
	if err := validateTransaction(tx); err != nil {
		return err
	}
	tx.UserAddress = address
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = u.clock.Now().UTC()
	}

	if err := u.uow.Do(ctx, func(txCtx context.Context) error {
		return u.record(txCtx, tx)
	}); err != nil {
		return err
	}
	u.profiles.inv.changed(ctx, ProfileTopic(address), TopicStats)
	return nil
}

// GetUserTransactions returns the newest transactions of an address
func (u *TradingUsecase) GetUserTransactions(ctx context.Context, address string, limit int) ([]*entities.Transaction, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	limit = utils.ClampLimit(limit, DefaultTransactionsLimit, MaxTransactionsLimit)

	key := transactionsCacheKey(address, limit)
	if txs, ok := cacheGet[[]*entities.Transaction](u.profiles.inv.cache, key); ok {
		return txs, nil
	}
	txs, err := u.txRepo.GetByUser(ctx, address, limit)
	if err != nil {
		logger.Error(ctx, "Failed to read transactions", zap.String("address", address), zap.Error(err))
		return nil, err
	}
	cacheSet(u.profiles.inv.cache, key, txs)
	return txs, nil
}

// record must run inside a transaction
func (u *TradingUsecase) record(txCtx context.Context, tx *entities.Transaction) error {
	if err := u.txRepo.Create(txCtx, tx); err != nil {
		return err
	}
	return u.profiles.stats.Increment(txCtx, entities.StatsDelta{Transactions: 1})
}

// applyBalance credits buys to balance and earned; sells debit the balance, floored at zero
func (u *TradingUsecase) applyBalance(ctx context.Context, address string, tradeType entities.TradeType, amount float64, now time.Time) (float64, error) {
	var balance float64
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		p, err := u.profileRepo.GetByAddress(u.uow.WithLock(txCtx), address)
		if err != nil {
			return err
		}

		balance = p.PtradoorBalance
		earned := p.PtradoorEarned
		switch tradeType {
		case entities.TradeTypeBuy:
			balance += amount
			earned += amount
		case entities.TradeTypeSell:
			balance = math.Max(0, balance-amount)
		}
		return u.profileRepo.UpdateBalance(txCtx, address, balance, earned, now)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// advanceStreak extends the streak when the previous activity is inside the
// window and resets it to 1 otherwise. Every StreakInterval-th value pays a bonus.
func (u *TradingUsecase) advanceStreak(ctx context.Context, before *entities.UserProfile, now time.Time) error {
	window := u.calc.Config().StreakWindow
	if window <= 0 {
		window = defaultStreakWindow
	}

	streak := 1
	if before.WeeklyStreak > 0 && !before.LastActive.IsZero() && now.Sub(before.LastActive) <= window {
		streak = before.WeeklyStreak + 1
	}
	if err := u.profileRepo.UpdateStreak(ctx, before.Address, streak, now); err != nil {
		return err
	}

	bonus := u.calc.StreakBonus(streak)
	if bonus <= 0 {
		return nil
	}

	if err := u.AddTransaction(ctx, &entities.Transaction{
		UserAddress: before.Address,
		Type:        entities.TransactionTypeStreakBonus,
		Points:      bonus,
		Status:      entities.TransactionStatusCompleted,
		Metadata:    map[string]interface{}{"streak": streak},
		CreatedAt:   now,
	}); err != nil {
		return err
	}
	if _, err := u.profiles.UpdatePoints(ctx, before.Address, bonus); err != nil {
		return err
	}
	metrics.RecordPoints("streak_bonus", bonus)
	logger.Info(ctx, "Streak bonus awarded", zap.String("address", before.Address), zap.Int("streak", streak), zap.Int64("points", bonus))
	return nil
}

func validateTransaction(tx *entities.Transaction) error {
	if !tx.Type.Valid() {
		return domainerrors.Validation("unsupported transaction type %q", tx.Type)
	}
	if !tx.Status.Valid() {
		return domainerrors.Validation("unsupported transaction status %q", tx.Status)
	}
	for name, v := range map[string]float64{"amount": tx.Amount, "price": tx.Price, "usdAmount": tx.USDAmount} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return domainerrors.Validation("%s must be a non-negative number", name)
		}
	}
	if tx.Points < 0 {
		return domainerrors.Validation("points must be non-negative")
	}
	return nil
}

func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
