package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/domain/repositories"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/utils"
)

// TransferIngestUsecase turns observed token transfers into trades for known profiles
type TransferIngestUsecase struct {
	profileRepo repositories.ProfileRepository
	txRepo      repositories.TransactionRepository
	trading     *TradingUsecase
	oracle      PriceOracle
	pool        string
	unit        *big.Float
}

// NewTransferIngestUsecase creates a new ingest usecase. With an empty pool
// address every incoming transfer is a buy and every outgoing one a sell.
func NewTransferIngestUsecase(
	profileRepo repositories.ProfileRepository,
	txRepo repositories.TransactionRepository,
	trading *TradingUsecase,
	oracle PriceOracle,
	poolAddress string,
	decimals int,
) *TransferIngestUsecase {
	if decimals < 0 {
		decimals = 0
	}
	return &TransferIngestUsecase{
		profileRepo: profileRepo,
		txRepo:      txRepo,
		trading:     trading,
		oracle:      oracle,
		pool:        strings.ToLower(strings.TrimSpace(poolAddress)),
		unit:        new(big.Float).SetFloat64(math.Pow10(decimals)),
	}
}

type transferLeg struct {
	address   string
	tradeType entities.TradeType
}

// ProcessTransfer executes a trade for each side of the transfer that belongs to
// a known profile. Sides already recorded are skipped before the price lookup.
func (u *TransferIngestUsecase) ProcessTransfer(ctx context.Context, t entities.TokenTransfer) ([]entities.TradeResult, error) {
	var legs []*entities.UserProfile
	var types []entities.TradeType
	for _, leg := range u.legs(t) {
		p, err := u.profileRepo.GetByAddress(ctx, leg.address)
		if errors.Is(err, domainerrors.ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !p.Initial || t.BlockNumber < p.LastProcessedBlock {
			continue
		}
		key := transferKey(t, leg.tradeType)
		seen, err := u.txRepo.ExistsByHash(ctx, key)
		if err != nil {
			return nil, err
		}
		if seen {
			logger.Debug(ctx, "Transfer already processed", zap.String("key", key))
			continue
		}
		legs = append(legs, p)
		types = append(types, leg.tradeType)
	}
	if len(legs) == 0 {
		return nil, nil
	}

	price, err := u.oracle.GetUSDPrice(ctx)
	if err != nil {
		logger.Error(ctx, "Price oracle failed", zap.Error(err))
		return nil, domainerrors.Upstream("price oracle", err)
	}
	amount := u.tokenAmount(t.Value)

	results := make([]entities.TradeResult, 0, len(legs))
	for i, p := range legs {
		req := entities.TradeRequest{
			Address:     p.Address,
			Type:        types[i],
			USDAmount:   amount * price,
			TokenAmount: amount,
			Price:       price,
			TxHash:      transferKey(t, types[i]),
		}

		res, err := u.trading.Execute(ctx, req)
		switch {
		case errors.Is(err, domainerrors.ErrAlreadyProcessed):
			logger.Debug(ctx, "Transfer already processed", zap.String("key", req.TxHash))
		case err != nil && !res.FailedAt.Committed():
			return results, err
		default:
			results = append(results, res)
		}

		if err := u.profileRepo.UpdateLastProcessedBlock(ctx, p.Address, t.BlockNumber); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (u *TransferIngestUsecase) legs(t entities.TokenTransfer) []transferLeg {
	from := strings.ToLower(t.From)
	to := strings.ToLower(t.To)

	var legs []transferLeg
	if u.pool == "" || utils.SameAddress(from, u.pool) {
		legs = append(legs, transferLeg{address: to, tradeType: entities.TradeTypeBuy})
	}
	if u.pool == "" || utils.SameAddress(to, u.pool) {
		legs = append(legs, transferLeg{address: from, tradeType: entities.TradeTypeSell})
	}
	return legs
}

func (u *TransferIngestUsecase) tokenAmount(value *big.Int) float64 {
	if value == nil || value.Sign() <= 0 {
		return 0
	}
	amount, _ := new(big.Float).Quo(new(big.Float).SetInt(value), u.unit).Float64()
	return amount
}

// transferKey identifies one side of one log so both sides of a transfer can be recorded
func transferKey(t entities.TokenTransfer, side entities.TradeType) string {
	return fmt.Sprintf("%s:%d:%s", strings.ToLower(t.TxHash), t.LogIndex, side)
}
