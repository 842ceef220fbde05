package usecases

import (
	"math"
	"math/big"

	"ptradoor.backend/internal/config"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/pkg/utils"
)

var weiPerEth = new(big.Float).SetFloat64(1e18)

// PointCalculator computes points from on-chain history and trades. It has no side effects.
type PointCalculator struct {
	cfg config.PointsConfig
}

// NewPointCalculator creates a calculator with the given weights and caps
func NewPointCalculator(cfg config.PointsConfig) *PointCalculator {
	return &PointCalculator{cfg: cfg}
}

// Config returns the weights the calculator was built with
func (c *PointCalculator) Config() config.PointsConfig {
	return c.cfg
}

// InitialPoints computes the one-time grant. Every component is floored and
// the total is the sum of the components capped at InitialCap.
func (c *PointCalculator) InitialPoints(txCount int, totalGasCostWei, totalValueWei *big.Int) entities.PointBreakdown {
	if txCount < 0 {
		txCount = 0
	}

	b := entities.PointBreakdown{
		TransactionPoints: floorPoints(float64(txCount) * c.cfg.TxWeight),
		GasPoints:         floorPoints(weiToEth(totalGasCostWei) * c.cfg.GasWeight),
		ValuePoints:       floorPoints(weiToEth(totalValueWei) * c.cfg.EthWeight),
	}

	b.Total = b.TransactionPoints + b.GasPoints + b.ValuePoints
	if c.cfg.InitialCap >= 0 && b.Total > c.cfg.InitialCap {
		b.Total = c.cfg.InitialCap
	}
	return b
}

// TradePoints is floor(BaseWeight * sqrt(usd)), multiplied for minters,
// then clamped to [0, MaxPerTrade]. The cap applies after the multiplier.
func (c *PointCalculator) TradePoints(usdAmount float64, hasMultiplier bool) int64 {
	if math.IsNaN(usdAmount) || usdAmount < 0 {
		usdAmount = 0
	}

	points := math.Floor(c.cfg.BaseWeight * math.Sqrt(usdAmount))
	if hasMultiplier {
		points *= float64(c.cfg.Multiplier)
	}

	switch {
	case math.IsNaN(points) || points <= 0:
		return 0
	case points >= float64(c.cfg.MaxPerTrade):
		return c.cfg.MaxPerTrade
	default:
		return int64(points)
	}
}

// StreakBonus returns the bonus for reaching streak, or 0 when streak is not a bonus step
func (c *PointCalculator) StreakBonus(streak int) int64 {
	if c.cfg.StreakInterval <= 0 || streak <= 0 || streak%c.cfg.StreakInterval != 0 {
		return 0
	}
	return c.cfg.StreakBonus
}

// GrantFromHistory sums the qualifying history of address and computes the grant.
// Only successful transactions sent by the address count; gas cost is gasUsed * gasPrice.
func (c *PointCalculator) GrantFromHistory(address string, history []entities.ChainTransaction) (entities.PointBreakdown, int) {
	count := 0
	gasCost := new(big.Int)
	value := new(big.Int)

	for _, tx := range history {
		if tx.IsError || !utils.SameAddress(tx.From, address) {
			continue
		}
		count++
		if tx.GasPrice != nil {
			gasCost.Add(gasCost, new(big.Int).Mul(new(big.Int).SetUint64(tx.GasUsed), tx.GasPrice))
		}
		if tx.Value != nil && tx.Value.Sign() > 0 {
			value.Add(value, tx.Value)
		}
	}
	return c.InitialPoints(count, gasCost, value), count
}

func weiToEth(wei *big.Int) float64 {
	if wei == nil || wei.Sign() <= 0 {
		return 0
	}
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEth).Float64()
	return eth
}

func floorPoints(v float64) int64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(v))
}
