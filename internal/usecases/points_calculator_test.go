package usecases_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/internal/usecases"
)

func TestInitialPoints_Scenario(t *testing.T) {
	calc := usecases.NewPointCalculator(testPointsConfig())

	gas := new(big.Int).Mul(big.NewInt(210000), big.NewInt(1e9))
	value := new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))
	b := calc.InitialPoints(3, gas, value)

	assert.Equal(t, int64(1), b.TransactionPoints)
	assert.Equal(t, int64(2), b.GasPoints)
	assert.Equal(t, int64(200), b.ValuePoints)
	assert.Equal(t, int64(203), b.Total)
}

func TestInitialPoints_CappedAndEmpty(t *testing.T) {
	calc := usecases.NewPointCalculator(testPointsConfig())

	huge := new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))
	b := calc.InitialPoints(10, nil, huge)
	assert.Equal(t, int64(100000), b.ValuePoints)
	assert.Equal(t, int64(5000), b.Total)

	zero := calc.InitialPoints(0, nil, nil)
	assert.Equal(t, entities.PointBreakdown{}, zero)

	negative := calc.InitialPoints(-4, big.NewInt(-1), big.NewInt(-1))
	assert.Equal(t, entities.PointBreakdown{}, negative)
}

func TestGrantFromHistory_CountsOnlySuccessfulOutgoing(t *testing.T) {
	calc := usecases.NewPointCalculator(testPointsConfig())

	failed := outgoing(addrAlice, 1e18, 21000, 1e9)
	failed.IsError = true
	incoming := outgoing(addrBob, 1e18, 21000, 1e9)
	incoming.To = addrAlice

	upper := outgoing("0x00000000000000000000000000000000000A11CE", 1e18, 21000, 1e9)
	history := []entities.ChainTransaction{
		outgoing(addrAlice, 1e18, 105000, 1e9),
		upper,
		failed,
		incoming,
	}

	b, count := calc.GrantFromHistory(addrAlice, history)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(1), b.TransactionPoints)
	// (105000 + 21000) * 1 gwei = 0.000126 ETH
	assert.Equal(t, int64(1), b.GasPoints)
	assert.Equal(t, int64(200), b.ValuePoints)
	assert.Equal(t, int64(202), b.Total)
}

func TestTradePoints(t *testing.T) {
	calc := usecases.NewPointCalculator(testPointsConfig())

	cases := []struct {
		name string
		usd  float64
		mult bool
		want int64
	}{
		{"hundred dollars", 100, false, 50},
		{"hundred dollars minted", 100, true, 150},
		{"zero", 0, false, 0},
		{"negative", -50, true, 0},
		{"nan", math.NaN(), false, 0},
		{"fractional floor", 2, false, 7},
		{"cap applies after multiplier", 10000, true, 1000},
		{"uncapped large", 10000, false, 500},
		{"cap", 1e9, false, 1000},
		{"infinite", math.Inf(1), false, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, calc.TradePoints(tc.usd, tc.mult))
		})
	}
}

func TestTradePoints_MultiplierAndMonotonicity(t *testing.T) {
	calc := usecases.NewPointCalculator(testPointsConfig())
	capPoints := testPointsConfig().MaxPerTrade

	var prev int64
	for usd := 0.0; usd <= 50000; usd += 37.5 {
		plain := calc.TradePoints(usd, false)
		boosted := calc.TradePoints(usd, true)

		assert.LessOrEqual(t, plain, boosted)
		assert.LessOrEqual(t, boosted, capPoints)
		if 3*plain < capPoints {
			assert.Equal(t, 3*plain, boosted, "usd=%v", usd)
		}
		assert.GreaterOrEqual(t, plain, prev, "usd=%v", usd)
		prev = plain
	}
	assert.Equal(t, capPoints, prev)
}

func TestStreakBonus(t *testing.T) {
	calc := usecases.NewPointCalculator(testPointsConfig())
	assert.Equal(t, int64(0), calc.StreakBonus(0))
	assert.Equal(t, int64(0), calc.StreakBonus(6))
	assert.Equal(t, int64(100), calc.StreakBonus(7))
	assert.Equal(t, int64(0), calc.StreakBonus(8))
	assert.Equal(t, int64(100), calc.StreakBonus(14))
}
