package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ptradoor.backend/internal/domain/entities"
)

func TestTradeHandler_ExecuteTrade(t *testing.T) {
	env := newHandlerEnv(t)
	env.onboard(t, addrAlice)

	rec := env.do(t, http.MethodPost, "/api/v1/trades", map[string]interface{}{
		"address":     addrAlice,
		"type":        "buy",
		"usdAmount":   100,
		"tokenAmount": 50,
		"price":       2,
		"txHash":      "0xbeef",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[entities.TradeResult](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, int64(50), res.PointsEarned)
	assert.Equal(t, 50.0, res.NewBalance)
	assert.Equal(t, entities.TradeStateDone, res.State)
	assert.Contains(t, res.AchievementsUnlocked, "first_trade")

	// the same hash is not credited twice
	rec = env.do(t, http.MethodPost, "/api/v1/trades", map[string]interface{}{
		"address": addrAlice, "type": "buy", "usdAmount": 100, "tokenAmount": 50, "txHash": "0xbeef",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	dup := decode[entities.TradeResult](t, rec)
	assert.False(t, dup.Success)
	assert.Equal(t, entities.TradeStateFailed, dup.State)
	assert.NotEmpty(t, dup.Error)
}

func TestTradeHandler_Failures(t *testing.T) {
	env := newHandlerEnv(t)

	cases := []struct {
		name string
		body interface{}
		want int
	}{
		{"malformed body", "{", http.StatusBadRequest},
		{"missing type", map[string]interface{}{"address": addrBob}, http.StatusBadRequest},
		{"unknown profile", map[string]interface{}{"address": addrBob, "type": "buy", "usdAmount": 10}, http.StatusNotFound},
		{"unsupported type", map[string]interface{}{"address": addrBob, "type": "swap", "usdAmount": 10}, http.StatusUnprocessableEntity},
		{"bad address", map[string]interface{}{"address": "0x12", "type": "buy"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/trades", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}
