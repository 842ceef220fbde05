package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/interfaces/http/response"
	"ptradoor.backend/internal/usecases"
)

// TradeHandler handles trade execution
type TradeHandler struct {
	trading *usecases.TradingUsecase
}

// NewTradeHandler creates a new trade handler
func NewTradeHandler(trading *usecases.TradingUsecase) *TradeHandler {
	return &TradeHandler{trading: trading}
}

// ExecuteTrade runs a trade and returns its result. A failed trade still
// returns the result body, with the status of its cause.
// POST /api/v1/trades
func (h *TradeHandler) ExecuteTrade(c *gin.Context) {
	var req entities.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.trading.Execute(c.Request.Context(), req)
	if err != nil {
		response.Success(c, domainerrors.FromDomain(err).Status, result)
		return
	}
	response.Success(c, http.StatusOK, result)
}
