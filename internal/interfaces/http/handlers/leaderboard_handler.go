package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/interfaces/http/response"
	"ptradoor.backend/internal/usecases"
	"ptradoor.backend/pkg/utils"
)

// LeaderboardHandler handles public leaderboard reads
type LeaderboardHandler struct {
	leaderboard *usecases.LeaderboardUsecase
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboard *usecases.LeaderboardUsecase) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// GetTop returns the top entries ordered by points
// GET /api/v1/leaderboard?limit=
func (h *LeaderboardHandler) GetTop(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	entries, err := h.leaderboard.GetTop(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": entries})
}

// GetEntry returns one address's entry with its live rank
// GET /api/v1/leaderboard/:address
func (h *LeaderboardHandler) GetEntry(c *gin.Context) {
	address, ok := utils.NormalizeAddress(c.Param("address"))
	if !ok {
		response.Error(c, domainerrors.Validation("invalid address %q", c.Param("address")))
		return
	}

	entry, err := h.leaderboard.GetEntry(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, entry)
}
