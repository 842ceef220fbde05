package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/interfaces/http/response"
	"ptradoor.backend/internal/usecases"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profiles     *usecases.ProfileUsecase
	trading      *usecases.TradingUsecase
	achievements *usecases.AchievementUsecase
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(
	profiles *usecases.ProfileUsecase,
	trading *usecases.TradingUsecase,
	achievements *usecases.AchievementUsecase,
) *ProfileHandler {
	return &ProfileHandler{
		profiles:     profiles,
		trading:      trading,
		achievements: achievements,
	}
}

// GetProfile returns one profile
// GET /api/v1/profiles/:address
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.GetProfile(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// UpsertProfile creates the profile on first touch, otherwise applies the update
// PUT /api/v1/profiles/:address
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	var input entities.UpsertProfileInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, domainerrors.BadRequest(err.Error()))
			return
		}
	}

	update := input.Update.Public()
	profile, err := h.profiles.UpsertProfile(c.Request.Context(), c.Param("address"), &update, input.Identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// GetTierProgress returns progress towards the next tier
// GET /api/v1/profiles/:address/tier
func (h *ProfileHandler) GetTierProgress(c *gin.Context) {
	progress, err := h.profiles.GetTierProgress(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

// GetTransactions returns the newest transactions of a profile
// GET /api/v1/profiles/:address/transactions?limit=
func (h *ProfileHandler) GetTransactions(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	txs, err := h.trading.GetUserTransactions(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": txs})
}

// GetAchievements returns the achievements a profile unlocked
// GET /api/v1/profiles/:address/achievements
func (h *ProfileHandler) GetAchievements(c *gin.Context) {
	unlocked, err := h.achievements.ListUserAchievements(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": unlocked})
}

// CheckAchievements awards every achievement the profile now satisfies
// POST /api/v1/profiles/:address/achievements/check
func (h *ProfileHandler) CheckAchievements(c *gin.Context) {
	unlocked, err := h.achievements.CheckAndAward(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unlocked": unlocked})
}

// queryInt reads an optional integer query parameter. It writes a 400 and
// returns false when the value is not a number.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, domainerrors.BadRequest(name+" must be an integer"))
		return 0, false
	}
	return v, true
}
