package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/interfaces/http/middleware"
	"ptradoor.backend/internal/interfaces/http/response"
	"ptradoor.backend/internal/usecases"
	"ptradoor.backend/pkg/logger"
)

// AdminHandler handles the operator endpoints
type AdminHandler struct {
	profiles    *usecases.ProfileUsecase
	trading     *usecases.TradingUsecase
	stats       *usecases.StatsUsecase
	leaderboard *usecases.LeaderboardUsecase
	milestones  *usecases.MilestoneUsecase
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	profiles *usecases.ProfileUsecase,
	trading *usecases.TradingUsecase,
	stats *usecases.StatsUsecase,
	leaderboard *usecases.LeaderboardUsecase,
	milestones *usecases.MilestoneUsecase,
) *AdminHandler {
	return &AdminHandler{
		profiles:    profiles,
		trading:     trading,
		stats:       stats,
		leaderboard: leaderboard,
		milestones:  milestones,
	}
}

// ListProfiles lists profiles by points
// GET /api/v1/admin/profiles?page=&limit=
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	profiles, meta, err := h.profiles.ListProfiles(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, profiles, meta)
}

// UpdatePoints applies a signed points delta to a profile
// POST /api/v1/admin/points
func (h *AdminHandler) UpdatePoints(c *gin.Context) {
	var input entities.UpdatePointsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	h.audit(c, "update_points", zap.String("address", input.Address), zap.Int64("delta", input.Delta))
	profile, err := h.profiles.UpdatePoints(c.Request.Context(), input.Address, input.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// UpdateProfile sets the operator-owned profile fields (hasMinted, referrals)
// PUT /api/v1/admin/profiles/:address
func (h *AdminHandler) UpdateProfile(c *gin.Context) {
	var update entities.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	h.audit(c, "update_profile", zap.String("address", c.Param("address")))
	profile, err := h.profiles.UpsertProfile(c.Request.Context(), c.Param("address"), &update, entities.Identity{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// AddTransaction appends a transaction record
// POST /api/v1/admin/transactions
func (h *AdminHandler) AddTransaction(c *gin.Context) {
	var tx entities.Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	h.audit(c, "add_transaction", zap.String("address", tx.UserAddress), zap.String("type", string(tx.Type)))
	if err := h.trading.AddTransaction(c.Request.Context(), &tx); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, tx)
}

// UpdateStats overwrites the given stats fields
// PUT /api/v1/admin/stats
func (h *AdminHandler) UpdateStats(c *gin.Context) {
	var input entities.StatsUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	h.audit(c, "update_stats")
	stats, err := h.stats.UpdateStats(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// RecalculateStats rebuilds the counters from profiles and transactions
// POST /api/v1/admin/stats/recalculate
func (h *AdminHandler) RecalculateStats(c *gin.Context) {
	h.audit(c, "recalculate_stats")
	stats, err := h.stats.RecalculateStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// RecalculateRankings reassigns every rank
// POST /api/v1/admin/leaderboard/recalculate
func (h *AdminHandler) RecalculateRankings(c *gin.Context) {
	h.audit(c, "recalculate_rankings")
	ranked, err := h.leaderboard.RecalculateRankings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ranked": ranked})
}

// SyncLeaderboard creates missing entries and repairs drifted ones
// POST /api/v1/admin/leaderboard/sync
func (h *AdminHandler) SyncLeaderboard(c *gin.Context) {
	h.audit(c, "sync_leaderboard")
	result, err := h.leaderboard.SyncAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// DiagnoseLeaderboard compares entries against profiles without writing
// GET /api/v1/admin/leaderboard/diagnose
func (h *AdminHandler) DiagnoseLeaderboard(c *gin.Context) {
	diagnosis, err := h.leaderboard.Diagnose(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, diagnosis)
}

// RecomputeMilestones refreshes milestone progress from the stats
// POST /api/v1/admin/milestones/recompute
func (h *AdminHandler) RecomputeMilestones(c *gin.Context) {
	h.audit(c, "recompute_milestones")
	items, err := h.milestones.Recompute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

func (h *AdminHandler) audit(c *gin.Context, action string, fields ...zap.Field) {
	subject, _ := middleware.GetSubject(c)
	fields = append(fields, zap.String("action", action), zap.String("subject", subject))
	logger.Info(c.Request.Context(), "Admin action", fields...)
}
