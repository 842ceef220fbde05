package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ptradoor.backend/internal/interfaces/http/response"
	"ptradoor.backend/internal/usecases"
)

// CatalogHandler serves the platform-wide reads: stats, achievement
// templates and milestones
type CatalogHandler struct {
	stats        *usecases.StatsUsecase
	achievements *usecases.AchievementUsecase
	milestones   *usecases.MilestoneUsecase
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(
	stats *usecases.StatsUsecase,
	achievements *usecases.AchievementUsecase,
	milestones *usecases.MilestoneUsecase,
) *CatalogHandler {
	return &CatalogHandler{
		stats:        stats,
		achievements: achievements,
		milestones:   milestones,
	}
}

// GetStats returns the platform stats, creating them on first read
// GET /api/v1/stats
func (h *CatalogHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// ListAchievements returns every achievement template
// GET /api/v1/achievements
func (h *CatalogHandler) ListAchievements(c *gin.Context) {
	items, err := h.achievements.ListAchievements(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

// ListMilestones returns the community milestones
// GET /api/v1/milestones
func (h *CatalogHandler) ListMilestones(c *gin.Context) {
	items, err := h.milestones.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}
