package main

import (
	"github.com/gin-gonic/gin"
	"ptradoor.backend/internal/interfaces/http/handlers"
	"ptradoor.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	profileHandler     *handlers.ProfileHandler
	tradeHandler       *handlers.TradeHandler
	leaderboardHandler *handlers.LeaderboardHandler
	catalogHandler     *handlers.CatalogHandler
	adminHandler       *handlers.AdminHandler
	streamHandler      *handlers.StreamHandler
	adminAuth          gin.HandlerFunc
	// optional
	tradeLimiter gin.HandlerFunc
	idempotency  gin.HandlerFunc
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, d)
	return r
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Profile routes (public)
		profiles := v1.Group("/profiles/:address")
		{
			profiles.GET("", d.profileHandler.GetProfile)
			profiles.PUT("", d.profileHandler.UpsertProfile)
			profiles.GET("/tier", d.profileHandler.GetTierProgress)
			profiles.GET("/transactions", d.profileHandler.GetTransactions)
			profiles.GET("/achievements", d.profileHandler.GetAchievements)
			profiles.POST("/achievements/check", d.profileHandler.CheckAchievements)
		}

		// Trade route (rate limited, idempotent with Redis)
		trade := []gin.HandlerFunc{}
		if d.tradeLimiter != nil {
			trade = append(trade, d.tradeLimiter)
		}
		if d.idempotency != nil {
			trade = append(trade, d.idempotency)
		}
		trade = append(trade, d.tradeHandler.ExecuteTrade)
		v1.POST("/trades", trade...)

		v1.GET("/leaderboard", d.leaderboardHandler.GetTop)
		v1.GET("/leaderboard/:address", d.leaderboardHandler.GetEntry)
		v1.GET("/stats", d.catalogHandler.GetStats)
		v1.GET("/achievements", d.catalogHandler.ListAchievements)
		v1.GET("/milestones", d.catalogHandler.ListMilestones)
		v1.GET("/ws", d.streamHandler.Stream)

		// Admin routes (protected)
		admin := v1.Group("/admin")
		admin.Use(d.adminAuth)
		{
			admin.GET("/profiles", d.adminHandler.ListProfiles)
			admin.PUT("/profiles/:address", d.adminHandler.UpdateProfile)
			admin.POST("/points", d.adminHandler.UpdatePoints)
			admin.POST("/transactions", d.adminHandler.AddTransaction)

			admin.PUT("/stats", d.adminHandler.UpdateStats)
			admin.POST("/stats/recalculate", d.adminHandler.RecalculateStats)

			admin.POST("/leaderboard/recalculate", d.adminHandler.RecalculateRankings)
			admin.POST("/leaderboard/sync", d.adminHandler.SyncLeaderboard)
			admin.GET("/leaderboard/diagnose", d.adminHandler.DiagnoseLeaderboard)

			admin.POST("/milestones/recompute", d.adminHandler.RecomputeMilestones)
		}
	}
}
