package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ptradoor.backend/internal/config"
	"ptradoor.backend/internal/infrastructure/blockchain"
	"ptradoor.backend/internal/infrastructure/repositories"
	"ptradoor.backend/internal/interfaces/http/handlers"
	"ptradoor.backend/internal/interfaces/http/middleware"
	"ptradoor.backend/internal/usecases"
	"ptradoor.backend/pkg/cache"
	"ptradoor.backend/pkg/jwt"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/redis"
)

// application holds the wired usecases the background jobs need and the router
type application struct {
	router *gin.Engine

	profiles     *usecases.ProfileUsecase
	trading      *usecases.TradingUsecase
	stats        *usecases.StatsUsecase
	leaderboard  *usecases.LeaderboardUsecase
	achievements *usecases.AchievementUsecase
	milestones   *usecases.MilestoneUsecase
	ingest       *usecases.TransferIngestUsecase
}

// newApplication wires repositories, usecases and handlers. rdb may be nil, in
// which case live updates, the rank index and idempotent replays are off.
func newApplication(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *goredis.Client) (*application, error) {
	// Initialize repositories
	profileRepo := repositories.NewProfileRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	leaderboardRepo := repositories.NewLeaderboardRepository(db)
	statsRepo := repositories.NewStatsRepository(db)
	achievementRepo := repositories.NewAchievementRepository(db)
	milestoneRepo := repositories.NewMilestoneRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// keep these as untyped nils without Redis; a typed nil would pass the nil checks
	var (
		notifier    usecases.ChangeNotifier
		subscriber  usecases.ChangeSubscriber
		rankIndex   usecases.RankIndex
		idempotency goredis.Cmdable
	)
	if rdb != nil {
		n := redis.NewNotifier(rdb, cfg.Redis.ChannelPrefix)
		notifier, subscriber = n, n
		rankIndex = redis.NewRankIndex(rdb, cfg.Redis.RankIndexKey)
		idempotency = rdb
	}

	readCache := cache.New(cfg.Cache.TTL, nil)
	explorer := blockchain.NewExplorerClient(cfg.Blockchain.ExplorerURL, cfg.Blockchain.ExplorerAPIKey,
		cfg.Blockchain.ExplorerRate, cfg.Blockchain.HTTPTimeout)
	oracle := blockchain.NewPriceOracle(cfg.Oracle.URL, cfg.Oracle.TokenID, cfg.Blockchain.HTTPTimeout)

	// Initialize usecases
	app := &application{}
	calc := usecases.NewPointCalculator(cfg.Points)
	app.stats = usecases.NewStatsUsecase(statsRepo, profileRepo, txRepo, uow, cfg.Stats, readCache, notifier)
	app.leaderboard = usecases.NewLeaderboardUsecase(leaderboardRepo, profileRepo, uow, rankIndex, readCache, notifier)
	app.profiles = usecases.NewProfileUsecase(profileRepo, txRepo, uow, explorer, calc, app.stats, app.leaderboard, readCache, notifier)
	app.achievements = usecases.NewAchievementUsecase(achievementRepo, profileRepo, txRepo, uow, app.profiles)
	app.trading = usecases.NewTradingUsecase(profileRepo, txRepo, uow, app.profiles, app.achievements, calc)
	app.milestones = usecases.NewMilestoneUsecase(milestoneRepo, app.stats)
	app.ingest = usecases.NewTransferIngestUsecase(profileRepo, txRepo, app.trading, oracle,
		cfg.Blockchain.PoolAddress, cfg.Blockchain.TokenDecimals)
	subscriptions := usecases.NewSubscriptionUsecase(subscriber, app.profiles, app.leaderboard, app.stats)

	if err := app.achievements.SeedDefaults(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed achievements: %w", err)
	}
	if err := app.milestones.SeedDefaults(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed milestones: %w", err)
	}
	if _, err := app.stats.EnsureStats(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize stats: %w", err)
	}
	if rankIndex != nil {
		// the index is rebuilt from the table; it may be stale after a restart
		if n, err := app.leaderboard.RecalculateRankings(ctx); err != nil {
			logger.Warn(ctx, "Initial rank recalculation failed", zap.Error(err))
		} else {
			logger.Info(ctx, "Rank index rebuilt", zap.Int("entries", n))
		}
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)

	deps := routeDeps{
		profileHandler:     handlers.NewProfileHandler(app.profiles, app.trading, app.achievements),
		tradeHandler:       handlers.NewTradeHandler(app.trading),
		leaderboardHandler: handlers.NewLeaderboardHandler(app.leaderboard),
		catalogHandler:     handlers.NewCatalogHandler(app.stats, app.achievements, app.milestones),
		adminHandler:       handlers.NewAdminHandler(app.profiles, app.trading, app.stats, app.leaderboard, app.milestones),
		streamHandler:      handlers.NewStreamHandler(subscriptions),
		adminAuth:          middleware.RequireAdmin(jwtService),
		idempotency:        middleware.IdempotencyMiddleware(idempotency, cfg.Redis.ChannelPrefix),
	}
	if cfg.Server.TradeRateLimit > 0 {
		deps.tradeLimiter = middleware.NewRateLimiter(cfg.Server.TradeRateLimit, cfg.Server.TradeRateBurst).Middleware()
	}
	app.router = newRouter(deps)
	return app, nil
}
