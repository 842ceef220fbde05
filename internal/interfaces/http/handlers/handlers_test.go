package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"ptradoor.backend/internal/config"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/internal/infrastructure/models"
	"ptradoor.backend/internal/infrastructure/repositories"
	"ptradoor.backend/internal/usecases"
	"ptradoor.backend/pkg/cache"
)

const (
	addrAlice = "0x00000000000000000000000000000000000a11ce"
	addrBob   = "0x0000000000000000000000000000000000000b0b"
)

type noHistory struct{}

func (noHistory) GetTransactions(context.Context, string) ([]entities.ChainTransaction, error) {
	return nil, nil
}

type handlerEnv struct {
	router *gin.Engine

	profiles     *usecases.ProfileUsecase
	trading      *usecases.TradingUsecase
	stats        *usecases.StatsUsecase
	leaderboard  *usecases.LeaderboardUsecase
	achievements *usecases.AchievementUsecase
	milestones   *usecases.MilestoneUsecase
	subs         *usecases.SubscriptionUsecase
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	profileRepo := repositories.NewProfileRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	uow := repositories.NewUnitOfWork(db)
	readCache := cache.New(time.Minute, nil)

	calc := usecases.NewPointCalculator(config.PointsConfig{
		TxWeight: 0.5, GasWeight: 10000, EthWeight: 100, InitialCap: 5000,
		BaseWeight: 5, Multiplier: 3, MaxPerTrade: 1000,
		StreakBonus: 100, StreakInterval: 7, StreakWindow: 7 * 24 * time.Hour,
	})

	env := &handlerEnv{}
	env.stats = usecases.NewStatsUsecase(repositories.NewStatsRepository(db), profileRepo, txRepo, uow,
		config.StatsConfig{TotalSupply: 1_000_000}, readCache, nil)
	env.leaderboard = usecases.NewLeaderboardUsecase(repositories.NewLeaderboardRepository(db), profileRepo, uow, nil, readCache, nil)
	env.profiles = usecases.NewProfileUsecase(profileRepo, txRepo, uow, noHistory{}, calc, env.stats, env.leaderboard, readCache, nil)
	env.achievements = usecases.NewAchievementUsecase(repositories.NewAchievementRepository(db), profileRepo, txRepo, uow, env.profiles)
	env.trading = usecases.NewTradingUsecase(profileRepo, txRepo, uow, env.profiles, env.achievements, calc)
	env.milestones = usecases.NewMilestoneUsecase(repositories.NewMilestoneRepository(db), env.stats)
	env.subs = usecases.NewSubscriptionUsecase(nil, env.profiles, env.leaderboard, env.stats)

	ctx := context.Background()
	require.NoError(t, env.achievements.SeedDefaults(ctx))
	require.NoError(t, env.milestones.SeedDefaults(ctx))

	profileHandler := NewProfileHandler(env.profiles, env.trading, env.achievements)
	tradeHandler := NewTradeHandler(env.trading)
	leaderboardHandler := NewLeaderboardHandler(env.leaderboard)
	catalogHandler := NewCatalogHandler(env.stats, env.achievements, env.milestones)
	adminHandler := NewAdminHandler(env.profiles, env.trading, env.stats, env.leaderboard, env.milestones)
	streamHandler := NewStreamHandler(env.subs)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/profiles/:address", profileHandler.GetProfile)
	v1.PUT("/profiles/:address", profileHandler.UpsertProfile)
	v1.GET("/profiles/:address/tier", profileHandler.GetTierProgress)
	v1.GET("/profiles/:address/transactions", profileHandler.GetTransactions)
	v1.GET("/profiles/:address/achievements", profileHandler.GetAchievements)
	v1.POST("/profiles/:address/achievements/check", profileHandler.CheckAchievements)
	v1.POST("/trades", tradeHandler.ExecuteTrade)
	v1.GET("/leaderboard", leaderboardHandler.GetTop)
	v1.GET("/leaderboard/:address", leaderboardHandler.GetEntry)
	v1.GET("/stats", catalogHandler.GetStats)
	v1.GET("/achievements", catalogHandler.ListAchievements)
	v1.GET("/milestones", catalogHandler.ListMilestones)
	v1.GET("/ws", streamHandler.Stream)

	admin := v1.Group("/admin")
	admin.GET("/profiles", adminHandler.ListProfiles)
	admin.PUT("/profiles/:address", adminHandler.UpdateProfile)
	admin.POST("/points", adminHandler.UpdatePoints)
	admin.POST("/transactions", adminHandler.AddTransaction)
	admin.PUT("/stats", adminHandler.UpdateStats)
	admin.POST("/stats/recalculate", adminHandler.RecalculateStats)
	admin.POST("/leaderboard/recalculate", adminHandler.RecalculateRankings)
	admin.POST("/leaderboard/sync", adminHandler.SyncLeaderboard)
	admin.GET("/leaderboard/diagnose", adminHandler.DiagnoseLeaderboard)
	admin.POST("/milestones/recompute", adminHandler.RecomputeMilestones)

	env.router = r
	return env
}

func (e *handlerEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *handlerEnv) onboard(t *testing.T, address string) {
	t.Helper()
	rec := e.do(t, http.MethodPut, "/api/v1/profiles/"+address, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
