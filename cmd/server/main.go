package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ptradoor.backend/internal/config"
	"ptradoor.backend/internal/infrastructure/blockchain"
	"ptradoor.backend/internal/infrastructure/datasources/postgres"
	"ptradoor.backend/internal/infrastructure/jobs"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = postgres.NewConnection
	migrateDB  = postgres.Migrate
	dialChain  = func(rpcURL string) (jobs.TransferSource, error) {
		client, err := blockchain.NewEVMClient(rpcURL)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	runServer = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	var rdb *goredis.Client
	if cfg.Redis.URL != "" {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer func() { _ = redis.Close() }()
		rdb = redis.GetClient()
		logger.Info(ctx, "Redis initialized")
	} else {
		logger.Warn(ctx, "REDIS_URL not set; live updates, rank index and idempotency keys are disabled")
	}

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)
	logger.Info(ctx, "Connected to PostgreSQL via GORM")

	if cfg.Database.AutoMigrate {
		if err := migrateDB(db); err != nil {
			return err
		}
	}

	app, err := newApplication(ctx, cfg, db, rdb)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background jobs
	if err := startScanner(runCtx, cfg, app); err != nil {
		return err
	}
	if cfg.Jobs.ReconcileEnabled {
		reconciler, err := jobs.NewReconciler(app.stats, app.leaderboard, app.milestones, jobs.ReconcilerSchedule{
			Stats:      cfg.Jobs.StatsCron,
			Ranks:      cfg.Jobs.RankCron,
			Milestones: cfg.Jobs.MilestoneCron,
		})
		if err != nil {
			return fmt.Errorf("failed to schedule reconciliation: %w", err)
		}
		reconciler.Start(runCtx)
		defer reconciler.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- runServer(srv) }()
	logger.Info(ctx, "pTradoor backend starting", zap.String("port", cfg.Server.Port))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-runCtx.Done():
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func startScanner(ctx context.Context, cfg *config.Config, app *application) error {
	if !cfg.Jobs.ScannerEnabled {
		return nil
	}
	if cfg.Blockchain.TokenAddress == "" {
		logger.Warn(ctx, "Transfer scanner enabled without PTRADOOR_TOKEN_ADDRESS; not starting it")
		return nil
	}

	source, err := dialChain(cfg.Blockchain.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to chain: %w", err)
	}
	scanner := jobs.NewTransferScanner(source, app.ingest, cfg.Blockchain.TokenAddress,
		cfg.Blockchain.StartBlock, cfg.Jobs.ScanInterval, cfg.Jobs.ScanMaxRange)
	go scanner.Start(ctx)
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
