package usecases_test

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"ptradoor.backend/internal/config"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/internal/infrastructure/models"
	"ptradoor.backend/internal/infrastructure/repositories"
	"ptradoor.backend/internal/usecases"
	"ptradoor.backend/pkg/cache"
	"ptradoor.backend/pkg/redis"
)

const (
	addrAlice = "0x00000000000000000000000000000000000a11ce"
	addrBob   = "0x0000000000000000000000000000000000000b0b"
	addrCarol = "0x00000000000000000000000000000000000ca201"
	addrPool  = "0x00000000000000000000000000000000000000f0"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testPointsConfig() config.PointsConfig {
	return config.PointsConfig{
		TxWeight:       0.5,
		GasWeight:      10000,
		EthWeight:      100,
		InitialCap:     5000,
		BaseWeight:     5,
		Multiplier:     3,
		MaxPerTrade:    1000,
		StreakBonus:    100,
		StreakInterval: 7,
		StreakWindow:   7 * 24 * time.Hour,
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeChain struct {
	mu      sync.Mutex
	history map[string][]entities.ChainTransaction
	err     error
	calls   int
}

func (f *fakeChain) GetTransactions(_ context.Context, address string) ([]entities.ChainTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.history[address], nil
}

func (f *fakeChain) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeOracle struct {
	price float64
	err   error
	calls int
}

func (f *fakeOracle) GetUSDPrice(context.Context) (float64, error) {
	f.calls++
	return f.price, f.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *recordingNotifier) Publish(_ context.Context, topic string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
	return nil
}

func (n *recordingNotifier) Topics() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.topics...)
}

// outgoing builds a successful transaction sent by from
func outgoing(from string, valueWei int64, gasUsed uint64, gasPriceWei int64) entities.ChainTransaction {
	return entities.ChainTransaction{
		Hash:     fmt.Sprintf("0x%x", time.Now().UnixNano()),
		From:     from,
		To:       addrPool,
		Value:    big.NewInt(valueWei),
		GasUsed:  gasUsed,
		GasPrice: big.NewInt(gasPriceWei),
	}
}

type testEnv struct {
	db       *gorm.DB
	clock    *fakeClock
	cache    *cache.TTLCache
	chain    *fakeChain
	oracle   *fakeOracle
	notifier *recordingNotifier
	redis    *goredis.Client

	profileRepo     *repositories.ProfileRepository
	txRepo          *repositories.TransactionRepository
	leaderboardRepo *repositories.LeaderboardRepository
	statsRepo       *repositories.StatsRepository
	achievementRepo *repositories.AchievementRepository
	milestoneRepo   *repositories.MilestoneRepository

	calc         *usecases.PointCalculator
	stats        *usecases.StatsUsecase
	leaderboard  *usecases.LeaderboardUsecase
	profiles     *usecases.ProfileUsecase
	achievements *usecases.AchievementUsecase
	trading      *usecases.TradingUsecase
	ingest       *usecases.TransferIngestUsecase
	milestones   *usecases.MilestoneUsecase
}

type envOption func(*envOptions)

type envOptions struct {
	rankIndex bool
	pool      string
}

func withRankIndex() envOption {
	return func(o *envOptions) { o.rankIndex = true }
}

func withPool(pool string) envOption {
	return func(o *envOptions) { o.pool = pool }
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection serializes transactions the way row locks do in Postgres
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}

	env := &testEnv{
		db:       newSQLiteDB(t),
		clock:    &fakeClock{now: baseTime},
		chain:    &fakeChain{history: map[string][]entities.ChainTransaction{}},
		oracle:   &fakeOracle{price: 2},
		notifier: &recordingNotifier{},
	}
	env.cache = cache.New(time.Hour, env.clock)

	db := env.db
	env.profileRepo = repositories.NewProfileRepository(db)
	env.txRepo = repositories.NewTransactionRepository(db)
	env.leaderboardRepo = repositories.NewLeaderboardRepository(db)
	env.statsRepo = repositories.NewStatsRepository(db)
	env.achievementRepo = repositories.NewAchievementRepository(db)
	env.milestoneRepo = repositories.NewMilestoneRepository(db)
	uow := repositories.NewUnitOfWork(db)

	var rankIndex usecases.RankIndex
	if o.rankIndex {
		mr := miniredis.RunT(t)
		env.redis = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = env.redis.Close() })
		rankIndex = redis.NewRankIndex(env.redis, "test:rank")
	}

	env.calc = usecases.NewPointCalculator(testPointsConfig())
	env.stats = usecases.NewStatsUsecase(env.statsRepo, env.profileRepo, env.txRepo, uow,
		config.StatsConfig{TotalSupply: 1_000_000, CirculatingSupply: 250_000}, env.cache, env.notifier)
	env.leaderboard = usecases.NewLeaderboardUsecase(env.leaderboardRepo, env.profileRepo, uow, rankIndex, env.cache, env.notifier)
	env.profiles = usecases.NewProfileUsecase(env.profileRepo, env.txRepo, uow, env.chain, env.calc,
		env.stats, env.leaderboard, env.cache, env.notifier)
	env.achievements = usecases.NewAchievementUsecase(env.achievementRepo, env.profileRepo, env.txRepo, uow, env.profiles)
	env.trading = usecases.NewTradingUsecase(env.profileRepo, env.txRepo, uow, env.profiles, env.achievements, env.calc)
	env.ingest = usecases.NewTransferIngestUsecase(env.profileRepo, env.txRepo, env.trading, env.oracle, o.pool, 18)
	env.milestones = usecases.NewMilestoneUsecase(env.milestoneRepo, env.stats)

	env.stats.SetClock(env.clock)
	env.leaderboard.SetClock(env.clock)
	env.profiles.SetClock(env.clock)
	env.trading.SetClock(env.clock)
	return env
}

// onboard runs the first touch of address with the given on-chain history
func (e *testEnv) onboard(t *testing.T, address string, history ...entities.ChainTransaction) *entities.UserProfile {
	t.Helper()
	e.chain.mu.Lock()
	e.chain.history[address] = history
	e.chain.mu.Unlock()

	p, err := e.profiles.UpsertProfile(context.Background(), address, nil, entities.Identity{})
	require.NoError(t, err)
	require.True(t, p.Initial)
	return p
}

func (e *testEnv) mustProfile(t *testing.T, address string) *entities.UserProfile {
	t.Helper()
	p, err := e.profileRepo.GetByAddress(context.Background(), address)
	require.NoError(t, err)
	return p
}

func (e *testEnv) mustEntry(t *testing.T, address string) *entities.LeaderboardEntry {
	t.Helper()
	entry, err := e.leaderboardRepo.GetByAddress(context.Background(), address)
	require.NoError(t, err)
	return entry
}

func (e *testEnv) mustStats(t *testing.T) *entities.PlatformStats {
	t.Helper()
	s, err := e.statsRepo.Get(context.Background(), entities.GlobalStatsID)
	require.NoError(t, err)
	return s
}

func (e *testEnv) transactionsOfType(t *testing.T, address string, txType entities.TransactionType) []*entities.Transaction {
	t.Helper()
	txs, err := e.txRepo.GetByUser(context.Background(), address, 1000)
	require.NoError(t, err)
	var out []*entities.Transaction
	for _, tx := range txs {
		if tx.Type == txType {
			out = append(out, tx)
		}
	}
	return out
}
