package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Blockchain BlockchainConfig
	Oracle     OracleConfig
	Points     PointsConfig
	Stats      StatsConfig
	Cache      CacheConfig
	Jobs       JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
	// TradeRateLimit is requests per second per client on POST /trades; 0 disables it
	TradeRateLimit float64
	TradeRateBurst int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// AutoMigrate creates or updates the tables on startup
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration. An empty URL runs without Redis.
type RedisConfig struct {
	URL           string
	Password      string
	ChannelPrefix string
	RankIndexKey  string
}

// JWTConfig holds admin token configuration
type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// BlockchainConfig holds chain access settings
type BlockchainConfig struct {
	RPCURL         string
	TokenAddress   string
	PoolAddress    string
	TokenDecimals  int
	StartBlock     uint64
	ExplorerURL    string
	ExplorerAPIKey string
	ExplorerRate   float64
	HTTPTimeout    time.Duration
}

// OracleConfig holds price oracle settings
type OracleConfig struct {
	URL     string
	TokenID string
}

// PointsConfig holds every weight and cap of the points model
type PointsConfig struct {
	TxWeight       float64
	GasWeight      float64
	EthWeight      float64
	InitialCap     int64
	BaseWeight     float64
	Multiplier     int64
	MaxPerTrade    int64
	StreakBonus    int64
	StreakInterval int
	StreakWindow   time.Duration
}

// StatsConfig holds the token supply figures a fresh stats document starts with
type StatsConfig struct {
	TotalSupply       float64
	CirculatingSupply float64
}

// CacheConfig holds read cache settings
type CacheConfig struct {
	TTL time.Duration
}

// JobsConfig holds background job settings
type JobsConfig struct {
	ScannerEnabled   bool
	ScanInterval     time.Duration
	ScanMaxRange     uint64
	ReconcileEnabled bool
	StatsCron        string
	RankCron         string
	MilestoneCron    string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			TradeRateLimit: getEnvAsFloat("TRADE_RATE_LIMIT", 5),
			TradeRateBurst: getEnvAsInt("TRADE_RATE_BURST", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "ptradoor"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:           os.Getenv("REDIS_URL"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "ptradoor:"),
			RankIndexKey:  getEnv("REDIS_RANK_INDEX_KEY", "ptradoor:leaderboard:rank"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-this-in-production"),
			Issuer: getEnv("JWT_ISSUER", "ptradoor"),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Blockchain: BlockchainConfig{
			RPCURL:         getEnv("BASE_RPC_URL", "https://mainnet.base.org"),
			TokenAddress:   strings.ToLower(getEnv("PTRADOOR_TOKEN_ADDRESS", "")),
			PoolAddress:    strings.ToLower(getEnv("PTRADOOR_POOL_ADDRESS", "")),
			TokenDecimals:  getEnvAsInt("PTRADOOR_TOKEN_DECIMALS", 18),
			StartBlock:     uint64(getEnvAsInt("SCAN_START_BLOCK", 0)),
			ExplorerURL:    getEnv("EXPLORER_API_URL", "https://api.basescan.org/api"),
			ExplorerAPIKey: getEnv("EXPLORER_API_KEY", ""),
			ExplorerRate:   getEnvAsFloat("EXPLORER_RATE_LIMIT", 5),
			HTTPTimeout:    getEnvAsDuration("CHAIN_HTTP_TIMEOUT", 10*time.Second),
		},
		Oracle: OracleConfig{
			URL:     getEnv("PRICE_ORACLE_URL", "https://api.coingecko.com/api/v3"),
			TokenID: getEnv("PRICE_ORACLE_TOKEN_ID", "ptradoor"),
		},
		Points: PointsConfig{
			TxWeight:       getEnvAsFloat("POINTS_TX_WEIGHT", 0.5),
			GasWeight:      getEnvAsFloat("POINTS_GAS_WEIGHT", 10000),
			EthWeight:      getEnvAsFloat("POINTS_ETH_WEIGHT", 100),
			InitialCap:     int64(getEnvAsInt("POINTS_INITIAL_CAP", 5000)),
			BaseWeight:     getEnvAsFloat("POINTS_BASE_WEIGHT", 5),
			Multiplier:     int64(getEnvAsInt("POINTS_MULTIPLIER", 3)),
			MaxPerTrade:    int64(getEnvAsInt("POINTS_MAX_PER_TRADE", 1000)),
			StreakBonus:    int64(getEnvAsInt("POINTS_STREAK_BONUS", 100)),
			StreakInterval: getEnvAsInt("POINTS_STREAK_INTERVAL", 7),
			StreakWindow:   getEnvAsDuration("POINTS_STREAK_WINDOW", 7*24*time.Hour),
		},
		Stats: StatsConfig{
			TotalSupply:       getEnvAsFloat("STATS_TOTAL_SUPPLY", 1_000_000_000),
			CirculatingSupply: getEnvAsFloat("STATS_CIRCULATING_SUPPLY", 0),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 6*time.Hour),
		},
		Jobs: JobsConfig{
			ScannerEnabled:   getEnvAsBool("JOB_SCANNER_ENABLED", false),
			ScanInterval:     getEnvAsDuration("JOB_SCAN_INTERVAL", 30*time.Second),
			ScanMaxRange:     uint64(getEnvAsInt("JOB_SCAN_MAX_RANGE", 2000)),
			ReconcileEnabled: getEnvAsBool("JOB_RECONCILE_ENABLED", true),
			StatsCron:        getEnv("JOB_STATS_CRON", "@every 1h"),
			RankCron:         getEnv("JOB_RANK_CRON", "@every 10m"),
			MilestoneCron:    getEnv("JOB_MILESTONE_CRON", "@every 15m"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
