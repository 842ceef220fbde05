package usecases

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/metrics"
	"ptradoor.backend/pkg/redis"
)

// ChainActivityLookup returns a wallet's historical on-chain transactions
type ChainActivityLookup interface {
	GetTransactions(ctx context.Context, address string) ([]entities.ChainTransaction, error)
}

// PriceOracle returns the current USD price of the token
type PriceOracle interface {
	GetUSDPrice(ctx context.Context) (float64, error)
}

// ChangeNotifier announces that a topic's data changed
type ChangeNotifier interface {
	Publish(ctx context.Context, topic string) error
}

// ChangeSubscriber delivers change announcements for a topic
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan redis.Change, error)
}

// RankIndex keeps leaderboard ranks in an order-statistics structure.
// Rank is 1-based; ties are ordered by address ascending.
type RankIndex interface {
	Set(ctx context.Context, address string, points int64) error
	Rank(ctx context.Context, address string) (int, bool, error)
	Replace(ctx context.Context, points map[string]int64) error
	Count(ctx context.Context) (int64, error)
}

// ReadCache is the read-through cache shared by the query paths
type ReadCache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Clear()
	Len() int
}

// Change topics
const (
	TopicLeaderboard = "leaderboard"
	TopicStats       = "stats"
	topicProfile     = "profile:"
)

// ProfileTopic is the change topic of one profile
func ProfileTopic(address string) string {
	return topicProfile + address
}

// Cache keys
const (
	cacheKeyStats = "stats"
)

func profileCacheKey(address string) string {
	return "profile:" + address
}

func leaderboardCacheKey(limit int) string {
	return "leaderboard:top:" + strconv.Itoa(limit)
}

func transactionsCacheKey(address string, limit int) string {
	return "transactions:" + address + ":" + strconv.Itoa(limit)
}

// invalidator runs the after-commit side effects of every mutation:
// drop the whole read cache, then announce the changed topics.
type invalidator struct {
	cache    ReadCache
	notifier ChangeNotifier
}

func (i invalidator) changed(ctx context.Context, topics ...string) {
	if i.cache != nil {
		i.cache.Clear()
		metrics.SetCacheEntries(i.cache.Len())
	}
	if i.notifier == nil {
		return
	}
	for _, topic := range topics {
		if err := i.notifier.Publish(ctx, topic); err != nil {
			logger.Warn(ctx, "Failed to publish change", zap.String("topic", topic), zap.Error(err))
		}
	}
}

func cacheGet[T any](c ReadCache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.Get(key)
	typed, isT := v.(T)
	metrics.RecordCacheLookup(ok && isT)
	if !ok || !isT {
		return zero, false
	}
	return typed, true
}

func cacheSet(c ReadCache, key string, value interface{}) {
	if c != nil {
		c.Set(key, value)
		metrics.SetCacheEntries(c.Len())
	}
}
