package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RankIndex keeps leaderboard order in a sorted set.
// Scores are negated points so ZRANK orders by points descending, ties by member ascending.
type RankIndex struct {
	client *redis.Client
	key    string
}

// NewRankIndex creates an index stored under key
func NewRankIndex(c *redis.Client, key string) *RankIndex {
	return &RankIndex{client: c, key: key}
}

// Set records the points of an address in O(log N)
func (r *RankIndex) Set(ctx context.Context, address string, points int64) error {
	return r.client.ZAdd(ctx, r.key, redis.Z{Score: float64(-points), Member: address}).Err()
}

// Rank returns the 1-based dense rank of address
func (r *RankIndex) Rank(ctx context.Context, address string) (int, bool, error) {
	pos, err := r.client.ZRank(ctx, r.key, address).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int(pos) + 1, true, nil
}

// Replace atomically rebuilds the index from a full points snapshot
func (r *RankIndex) Replace(ctx context.Context, points map[string]int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(points) == 0 {
			return nil
		}
		members := make([]redis.Z, 0, len(points))
		for address, p := range points {
			members = append(members, redis.Z{Score: float64(-p), Member: address})
		}
		pipe.ZAdd(ctx, r.key, members...)
		return nil
	})
	return err
}

// Count returns the number of indexed addresses
func (r *RankIndex) Count(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, r.key).Result()
}
