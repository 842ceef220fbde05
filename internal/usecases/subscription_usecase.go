package usecases

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/pkg/cache"
	"ptradoor.backend/pkg/logger"
)

// Snapshot is the current state of a topic, sent on subscribe and after each change
type Snapshot struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
	At    time.Time   `json:"at"`
}

// SubscriptionUsecase turns change notifications into fresh read snapshots
type SubscriptionUsecase struct {
	subscriber  ChangeSubscriber
	profiles    *ProfileUsecase
	leaderboard *LeaderboardUsecase
	stats       *StatsUsecase
	clock       cache.Clock
}

// NewSubscriptionUsecase creates a new subscription usecase. Without a
// subscriber only the initial snapshot is delivered.
func NewSubscriptionUsecase(
	subscriber ChangeSubscriber,
	profiles *ProfileUsecase,
	leaderboard *LeaderboardUsecase,
	stats *StatsUsecase,
) *SubscriptionUsecase {
	return &SubscriptionUsecase{
		subscriber:  subscriber,
		profiles:    profiles,
		leaderboard: leaderboard,
		stats:       stats,
		clock:       cache.SystemClock,
	}
}

// Watch streams snapshots of topic until ctx is done. The first snapshot is
// the current state; the channel is closed when the stream ends.
func (u *SubscriptionUsecase) Watch(ctx context.Context, topic string, limit int) (<-chan Snapshot, error) {
	topic, fetch, err := u.resolve(topic, limit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	// subscribe before the first read so a change in between is not lost
	var changes <-chan struct{}
	if u.subscriber != nil {
		raw, err := u.subscriber.Subscribe(ctx, topic)
		if err != nil {
			cancel()
			logger.Error(ctx, "Failed to subscribe", zap.String("topic", topic), zap.Error(err))
			return nil, domainerrors.Upstream("change notifications", err)
		}
		ch := make(chan struct{})
		go func() {
			defer close(ch)
			for range raw {
				select {
				case ch <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}()
		changes = ch
	}

	initial, err := fetch(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Snapshot, 1)
	out <- Snapshot{Topic: topic, Data: initial, At: u.clock.Now().UTC()}
	if changes == nil {
		close(out)
		cancel()
		return out, nil
	}

	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				data, err := fetch(ctx)
				if err != nil {
					logger.Warn(ctx, "Snapshot read failed", zap.String("topic", topic), zap.Error(err))
					continue
				}
				select {
				case out <- Snapshot{Topic: topic, Data: data, At: u.clock.Now().UTC()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

type snapshotFunc func(ctx context.Context) (interface{}, error)

func (u *SubscriptionUsecase) resolve(topic string, limit int) (string, snapshotFunc, error) {
	switch {
	case topic == TopicStats:
		return topic, func(ctx context.Context) (interface{}, error) {
			return u.stats.GetStats(ctx)
		}, nil
	case topic == TopicLeaderboard:
		return topic, func(ctx context.Context) (interface{}, error) {
			return u.leaderboard.GetTop(ctx, limit)
		}, nil
	case strings.HasPrefix(topic, topicProfile):
		address, err := normalizeAddress(strings.TrimPrefix(topic, topicProfile))
		if err != nil {
			return "", nil, err
		}
		return ProfileTopic(address), func(ctx context.Context) (interface{}, error) {
			return u.profiles.GetProfile(ctx, address)
		}, nil
	default:
		return "", nil, domainerrors.Validation("unknown topic %q", topic)
	}
}
