package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/usecases"
	"ptradoor.backend/pkg/redis"
)

type fakeSubscriber struct {
	ch  chan redis.Change
	err error
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, topic string) (<-chan redis.Change, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func receive(t *testing.T, ch <-chan usecases.Snapshot) usecases.Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "stream closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
		return usecases.Snapshot{}
	}
}

func TestSubscriptionUsecase_ProfileStream(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, addrAlice)
	sub := &fakeSubscriber{ch: make(chan redis.Change, 1)}
	subs := usecases.NewSubscriptionUsecase(sub, env.profiles, env.leaderboard, env.stats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := subs.Watch(ctx, "profile:0x00000000000000000000000000000000000A11CE", 0)
	require.NoError(t, err)

	first := receive(t, stream)
	assert.Equal(t, usecases.ProfileTopic(addrAlice), first.Topic)
	assert.Equal(t, int64(0), first.Data.(*entities.UserProfile).TotalPoints)

	_, err = env.profiles.UpdatePoints(ctx, addrAlice, 25)
	require.NoError(t, err)
	sub.ch <- redis.Change{Topic: first.Topic}

	next := receive(t, stream)
	assert.Equal(t, int64(25), next.Data.(*entities.UserProfile).TotalPoints)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-stream
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriptionUsecase_LeaderboardAndStatsTopics(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, addrAlice)
	subs := usecases.NewSubscriptionUsecase(nil, env.profiles, env.leaderboard, env.stats)
	ctx := context.Background()

	board, err := subs.Watch(ctx, usecases.TopicLeaderboard, 5)
	require.NoError(t, err)
	top := receive(t, board).Data.([]*entities.LeaderboardEntry)
	require.Len(t, top, 1)
	assert.Equal(t, addrAlice, top[0].UserAddress)

	stats, err := subs.Watch(ctx, usecases.TopicStats, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), receive(t, stats).Data.(*entities.PlatformStats).TotalUsers)

	// without a subscriber the stream ends after the first snapshot
	_, ok := <-stats
	assert.False(t, ok)
}

func TestSubscriptionUsecase_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subs := usecases.NewSubscriptionUsecase(nil, env.profiles, env.leaderboard, env.stats)

	_, err := subs.Watch(ctx, "prices", 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	_, err = subs.Watch(ctx, "profile:bogus", 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	_, err = subs.Watch(ctx, usecases.ProfileTopic(addrBob), 0)
	assert.ErrorIs(t, err, domainerrors.ErrProfileNotFound)

	broken := usecases.NewSubscriptionUsecase(&fakeSubscriber{err: errors.New("redis down")}, env.profiles, env.leaderboard, env.stats)
	_, err = broken.Watch(ctx, usecases.TopicStats, 0)
	assert.ErrorIs(t, err, domainerrors.ErrUpstreamUnavailable)
}
