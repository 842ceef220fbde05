package usecases_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"ptradoor.backend/internal/domain/entities"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	m.Called(ctx)
	return ctx
}

// Mock StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Get(ctx context.Context, id string) (*entities.PlatformStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlatformStats), args.Error(1)
}

func (m *MockStatsRepository) CreateIfAbsent(ctx context.Context, stats *entities.PlatformStats) (bool, error) {
	args := m.Called(ctx, stats)
	return args.Bool(0), args.Error(1)
}

func (m *MockStatsRepository) Save(ctx context.Context, stats *entities.PlatformStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) Increment(ctx context.Context, id string, delta entities.StatsDelta) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

// Mock TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, address string, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Mock RankIndex
type MockRankIndex struct {
	mock.Mock
}

func (m *MockRankIndex) Set(ctx context.Context, address string, points int64) error {
	args := m.Called(ctx, address, points)
	return args.Error(0)
}

func (m *MockRankIndex) Rank(ctx context.Context, address string) (int, bool, error) {
	args := m.Called(ctx, address)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockRankIndex) Replace(ctx context.Context, points map[string]int64) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}

func (m *MockRankIndex) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
