package usecases_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
)

// tokens converts whole tokens to base units at 18 decimals
func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestTransferIngest_BuyFromPool(t *testing.T) {
	env := newTestEnv(t, withPool(addrPool))
	ctx := context.Background()
	env.onboard(t, addrAlice)

	results, err := env.ingest.ProcessTransfer(ctx, entities.TokenTransfer{
		TxHash: "0xABC", BlockNumber: 100, LogIndex: 2, From: addrPool, To: addrAlice, Value: tokens(10),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success, results[0].Error)
	// 10 tokens at 2 USD: floor(5 * sqrt(20))
	assert.Equal(t, int64(22), results[0].PointsEarned)
	assert.Equal(t, 10.0, results[0].NewBalance)

	trades := env.transactionsOfType(t, addrAlice, entities.TransactionTypeBuy)
	require.Len(t, trades, 1)
	assert.Equal(t, "0xabc:2:buy", trades[0].Hash.String)
	assert.Equal(t, 20.0, trades[0].USDAmount)
	assert.Equal(t, uint64(100), env.mustProfile(t, addrAlice).LastProcessedBlock)
}

func TestTransferIngest_ReplayIsIgnored(t *testing.T) {
	env := newTestEnv(t, withPool(addrPool))
	ctx := context.Background()
	env.onboard(t, addrAlice)

	transfer := entities.TokenTransfer{TxHash: "0x01", BlockNumber: 7, From: addrPool, To: addrAlice, Value: tokens(1)}
	_, err := env.ingest.ProcessTransfer(ctx, transfer)
	require.NoError(t, err)

	require.Equal(t, 1, env.oracle.calls)

	results, err := env.ingest.ProcessTransfer(ctx, transfer)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 1, env.oracle.calls, "a recorded transfer is not priced again")
	assert.Len(t, env.transactionsOfType(t, addrAlice, entities.TransactionTypeBuy), 1)
	assert.Equal(t, 1.0, env.mustProfile(t, addrAlice).PtradoorBalance)
}

func TestTransferIngest_SellToPool(t *testing.T) {
	env := newTestEnv(t, withPool(addrPool))
	ctx := context.Background()
	env.onboard(t, addrAlice)

	_, err := env.ingest.ProcessTransfer(ctx, entities.TokenTransfer{TxHash: "0x01", BlockNumber: 1, From: addrPool, To: addrAlice, Value: tokens(10)})
	require.NoError(t, err)
	results, err := env.ingest.ProcessTransfer(ctx, entities.TokenTransfer{TxHash: "0x02", BlockNumber: 2, From: addrAlice, To: addrPool, Value: tokens(4)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 6.0, results[0].NewBalance)
	assert.Len(t, env.transactionsOfType(t, addrAlice, entities.TransactionTypeSell), 1)
}

func TestTransferIngest_WithoutPoolBothSidesTrade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboard(t, addrAlice)
	env.onboard(t, addrBob)

	results, err := env.ingest.ProcessTransfer(ctx, entities.TokenTransfer{TxHash: "0x03", BlockNumber: 3, From: addrAlice, To: addrBob, Value: tokens(5)})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Len(t, env.transactionsOfType(t, addrBob, entities.TransactionTypeBuy), 1)
	assert.Len(t, env.transactionsOfType(t, addrAlice, entities.TransactionTypeSell), 1)
}

func TestTransferIngest_SkipsUnknownAndStale(t *testing.T) {
	env := newTestEnv(t, withPool(addrPool))
	ctx := context.Background()
	env.oracle.err = errors.New("oracle should not be called")

	results, err := env.ingest.ProcessTransfer(ctx, entities.TokenTransfer{TxHash: "0x04", BlockNumber: 5, From: addrPool, To: addrCarol, Value: tokens(1)})
	require.NoError(t, err)
	assert.Empty(t, results)

	env.onboard(t, addrAlice)
	require.NoError(t, env.profileRepo.UpdateLastProcessedBlock(ctx, addrAlice, 50))
	results, err = env.ingest.ProcessTransfer(ctx, entities.TokenTransfer{TxHash: "0x05", BlockNumber: 49, From: addrPool, To: addrAlice, Value: tokens(1)})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTransferIngest_OracleFailure(t *testing.T) {
	env := newTestEnv(t, withPool(addrPool))
	ctx := context.Background()
	env.onboard(t, addrAlice)
	env.oracle.err = errors.New("rate limited")

	_, err := env.ingest.ProcessTransfer(ctx, entities.TokenTransfer{TxHash: "0x06", BlockNumber: 6, From: addrPool, To: addrAlice, Value: tokens(1)})
	require.ErrorIs(t, err, domainerrors.ErrUpstreamUnavailable)
	assert.Empty(t, env.transactionsOfType(t, addrAlice, entities.TransactionTypeBuy))
	assert.Equal(t, uint64(0), env.mustProfile(t, addrAlice).LastProcessedBlock)
}
