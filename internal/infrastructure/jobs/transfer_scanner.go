package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"ptradoor.backend/internal/domain/entities"
	"ptradoor.backend/pkg/logger"
	"ptradoor.backend/pkg/metrics"
)

// TransferSource reads token Transfer logs from the chain
type TransferSource interface {
	GetBlockNumber(ctx context.Context) (uint64, error)
	FilterTransfers(ctx context.Context, tokenAddress string, fromBlock, toBlock uint64) ([]entities.TokenTransfer, error)
}

// TransferProcessor turns a transfer into trades
type TransferProcessor interface {
	ProcessTransfer(ctx context.Context, t entities.TokenTransfer) ([]entities.TradeResult, error)
}

const defaultScanRange uint64 = 2000

// TransferScanner polls the chain for token transfers and feeds them to the ingest usecase
type TransferScanner struct {
	source    TransferSource
	processor TransferProcessor
	token     string
	interval  time.Duration
	maxRange  uint64

	mu   sync.Mutex
	next uint64
	stop chan struct{}
	once sync.Once
}

// NewTransferScanner creates a scanner starting at startBlock; 0 starts at the current head
func NewTransferScanner(source TransferSource, processor TransferProcessor, token string, startBlock uint64, interval time.Duration, maxRange uint64) *TransferScanner {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxRange == 0 {
		maxRange = defaultScanRange
	}
	return &TransferScanner{
		source:    source,
		processor: processor,
		token:     token,
		interval:  interval,
		maxRange:  maxRange,
		next:      startBlock,
		stop:      make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called
func (j *TransferScanner) Start(ctx context.Context) {
	logger.Info(ctx, "Starting transfer scanner", zap.String("token", j.token), zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Transfer scanner stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Transfer scanner stopped")
			return
		case <-ticker.C:
			if err := j.ScanOnce(ctx); err != nil {
				logger.Error(ctx, "Transfer scan failed", zap.Error(err))
			}
		}
	}
}

// Stop ends Start; safe to call more than once
func (j *TransferScanner) Stop() {
	j.once.Do(func() { close(j.stop) })
}

// NextBlock is the first block the next scan reads
func (j *TransferScanner) NextBlock() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// ScanOnce processes at most maxRange blocks up to the chain head. The cursor only
// advances past a block once all its transfers were handed to the processor.
func (j *TransferScanner) ScanOnce(ctx context.Context) (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	start := time.Now()
	defer func() { metrics.RecordJobRun("transfer_scanner", time.Since(start), err == nil) }()

	head, err := j.source.GetBlockNumber(ctx)
	if err != nil {
		return err
	}
	if j.next == 0 {
		j.next = head
	}
	if j.next > head {
		return nil
	}

	to := head
	if to-j.next+1 > j.maxRange {
		to = j.next + j.maxRange - 1
	}

	from := j.next
	transfers, err := j.source.FilterTransfers(ctx, j.token, from, to)
	if err != nil {
		return err
	}

	trades := 0
	for _, t := range transfers {
		results, err := j.processor.ProcessTransfer(ctx, t)
		if err != nil {
			// retry from this block next tick; recorded hashes make the replay harmless
			if t.BlockNumber > j.next {
				j.next = t.BlockNumber
			}
			return err
		}
		trades += len(results)
	}

	j.next = to + 1
	metrics.SetScannedBlock(to)
	if len(transfers) > 0 {
		logger.Info(ctx, "Scanned transfers",
			zap.Uint64("from", from),
			zap.Uint64("to", to),
			zap.Int("transfers", len(transfers)),
			zap.Int("trades", trades),
		)
	}
	return nil
}
