package subscriber

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"

	"github.com/Synternet/stablepool-indexer/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

const logsSourceName = "logs"

// LogSource streams pool logs straight from a node. When FromBlock is set, historical
// logs are replayed before switching to the live subscription.
type LogSource struct {
	client    ethereum.LogFilterer
	addresses []common.Address
	fromBlock *big.Int
	logger    *slog.Logger

	removed   atomic.Uint64
	malformed atomic.Uint64

	// position of the last delivered log, used to drop live logs already replayed
	lastBlock uint64
	lastIndex uint
	delivered bool
}

func NewLogSource(client ethereum.LogFilterer, addresses []common.Address, fromBlock *big.Int, logger *slog.Logger) *LogSource {
	return &LogSource{
		client:    client,
		addresses: addresses,
		fromBlock: fromBlock,
		logger:    logger,
	}
}

func (l *LogSource) Name() string {
	return logsSourceName
}

func (l *LogSource) query() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: l.addresses,
		Topics: [][]common.Hash{{
			chain.PoolABI.Events["Transfer"].ID,
			chain.PoolABI.Events["Swap"].ID,
			chain.PoolABI.Events["SwapAll"].ID,
		}},
	}
}

func (l *LogSource) Run(ctx context.Context, out chan<- Delivery) error {
	// Replay happens before subscribing so a long history cannot overflow the
	// client's subscription buffer.
	if l.fromBlock != nil {
		if err := l.replay(ctx, out, l.fromBlock); err != nil {
			return err
		}
	}

	logs := make(chan gethtypes.Log, DefaultBufferSize)
	sub, err := l.client.SubscribeFilterLogs(ctx, l.query(), logs)
	if err != nil {
		return fmt.Errorf("failed subscribing to logs: %w", err)
	}
	defer sub.Unsubscribe()

	// Blocks mined during the replay are fetched once more; positions already delivered are dropped.
	if l.fromBlock != nil {
		from := l.fromBlock
		if l.delivered {
			from = new(big.Int).SetUint64(l.lastBlock)
		}
		if err := l.replay(ctx, out, from); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("log subscription failed: %w", err)
		case log := <-logs:
			if err := l.handle(ctx, out, log); err != nil {
				return err
			}
		}
	}
}

func (l *LogSource) replay(ctx context.Context, out chan<- Delivery, from *big.Int) error {
	q := l.query()
	q.FromBlock = from
	logs, err := l.client.FilterLogs(ctx, q)
	if err != nil {
		return fmt.Errorf("failed fetching logs from block %v: %w", from, err)
	}

	l.logger.Info("LOGS: replaying", "from", from, "count", len(logs))
	for _, log := range logs {
		if err := l.handle(ctx, out, log); err != nil {
			return err
		}
	}
	return nil
}

func (l *LogSource) handle(ctx context.Context, out chan<- Delivery, log gethtypes.Log) error {
	if log.Removed {
		l.removed.Add(1)
		l.logger.Warn("LOGS: removed log skipped", "block", log.BlockNumber, "tx", log.TxHash)
		return nil
	}
	if l.seen(log) {
		return nil
	}

	ev, ok, err := chain.DecodeLog(log)
	if err != nil {
		l.malformed.Add(1)
		malformedCounter.WithLabelValues(logsSourceName).Inc()
		l.logger.Warn("LOGS: failed decoding log", "block", log.BlockNumber, "tx", log.TxHash, "err", err)
		return nil
	}
	if !ok {
		return nil
	}

	if err := deliver(ctx, out, Delivery{Source: logsSourceName, Event: ev}); err != nil {
		return err
	}
	l.lastBlock, l.lastIndex, l.delivered = log.BlockNumber, log.Index, true
	return nil
}

// seen reports whether log is at or before the last delivered position.
func (l *LogSource) seen(log gethtypes.Log) bool {
	if !l.delivered {
		return false
	}
	if log.BlockNumber != l.lastBlock {
		return log.BlockNumber < l.lastBlock
	}
	return log.Index <= l.lastIndex
}

func (l *LogSource) Close() error {
	return nil
}
