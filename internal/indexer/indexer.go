package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Synternet/stablepool-indexer/pkg/contract"
	"github.com/Synternet/stablepool-indexer/pkg/indexer"
	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/Synternet/stablepool-indexer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

var _ indexer.Indexer = (*Indexer)(nil)

const (
	DefaultAssetSlots  = 6
	DefaultDecimals    = 18
	DefaultTVLInterval = 200
)

var ErrInvalidConfig = errors.New("invalid indexer config")

// Capabilities select the optional parts of the computation for a pool deployment.
type Capabilities struct {
	// TracksYield folds the live value of yield token holdings into the total balance.
	TracksYield bool
	// TracksPerAssetBreakdown stores cumulative volume per asset slot.
	TracksPerAssetBreakdown bool
}

type Config struct {
	// ZeroAddress marks unused yield token slots.
	ZeroAddress  common.Address
	AssetSlots   int
	Decimals     int32
	TVLInterval  uint64
	Capabilities Capabilities
	// StatsContract exposes getTokenStats. Zero means the contract that emitted the event.
	StatsContract common.Address
}

func DefaultConfig() Config {
	return Config{
		AssetSlots:  DefaultAssetSlots,
		Decimals:    DefaultDecimals,
		TVLInterval: DefaultTVLInterval,
		Capabilities: Capabilities{
			TracksYield:             true,
			TracksPerAssetBreakdown: true,
		},
	}
}

func (c Config) Validate() error {
	if c.AssetSlots <= 0 {
		return fmt.Errorf("%w: asset slots must be positive, got %d", ErrInvalidConfig, c.AssetSlots)
	}
	if c.Decimals < 0 {
		return fmt.Errorf("%w: decimals must not be negative, got %d", ErrInvalidConfig, c.Decimals)
	}
	return nil
}

// Indexer derives balance snapshots, cumulative volume and TVL samples from pool events.
// Handlers must not be called concurrently.
type Indexer struct {
	logger *slog.Logger
	repo   repository.Repository
	binder contract.Binder
	cfg    Config

	processedCounter atomic.Uint64
	ignoredCounter   atomic.Uint64
	errCounter       atomic.Uint64
	revertCounter    atomic.Uint64
	tvlCounter       atomic.Uint64
	lastBlock        atomic.Uint64
}

func New(logger *slog.Logger, repo repository.Repository, binder contract.Binder, cfg Config) (*Indexer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Indexer{
		logger: logger,
		repo:   repo,
		binder: binder,
		cfg:    cfg,
	}, nil
}

func (d *Indexer) HandleEvent(ctx context.Context, event types.Event) error {
	if err := event.Validate(); err != nil {
		d.ignoredCounter.Add(1)
		eventsCounter.WithLabelValues(string(event.Kind), "ignored").Inc()
		d.logger.Debug("INDEXER: ignoring event", "tx", event.TxHash, "err", err)
		return nil
	}

	var err error
	switch event.Kind {
	case types.EventTransfer:
		err = d.HandleTransfer(ctx, event)
	case types.EventSwap:
		err = d.HandleSwap(ctx, event)
	case types.EventSwapAll:
		err = d.HandleSwapAll(ctx, event)
	}

	if err != nil {
		d.errCounter.Add(1)
		eventsCounter.WithLabelValues(string(event.Kind), "error").Inc()
		return fmt.Errorf("%s event in tx %s: %w", event.Kind, event.TxHash.Hex(), err)
	}

	d.processedCounter.Add(1)
	eventsCounter.WithLabelValues(string(event.Kind), "processed").Inc()
	setMaxValue(&d.lastBlock, event.Block.Number)
	return nil
}

func (d *Indexer) GetStatus() map[string]any {
	return map[string]any{
		"indexer": map[string]any{
			"processed":      d.processedCounter.Load(),
			"ignored":        d.ignoredCounter.Load(),
			"errors":         d.errCounter.Load(),
			"reverted_reads": d.revertCounter.Load(),
			"tvl_samples":    d.tvlCounter.Load(),
			"last_block":     d.lastBlock.Load(),
		},
	}
}

// reverted records a failed contract read. Reverts are expected and never abort a handler.
func (d *Indexer) reverted(component, method string, err error, args ...any) {
	d.revertCounter.Add(1)
	revertedReads.WithLabelValues(method).Inc()
	d.logger.Info(component+": "+method+" reverted", append(args, "err", err)...)
}

func setMaxValue(v *atomic.Uint64, value uint64) uint64 {
	for {
		old := v.Load()
		if old >= value {
			return old
		}
		if v.CompareAndSwap(old, value) {
			return old
		}
	}
}
