package indexer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/Synternet/stablepool-indexer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// sampleTVL takes at most one TVL snapshot per block and no more than one per TVLInterval blocks.
func (d *Indexer) sampleTVL(ctx context.Context, event types.Event) error {
	id := event.Block.Hash.Hex()
	block := event.Block.Number

	var sampled *repository.TVLSnapshot
	err := d.repo.Update(ctx, func(tx repository.Tx) error {
		_, found, err := tx.TVLSnapshot(id)
		if err != nil {
			return err
		}
		if found {
			return nil
		}

		cursor, hasCursor, err := tx.Cursor(repository.TVLCursorID)
		if err != nil {
			return err
		}
		if hasCursor && (block < cursor.Block || block-cursor.Block < d.cfg.TVLInterval) {
			d.logger.Debug("TVL: too soon", "block", block, "last", cursor.Block)
			return nil
		}

		if err := tx.SaveCursor(repository.Cursor{ID: repository.TVLCursorID, Block: block}); err != nil {
			return err
		}

		snapshot := repository.TVLSnapshot{
			ID:               id,
			Block:            block,
			TotalValueLocked: d.totalValueLocked(ctx, event),
		}
		if err := tx.SaveTVLSnapshot(snapshot); err != nil {
			return err
		}
		sampled = &snapshot
		return nil
	})
	if err != nil {
		return fmt.Errorf("tvl snapshot %s: %w", id, err)
	}

	if sampled != nil {
		d.tvlCounter.Add(1)
		tvlSamples.Inc()
		tvlGauge.Set(sampled.TotalValueLocked.InexactFloat64())
		d.logger.Debug("TVL: snapshot", "block", block, "tvl", sampled.TotalValueLocked)
	}
	return nil
}

func (d *Indexer) totalValueLocked(ctx context.Context, event types.Event) decimal.Decimal {
	address := d.cfg.StatsContract
	if address == (common.Address{}) {
		address = event.Address
	}
	pool := d.binder.BindPool(ctx, address, event.BlockNumber())

	tvl := decimal.Zero
	for slot := 0; slot < d.cfg.AssetSlots; slot++ {
		stats := pool.TokenStats(big.NewInt(int64(slot)))
		if stats.Reverted() {
			d.reverted("TVL", "getTokenStats", stats.Err, "slot", slot, "block", event.Block.Number)
			continue
		}
		tvl = tvl.Add(ConvertTokenToDecimal(stats.Value.Balance, d.cfg.Decimals))
	}
	return tvl
}
