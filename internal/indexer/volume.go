package indexer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/Synternet/stablepool-indexer/pkg/types"
	"github.com/shopspring/decimal"
)

// Batch swap flags outside of (0, 1024) are liquidity operations, not trades.
var maxTradeFlag = big.NewInt(1024)

// trade is the normalized size of one swap event and its attribution to asset slots.
type trade struct {
	amount decimal.Decimal
	assets []decimal.Decimal
}

func (d *Indexer) HandleSwap(ctx context.Context, event types.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return d.accumulate(ctx, event, d.swapTrade(event.Swap))
}

func (d *Indexer) HandleSwapAll(ctx context.Context, event types.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	t, ok := d.swapAllTrade(event.SwapAll)
	if !ok {
		d.logger.Debug("VOLUME: batch swap flag out of range", "tx", event.TxHash, "flag", event.SwapAll.Flag)
		return nil
	}
	return d.accumulate(ctx, event, t)
}

// swapTrade credits the full input amount to both the input and the output slot.
func (d *Indexer) swapTrade(swap *types.Swap) trade {
	amount := ConvertTokenToDecimal(swap.InAmount, d.cfg.Decimals)
	assets := make([]decimal.Decimal, d.cfg.AssetSlots)
	for slot := range assets {
		s := big.NewInt(int64(slot))
		if swap.InIndex.Cmp(s) == 0 || swap.OutIndex.Cmp(s) == 0 {
			assets[slot] = amount
		}
	}
	return trade{amount: amount, assets: assets}
}

// swapAllTrade halves the batch since both legs of the operation are reported.
//
// Slots are credited half of their own leg rather than the full amounts vector, so
// per-asset totals of batch swaps add up to the cumulative total.
func (d *Indexer) swapAllTrade(swap *types.SwapAll) (trade, bool) {
	if swap.Flag.Sign() <= 0 || swap.Flag.Cmp(maxTradeFlag) >= 0 {
		return trade{}, false
	}

	sum := decimal.Zero
	assets := make([]decimal.Decimal, d.cfg.AssetSlots)
	for i, a := range swap.Amounts {
		leg := ConvertTokenToDecimal(a, d.cfg.Decimals)
		sum = sum.Add(leg)
		if i < len(assets) {
			assets[i] = leg.Mul(half)
		}
	}
	return trade{amount: sum.Mul(half), assets: assets}, true
}

func (d *Indexer) accumulate(ctx context.Context, event types.Event, t trade) error {
	id := event.TxHash.Hex()

	var saved *repository.VolumeRecord
	err := d.repo.Update(ctx, func(tx repository.Tx) error {
		existing, found, err := tx.VolumeRecord(id)
		if err != nil {
			return err
		}
		cursor, hasCursor, err := tx.Cursor(repository.VolumeCursorID)
		if err != nil {
			return err
		}

		var record repository.VolumeRecord
		switch {
		case found && event.LogIndex <= existing.LogIndex:
			d.logger.Debug("VOLUME: duplicate event", "tx", id, "log_index", event.LogIndex)
			return nil
		case found && (!hasCursor || cursor.LastID != id):
			d.logger.Warn("VOLUME: event behind the cursor", "tx", id, "log_index", event.LogIndex, "cursor", cursor.LastID)
			return nil
		case found:
			// Another swap within the same transaction extends the record in place.
			record = existing
			record.LogIndex = event.LogIndex
			record.Amount = existing.Amount.Add(t.amount)
			record.TotalAmount = existing.TotalAmount.Add(t.amount)
			record.AssetTotals = addAssets(existing.AssetTotals, t.assets)
		default:
			var prev repository.VolumeRecord
			if hasCursor && cursor.LastID != "" {
				p, ok, err := tx.VolumeRecord(cursor.LastID)
				if err != nil {
					return err
				}
				if ok {
					prev = p
				} else {
					d.logger.Debug("VOLUME: predecessor missing", "tx", id, "prev", cursor.LastID)
				}
			}
			record = repository.VolumeRecord{
				ID:          id,
				Block:       event.Block.Number,
				LogIndex:    event.LogIndex,
				PrevID:      prev.ID,
				Amount:      t.amount,
				TotalAmount: prev.TotalAmount.Add(t.amount),
				AssetTotals: addAssets(prev.AssetTotals, t.assets),
			}
		}

		if !d.cfg.Capabilities.TracksPerAssetBreakdown {
			record.AssetTotals = nil
		}

		if err := tx.SaveVolumeRecord(record); err != nil {
			return err
		}
		if err := tx.SaveCursor(repository.Cursor{ID: repository.VolumeCursorID, LastID: id}); err != nil {
			return err
		}
		saved = &record
		return nil
	})
	if err != nil {
		return fmt.Errorf("volume record %s: %w", id, err)
	}

	if saved != nil {
		cumulativeVolume.Set(saved.TotalAmount.InexactFloat64())
		d.logger.Debug("VOLUME: record", "tx", id, "block", saved.Block, "amount", saved.Amount, "total", saved.TotalAmount)
	}
	return nil
}

// addAssets adds a trade's slot attribution to the predecessor's slot totals.
// Missing predecessor slots count as zero.
func addAssets(prev, add []decimal.Decimal) []decimal.Decimal {
	n := max(len(prev), len(add))
	ret := make([]decimal.Decimal, n)
	for i := range ret {
		if i < len(prev) {
			ret[i] = prev[i]
		}
		if i < len(add) {
			ret[i] = ret[i].Add(add[i])
		}
	}
	return ret
}
