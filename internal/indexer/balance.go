package indexer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Synternet/stablepool-indexer/pkg/contract"
	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/Synternet/stablepool-indexer/pkg/types"
)

// HandleTransfer snapshots the pool balances at the event's block, then samples TVL.
// The snapshot is committed before sampling starts.
func (d *Indexer) HandleTransfer(ctx context.Context, event types.Event) error {
	if err := d.snapshotBalance(ctx, event); err != nil {
		return err
	}
	return d.sampleTVL(ctx, event)
}

func (d *Indexer) snapshotBalance(ctx context.Context, event types.Event) error {
	block := event.BlockNumber()
	pool := d.binder.BindPool(ctx, event.Address, block)

	supply := pool.TotalSupply()
	if supply.Reverted() {
		d.reverted("BALANCE", "totalSupply", supply.Err, "pool", event.Address, "block", event.Block.Number)
	}

	var balance *big.Int
	raw := pool.TotalBalance()
	if raw.Reverted() {
		d.reverted("BALANCE", "totalBalance", raw.Err, "pool", event.Address, "block", event.Block.Number)
	} else {
		balance = new(big.Int).Set(raw.Value)
		if d.cfg.Capabilities.TracksYield {
			balance.Add(balance, d.yieldCorrection(ctx, pool, block))
		}
	}

	id := event.Block.Hash.Hex()
	err := d.repo.Update(ctx, func(tx repository.Tx) error {
		snapshot, found, err := tx.BalanceSnapshot(id)
		if err != nil {
			return err
		}
		if !found {
			snapshot = repository.BalanceSnapshot{ID: id}
		}
		snapshot.Block = event.Block.Number
		if !supply.Reverted() {
			snapshot.TotalSupply = supply.Value
		}
		if balance != nil {
			snapshot.TotalBalance = balance
		}
		return tx.SaveBalanceSnapshot(snapshot)
	})
	if err != nil {
		return fmt.Errorf("balance snapshot %s: %w", id, err)
	}

	d.logger.Debug("BALANCE: snapshot", "block", event.Block.Number, "supply", supply.Value, "balance", balance)
	return nil
}

// yieldCorrection reconciles the pool's recorded yield token balances with their live value.
// Slots whose reads revert contribute nothing.
func (d *Indexer) yieldCorrection(ctx context.Context, pool contract.Pool, block *big.Int) *big.Int {
	correction := new(big.Int)

	count := pool.NTokens()
	if count.Reverted() {
		d.reverted("BALANCE", "ntokens", count.Err, "pool", pool.Address())
		return correction
	}
	if !count.Value.IsUint64() {
		d.logger.Warn("BALANCE: invalid yield token count", "pool", pool.Address(), "count", count.Value)
		return correction
	}

	n := count.Value.Uint64()
	for i := uint64(0); i < n; i++ {
		idx := new(big.Int).SetUint64(i)

		address := pool.YTokenAddress(idx)
		if address.Reverted() {
			d.reverted("BALANCE", "yTokenAddresses", address.Err, "slot", i)
			continue
		}
		if address.Value == d.cfg.ZeroAddress {
			continue
		}

		token := d.binder.BindYieldToken(ctx, address.Value, block)
		symbol := token.Symbol()
		if symbol.Reverted() {
			d.reverted("BALANCE", "symbol", symbol.Err, "slot", i, "token", address.Value)
			continue
		}
		price := token.PricePerFullShare()
		if price.Reverted() {
			d.reverted("BALANCE", "getPricePerFullShare", price.Err, "slot", i, "token", address.Value)
			continue
		}
		shares := token.BalanceOf(pool.Address())
		if shares.Reverted() {
			d.reverted("BALANCE", "balanceOf", shares.Err, "slot", i, "token", address.Value)
			continue
		}
		decimals := token.Decimals()
		if decimals.Reverted() {
			d.reverted("BALANCE", "decimals", decimals.Err, "slot", i, "token", address.Value)
			continue
		}
		old := pool.YBalance(idx)
		if old.Reverted() {
			d.reverted("BALANCE", "yBalances", old.Err, "slot", i, "token", address.Value)
			continue
		}

		value := yieldValue(shares.Value, price.Value, decimals.Value, d.cfg.Decimals)
		contribution := new(big.Int).Sub(value, old.Value)
		correction.Add(correction, contribution)

		d.logger.Debug("BALANCE: yield slot",
			"slot", i,
			"symbol", symbol.Value,
			"new", value,
			"old", old.Value,
			"contribution", contribution,
			"correction", correction,
		)
	}

	return correction
}
