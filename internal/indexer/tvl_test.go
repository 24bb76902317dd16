package indexer

import (
	"context"
	"math/big"
	"testing"

	"github.com/Synternet/stablepool-indexer/pkg/contract"
	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var statsAddress = common.HexToAddress("0x00000000000000000000000000000000000000c1")

// statsPool reports slot balances of 1..6 tokens, slot 3 reverts.
func statsPool(address common.Address) *fakePool {
	pool := newFakePool(address)
	for i := int64(0); i < DefaultAssetSlots; i++ {
		if i == 3 {
			pool.stats = append(pool.stats, contract.Fail[contract.TokenStats](nil))
			continue
		}
		pool.stats = append(pool.stats, contract.Ok(contract.TokenStats{
			SoftWeight: big.NewInt(0),
			HardWeight: big.NewInt(0),
			Balance:    ether(i + 1),
			Decimals:   big.NewInt(18),
		}))
	}
	return pool
}

func TestIndexer_HandleTransfer_TVLGate(t *testing.T) {
	d, repo := makeIndexer(t, DefaultConfig(), newFakeBinder(statsPool(poolAddress)))
	ctx := context.Background()

	for _, block := range []uint64{100, 150, 250, 460} {
		if err := d.HandleEvent(ctx, transferEvent(block)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		block uint64
		want  bool
	}{
		{100, true},
		{150, false},
		{250, false},
		{460, true},
	}
	for _, tt := range tests {
		got, found := tvlSnapshot(t, repo, tt.block)
		if found != tt.want {
			t.Errorf("snapshot at %d found = %v, want %v", tt.block, found, tt.want)
			continue
		}
		if found && !got.TotalValueLocked.Equal(decimal.NewFromInt(17)) {
			t.Errorf("snapshot at %d tvl = %v, want 17", tt.block, got.TotalValueLocked)
		}
	}

	c, _ := loadCursor(t, repo, repository.TVLCursorID)
	if c.Block != 460 || c.LastID != "" {
		t.Errorf("cursor = %+v, want block 460", c)
	}
	if d.tvlCounter.Load() != 2 {
		t.Errorf("samples = %d, want 2", d.tvlCounter.Load())
	}
	latest, ok := repo.LatestTVLSnapshot()
	if !ok || latest.Block != 460 {
		t.Errorf("latest = %+v, %v", latest, ok)
	}
}

func TestIndexer_HandleTransfer_TVLImmutable(t *testing.T) {
	pool := statsPool(poolAddress)
	d, repo := makeIndexer(t, DefaultConfig(), newFakeBinder(pool))
	ctx := context.Background()

	if err := d.HandleTransfer(ctx, transferEvent(100)); err != nil {
		t.Fatal(err)
	}
	pool.stats[0] = contract.Ok(contract.TokenStats{Balance: ether(1000)})
	if err := d.HandleTransfer(ctx, transferEvent(100)); err != nil {
		t.Fatal(err)
	}

	got, _ := tvlSnapshot(t, repo, 100)
	if !got.TotalValueLocked.Equal(decimal.NewFromInt(17)) {
		t.Errorf("tvl = %v, want 17", got.TotalValueLocked)
	}

	// Lower blocks than the last sample never pass the gate.
	if err := d.HandleTransfer(ctx, transferEvent(50)); err != nil {
		t.Fatal(err)
	}
	if _, found := tvlSnapshot(t, repo, 50); found {
		t.Error("snapshot at 50 should not be sampled")
	}
}

func TestIndexer_HandleTransfer_StatsContract(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StatsContract = statsAddress
	cfg.TVLInterval = 10
	d, repo := makeIndexer(t, cfg, newFakeBinder(newFakePool(poolAddress), statsPool(statsAddress)))

	if err := d.HandleTransfer(context.Background(), transferEvent(100)); err != nil {
		t.Fatal(err)
	}
	if err := d.HandleTransfer(context.Background(), transferEvent(110)); err != nil {
		t.Fatal(err)
	}

	for _, block := range []uint64{100, 110} {
		got, found := tvlSnapshot(t, repo, block)
		if !found || !got.TotalValueLocked.Equal(decimal.NewFromInt(17)) {
			t.Errorf("snapshot at %d = %+v, %v", block, got, found)
		}
	}
}
