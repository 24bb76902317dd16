package indexer

import (
	"context"
	"log/slog"
	"math/big"
	"testing"

	"github.com/Synternet/stablepool-indexer/internal/repository/redis"
	"github.com/Synternet/stablepool-indexer/pkg/contract"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func TestIndexer_RedisStore(t *testing.T) {
	server := miniredis.RunT(t)
	repo := redis.NewWithClient(goredis.NewClient(&goredis.Options{Addr: server.Addr()}), "stablepool", slog.Default())
	t.Cleanup(func() { repo.Close() })

	pool := statsPool(poolAddress)
	pool.totalSupply = contract.Ok(ether(3))
	d, err := New(slog.Default(), repo, newFakeBinder(pool), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	transfer := func(blocks ...uint64) {
		t.Helper()
		for _, block := range blocks {
			if err := d.HandleEvent(ctx, transferEvent(block)); err != nil {
				t.Fatal(err)
			}
		}
	}

	transfer(100)
	for i, block := range []uint64{101, 102, 470} {
		if err := d.HandleEvent(ctx, swapEvent(i+1, block, 0, 0, 1, ether(int64(i+2)))); err != nil {
			t.Fatal(err)
		}
	}

	// Pool balances change, the sample already taken at block 100 must not.
	pool.stats[0] = contract.Ok(contract.TokenStats{Balance: ether(50), Decimals: big.NewInt(18)})
	transfer(100, 460)

	first, found := tvlSnapshot(t, repo, 100)
	if !found || !first.TotalValueLocked.Equal(decimal.NewFromInt(17)) {
		t.Errorf("tvl at 100 = %+v, %v, want 17", first, found)
	}
	latest, ok := repo.LatestTVLSnapshot()
	if !ok || latest.Block != 460 || !latest.TotalValueLocked.Equal(decimal.NewFromInt(66)) {
		t.Errorf("latest tvl = %+v, %v, want 66 at 460", latest, ok)
	}

	balance, ok := repo.LatestBalanceSnapshot()
	if !ok || balance.Block != 460 || !equalBig(balance.TotalSupply, ether(3)) {
		t.Errorf("latest balance = %+v, %v", balance, ok)
	}

	records, err := repo.VolumeRecordsRange(100, 200)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ID != txHash(1).Hex() || records[1].ID != txHash(2).Hex() {
		t.Fatalf("records = %+v", records)
	}
	if !records[1].TotalAmount.Equal(decimal.NewFromInt(5)) || records[1].PrevID != txHash(1).Hex() {
		t.Errorf("record = %+v, want total 5 chained from tx 1", records[1])
	}

	last, found := volumeRecord(t, repo, 3)
	if !found || !last.TotalAmount.Equal(decimal.NewFromInt(9)) {
		t.Errorf("last record = %+v, %v, want total 9", last, found)
	}
}
