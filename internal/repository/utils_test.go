package repository_test

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/Synternet/stablepool-indexer/internal/repository"
	"github.com/Synternet/stablepool-indexer/internal/repository/sqlite"
	repotypes "github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/shopspring/decimal"
)

// makeDB opens a private in-memory database for every test case.
func makeDB(name string) *repository.Repository {
	db, err := sqlite.NewInMemory(name)
	if err != nil {
		panic(err)
	}
	repo, err := repository.New(db, slog.Default())
	if err != nil {
		panic(err)
	}

	return repo
}

func addBalanceSnapshots(repo *repository.Repository) {
	err := repo.Update(context.Background(), func(tx repotypes.Tx) error {
		for i := uint64(1); i <= 3; i++ {
			err := tx.SaveBalanceSnapshot(repotypes.BalanceSnapshot{
				ID:           fmt.Sprintf("0xblock%d", i),
				Block:        i * 100,
				TotalSupply:  big.NewInt(int64(i * 1000)),
				TotalBalance: big.NewInt(int64(i * 1100)),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

func addVolumeRecords(repo *repository.Repository) {
	err := repo.Update(context.Background(), func(tx repotypes.Tx) error {
		total := decimal.Zero
		prev := ""
		for i := 1; i <= 4; i++ {
			amount := decimal.NewFromInt(int64(i))
			total = total.Add(amount)
			id := fmt.Sprintf("0xtx%d", i)
			err := tx.SaveVolumeRecord(repotypes.VolumeRecord{
				ID:          id,
				Block:       uint64(i * 10),
				PrevID:      prev,
				Amount:      amount,
				TotalAmount: total,
				AssetTotals: []decimal.Decimal{total, decimal.Zero, total},
			})
			if err != nil {
				return err
			}
			prev = id
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

func must[T any](obj T, err error) T {
	if err != nil {
		panic(err)
	}
	return obj
}
