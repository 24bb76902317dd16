package repository

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/shopspring/decimal"
)

func bigToString(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func stringToBig(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed integer %q", *s)
	}
	return v, nil
}

func joinDecimals(values []decimal.Decimal) string {
	if len(values) == 0 {
		return ""
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return strings.Join(out, ",")
}

func splitDecimals(s string) ([]decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]decimal.Decimal, len(parts))
	for i, p := range parts {
		v, err := decimal.NewFromString(p)
		if err != nil {
			return nil, fmt.Errorf("malformed asset total %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (b BalanceSnapshot) toDomain() (repository.BalanceSnapshot, error) {
	supply, err := stringToBig(b.TotalSupply)
	if err != nil {
		return repository.BalanceSnapshot{}, fmt.Errorf("balance snapshot %s total supply: %w", b.ID, err)
	}
	balance, err := stringToBig(b.TotalBalance)
	if err != nil {
		return repository.BalanceSnapshot{}, fmt.Errorf("balance snapshot %s total balance: %w", b.ID, err)
	}
	return repository.BalanceSnapshot{
		ID:           b.ID,
		Block:        b.Block,
		TotalSupply:  supply,
		TotalBalance: balance,
	}, nil
}

func (v VolumeRecord) toDomain() (repository.VolumeRecord, error) {
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return repository.VolumeRecord{}, fmt.Errorf("volume record %s amount: %w", v.ID, err)
	}
	total, err := decimal.NewFromString(v.TotalAmount)
	if err != nil {
		return repository.VolumeRecord{}, fmt.Errorf("volume record %s total amount: %w", v.ID, err)
	}
	assets, err := splitDecimals(v.AssetTotals)
	if err != nil {
		return repository.VolumeRecord{}, fmt.Errorf("volume record %s: %w", v.ID, err)
	}
	return repository.VolumeRecord{
		ID:          v.ID,
		Block:       v.Block,
		LogIndex:    v.LogIndex,
		PrevID:      v.PrevID,
		Amount:      amount,
		TotalAmount: total,
		AssetTotals: assets,
	}, nil
}

func (t TVLSnapshot) toDomain() (repository.TVLSnapshot, error) {
	tvl, err := decimal.NewFromString(t.TotalValueLocked)
	if err != nil {
		return repository.TVLSnapshot{}, fmt.Errorf("tvl snapshot %s: %w", t.ID, err)
	}
	return repository.TVLSnapshot{
		ID:               t.ID,
		Block:            t.Block,
		TotalValueLocked: tvl,
	}, nil
}
