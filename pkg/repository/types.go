package repository

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	VolumeCursorID = "volume"
	TVLCursorID    = "tvl"
)

// BalanceSnapshot is keyed by block hash. Nil values were never read successfully.
type BalanceSnapshot struct {
	ID           string
	Block        uint64
	TotalSupply  *big.Int
	TotalBalance *big.Int
}

// VolumeRecord is keyed by transaction hash. PrevID references the record the
// cumulative totals were chained from.
type VolumeRecord struct {
	ID          string
	Block       uint64
	LogIndex    uint
	PrevID      string
	Amount      decimal.Decimal
	TotalAmount decimal.Decimal
	AssetTotals []decimal.Decimal
}

type Cursor struct {
	ID     string
	Block  uint64
	LastID string
}

type TVLSnapshot struct {
	ID               string
	Block            uint64
	TotalValueLocked decimal.Decimal
}
