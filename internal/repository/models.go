package repository

import (
	"time"
)

type BalanceSnapshot struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ID           string `gorm:"primaryKey"`
	Block        uint64 `gorm:"index:idx_balance_block"`
	TotalSupply  *string
	TotalBalance *string
}

type VolumeRecord struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string `gorm:"primaryKey"`
	Block       uint64 `gorm:"index:idx_volume_block"`
	LogIndex    uint
	PrevID      string
	Amount      string
	TotalAmount string
	// Comma separated per asset slot totals, empty when the breakdown is not tracked.
	AssetTotals string
}

type Cursor struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string `gorm:"primaryKey"`
	Block     uint64
	LastID    string
}

type TVLSnapshot struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ID               string `gorm:"primaryKey"`
	Block            uint64 `gorm:"index:idx_tvl_block"`
	TotalValueLocked string
}
