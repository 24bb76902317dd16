package repository

import (
	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"gorm.io/gorm/clause"
)

var idColumn = []clause.Column{{Name: "id"}}

func (t *txn) SaveBalanceSnapshot(snapshot repository.BalanceSnapshot) error {
	newSnapshot := BalanceSnapshot{
		ID:           snapshot.ID,
		Block:        snapshot.Block,
		TotalSupply:  bigToString(snapshot.TotalSupply),
		TotalBalance: bigToString(snapshot.TotalBalance),
	}
	result := t.db.Clauses(clause.OnConflict{
		Columns:   idColumn,
		DoUpdates: clause.AssignmentColumns([]string{"block", "total_supply", "total_balance", "updated_at"}),
	}).Model(&BalanceSnapshot{}).Create(&newSnapshot)
	return result.Error
}

func (t *txn) SaveVolumeRecord(record repository.VolumeRecord) error {
	newRecord := VolumeRecord{
		ID:          record.ID,
		Block:       record.Block,
		LogIndex:    record.LogIndex,
		PrevID:      record.PrevID,
		Amount:      record.Amount.String(),
		TotalAmount: record.TotalAmount.String(),
		AssetTotals: joinDecimals(record.AssetTotals),
	}
	result := t.db.Clauses(clause.OnConflict{
		Columns:   idColumn,
		DoUpdates: clause.AssignmentColumns([]string{"block", "log_index", "prev_id", "amount", "total_amount", "asset_totals", "updated_at"}),
	}).Model(&VolumeRecord{}).Create(&newRecord)
	return result.Error
}

func (t *txn) SaveCursor(cursor repository.Cursor) error {
	newCursor := Cursor{
		ID:     cursor.ID,
		Block:  cursor.Block,
		LastID: cursor.LastID,
	}
	result := t.db.Clauses(clause.OnConflict{
		Columns:   idColumn,
		DoUpdates: clause.AssignmentColumns([]string{"block", "last_id", "updated_at"}),
	}).Model(&Cursor{}).Create(&newCursor)
	return result.Error
}

func (t *txn) SaveTVLSnapshot(snapshot repository.TVLSnapshot) error {
	newSnapshot := TVLSnapshot{
		ID:               snapshot.ID,
		Block:            snapshot.Block,
		TotalValueLocked: snapshot.TotalValueLocked.String(),
	}
	result := t.db.Clauses(clause.OnConflict{Columns: idColumn, DoNothing: true}).Model(&TVLSnapshot{}).Create(&newSnapshot)
	return result.Error
}
