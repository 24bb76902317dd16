package repository

import (
	"github.com/Synternet/stablepool-indexer/pkg/repository"
)

func (t *txn) BalanceSnapshot(id string) (repository.BalanceSnapshot, bool, error) {
	var snapshot BalanceSnapshot
	result := t.db.Model(&BalanceSnapshot{}).Limit(1).Find(&snapshot, "id = ?", id)
	if result.Error != nil {
		return repository.BalanceSnapshot{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return repository.BalanceSnapshot{}, false, nil
	}
	ret, err := snapshot.toDomain()
	return ret, err == nil, err
}

func (t *txn) VolumeRecord(id string) (repository.VolumeRecord, bool, error) {
	var record VolumeRecord
	result := t.db.Model(&VolumeRecord{}).Limit(1).Find(&record, "id = ?", id)
	if result.Error != nil {
		return repository.VolumeRecord{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return repository.VolumeRecord{}, false, nil
	}
	ret, err := record.toDomain()
	return ret, err == nil, err
}

func (t *txn) Cursor(id string) (repository.Cursor, bool, error) {
	var cursor Cursor
	result := t.db.Model(&Cursor{}).Limit(1).Find(&cursor, "id = ?", id)
	if result.Error != nil {
		return repository.Cursor{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return repository.Cursor{}, false, nil
	}
	return repository.Cursor{
		ID:     cursor.ID,
		Block:  cursor.Block,
		LastID: cursor.LastID,
	}, true, nil
}

func (t *txn) TVLSnapshot(id string) (repository.TVLSnapshot, bool, error) {
	var snapshot TVLSnapshot
	result := t.db.Model(&TVLSnapshot{}).Limit(1).Find(&snapshot, "id = ?", id)
	if result.Error != nil {
		return repository.TVLSnapshot{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return repository.TVLSnapshot{}, false, nil
	}
	ret, err := snapshot.toDomain()
	return ret, err == nil, err
}

// LatestBalanceSnapshot will return the snapshot of the highest block
func (r *Repository) LatestBalanceSnapshot() (repository.BalanceSnapshot, bool) {
	var snapshot BalanceSnapshot
	result := r.dbCon.Model(&BalanceSnapshot{}).Order("block DESC").Limit(1).Find(&snapshot)
	if result.Error != nil {
		r.logger.Error("Error fetching BalanceSnapshot from DB", "err", result.Error)
		return repository.BalanceSnapshot{}, false
	}
	if result.RowsAffected == 0 {
		return repository.BalanceSnapshot{}, false
	}
	ret, err := snapshot.toDomain()
	if err != nil {
		r.logger.Error("Error parsing BalanceSnapshot from DB", "err", err)
		return repository.BalanceSnapshot{}, false
	}
	return ret, true
}

// LatestTVLSnapshot will return the TVL snapshot of the highest block
func (r *Repository) LatestTVLSnapshot() (repository.TVLSnapshot, bool) {
	var snapshot TVLSnapshot
	result := r.dbCon.Model(&TVLSnapshot{}).Order("block DESC").Limit(1).Find(&snapshot)
	if result.Error != nil {
		r.logger.Error("Error fetching TVLSnapshot from DB", "err", result.Error)
		return repository.TVLSnapshot{}, false
	}
	if result.RowsAffected == 0 {
		return repository.TVLSnapshot{}, false
	}
	ret, err := snapshot.toDomain()
	if err != nil {
		r.logger.Error("Error parsing TVLSnapshot from DB", "err", err)
		return repository.TVLSnapshot{}, false
	}
	return ret, true
}

// VolumeRecordsRange will return volume records from min to max block ordered by block
func (r *Repository) VolumeRecordsRange(min, max uint64) ([]repository.VolumeRecord, error) {
	var records []VolumeRecord
	result := r.dbCon.Model(&VolumeRecord{}).Order("block ASC, log_index ASC").Find(&records, "block >= ? AND block <= ?", min, max)
	if result.Error != nil {
		r.logger.Error("Error fetching VolumeRecords from DB", "err", result.Error)
		return nil, result.Error
	}

	ret := make([]repository.VolumeRecord, len(records))
	for i, rec := range records {
		v, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		ret[i] = v
	}

	return ret, nil
}
