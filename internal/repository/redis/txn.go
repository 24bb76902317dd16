package redis

import (
	"context"
	"encoding/json"

	"github.com/Synternet/stablepool-indexer/pkg/repository"
)

type stagedWrite struct {
	id            string
	data          []byte
	block         uint64
	indexKey      string
	onlyIfMissing bool
}

// txn reads through its own staged writes before falling back to Redis.
type txn struct {
	ctx    context.Context
	repo   *Repository
	staged map[string]stagedWrite
	order  []string
}

func (t *txn) load(kind, id string, out any) (bool, error) {
	key := t.repo.key(kind, id)
	if w, ok := t.staged[key]; ok {
		return true, json.Unmarshal(w.data, out)
	}
	return t.repo.get(t.ctx, key, out)
}

func (t *txn) stage(kind, id string, block uint64, indexed, onlyIfMissing bool, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	key := t.repo.key(kind, id)
	if _, ok := t.staged[key]; !ok {
		t.order = append(t.order, key)
	}
	w := stagedWrite{
		id:            id,
		data:          data,
		block:         block,
		onlyIfMissing: onlyIfMissing,
	}
	if indexed {
		w.indexKey = t.repo.blocksKey(kind)
	}
	t.staged[key] = w
	return nil
}

func (t *txn) BalanceSnapshot(id string) (repository.BalanceSnapshot, bool, error) {
	var snapshot repository.BalanceSnapshot
	found, err := t.load(kindBalance, id, &snapshot)
	return snapshot, found, err
}

func (t *txn) SaveBalanceSnapshot(snapshot repository.BalanceSnapshot) error {
	return t.stage(kindBalance, snapshot.ID, snapshot.Block, true, false, snapshot)
}

func (t *txn) VolumeRecord(id string) (repository.VolumeRecord, bool, error) {
	var record repository.VolumeRecord
	found, err := t.load(kindVolume, id, &record)
	return record, found, err
}

func (t *txn) SaveVolumeRecord(record repository.VolumeRecord) error {
	return t.stage(kindVolume, record.ID, record.Block, true, false, record)
}

func (t *txn) Cursor(id string) (repository.Cursor, bool, error) {
	var cursor repository.Cursor
	found, err := t.load(kindCursor, id, &cursor)
	return cursor, found, err
}

func (t *txn) SaveCursor(cursor repository.Cursor) error {
	return t.stage(kindCursor, cursor.ID, cursor.Block, false, false, cursor)
}

func (t *txn) TVLSnapshot(id string) (repository.TVLSnapshot, bool, error) {
	var snapshot repository.TVLSnapshot
	found, err := t.load(kindTVL, id, &snapshot)
	return snapshot, found, err
}

func (t *txn) SaveTVLSnapshot(snapshot repository.TVLSnapshot) error {
	var existing repository.TVLSnapshot
	found, err := t.load(kindTVL, snapshot.ID, &existing)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return t.stage(kindTVL, snapshot.ID, snapshot.Block, true, true, snapshot)
}
