package repository

import "context"

// Tx is a view of the store scoped to one handler invocation.
// Lookups return found=false when the record does not exist.
type Tx interface {
	BalanceSnapshot(id string) (BalanceSnapshot, bool, error)
	SaveBalanceSnapshot(BalanceSnapshot) error

	VolumeRecord(id string) (VolumeRecord, bool, error)
	SaveVolumeRecord(VolumeRecord) error

	Cursor(id string) (Cursor, bool, error)
	SaveCursor(Cursor) error

	TVLSnapshot(id string) (TVLSnapshot, bool, error)
	// SaveTVLSnapshot does nothing if a snapshot with the same id already exists.
	SaveTVLSnapshot(TVLSnapshot) error
}

type Repository interface {
	// Update runs fn inside a single store transaction. Writes made through tx become
	// visible only if fn returns nil.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// LatestBalanceSnapshot will return the snapshot with the highest block number
	LatestBalanceSnapshot() (BalanceSnapshot, bool)
	// LatestTVLSnapshot will return the TVL snapshot with the highest block number
	LatestTVLSnapshot() (TVLSnapshot, bool)
	// VolumeRecordsRange will return volume records from minimum to maximum block numbers
	VolumeRecordsRange(minBlock, maxBlock uint64) ([]VolumeRecord, error)

	Close() error
}
