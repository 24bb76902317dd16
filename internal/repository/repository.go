package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"gorm.io/gorm"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	logger *slog.Logger
	dbCon  *gorm.DB
}

func New(db *gorm.DB, logger *slog.Logger) (*Repository, error) {
	ret := &Repository{
		logger: logger,
		dbCon:  db,
	}

	// Create tables for data structures (if table already exists it will not be overwritten)
	err := db.AutoMigrate(&BalanceSnapshot{})
	if err != nil {
		return nil, fmt.Errorf("BalanceSnapshot table migrate error: %w", err)
	}
	err = db.AutoMigrate(&VolumeRecord{})
	if err != nil {
		return nil, fmt.Errorf("VolumeRecord table migrate error: %w", err)
	}
	err = db.AutoMigrate(&Cursor{})
	if err != nil {
		return nil, fmt.Errorf("Cursor table migrate error: %w", err)
	}
	err = db.AutoMigrate(&TVLSnapshot{})
	if err != nil {
		return nil, fmt.Errorf("TVLSnapshot table migrate error: %w", err)
	}
	return ret, nil
}

// Update runs fn inside a database transaction. The transaction is rolled back if fn fails.
func (r *Repository) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	return r.dbCon.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&txn{db: db})
	})
}

func (r *Repository) Close() error {
	sqlDB, err := r.dbCon.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// txn implements repository.Tx on top of a gorm transaction.
type txn struct {
	db *gorm.DB
}
