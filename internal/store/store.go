// Package store provides database access for the peer's transfer history.
package store

import (
	"github.com/glebarez/sqlite"
	"github.com/rudransh-shrivastava/peer-index/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&schema.Transfer{}); err != nil {
		return nil, err
	}
	return db, nil
}

type TransferStore struct {
	DB *gorm.DB
}

func NewTransferStore(db *gorm.DB) *TransferStore {
	return &TransferStore{DB: db}
}

func (ts *TransferStore) Record(t *schema.Transfer) error {
	return ts.DB.Create(t).Error
}

// Recent returns the latest transfers, newest first.
func (ts *TransferStore) Recent(limit int) ([]schema.Transfer, error) {
	var transfers []schema.Transfer
	err := ts.DB.Order("id DESC").Limit(limit).Find(&transfers).Error
	return transfers, err
}
