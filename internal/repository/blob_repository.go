package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telofy/internal/model"
)

// BlobRepository persists store snapshots as key/value rows. It satisfies
// store.Persistence.
type BlobRepository struct {
	db *gorm.DB
}

func NewBlobRepository(db *gorm.DB) *BlobRepository {
	return &BlobRepository{db: db}
}

// Load returns the blob saved under key, or nil when nothing was saved yet.
func (r *BlobRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var blob model.Blob
	err := r.db.WithContext(ctx).Where("name = ?", key).First(&blob).Error
	switch {
	case err == nil:
		return blob.Data, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find blob %s: %w", key, err)
	}
}

// Save inserts or replaces the blob under key.
func (r *BlobRepository) Save(ctx context.Context, key string, data []byte) error {
	blob := model.Blob{Name: key, Data: data}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&blob).Error
	if err != nil {
		return fmt.Errorf("save blob %s: %w", key, err)
	}
	return nil
}

// Keys lists every saved key, sorted.
func (r *BlobRepository) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&model.Blob{}).Order("name ASC").Pluck("name", &keys).Error; err != nil {
		return nil, fmt.Errorf("list blob keys: %w", err)
	}
	return keys, nil
}
