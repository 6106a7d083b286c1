package repository

import (
	"context"

	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
)

type ImportBatchRepository struct {
	db *gorm.DB
}

func NewImportBatchRepository(db *gorm.DB) *ImportBatchRepository {
	return &ImportBatchRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ImportBatchRepository) WithTx(tx *gorm.DB) *ImportBatchRepository {
	return &ImportBatchRepository{db: tx}
}

func (r *ImportBatchRepository) Create(ctx context.Context, batch *domain.ImportBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// ListByPackage returns the package's import history, oldest first
func (r *ImportBatchRepository) ListByPackage(ctx context.Context, packageID uint) ([]domain.ImportBatch, error) {
	var batches []domain.ImportBatch
	err := r.db.WithContext(ctx).
		Where("bid_package_id = ?", packageID).
		Order("id ASC").
		Find(&batches).Error
	return batches, err
}
