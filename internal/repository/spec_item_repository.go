package repository

import (
	"context"
	"time"

	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const specItemBatchSize = 200

type SpecItemRepository struct {
	db *gorm.DB
}

func NewSpecItemRepository(db *gorm.DB) *SpecItemRepository {
	return &SpecItemRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SpecItemRepository) WithTx(tx *gorm.DB) *SpecItemRepository {
	return &SpecItemRepository{db: tx}
}

// CreateBatch inserts items in chunks
func (r *SpecItemRepository) CreateBatch(ctx context.Context, items []domain.SpecItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&items, specItemBatchSize).Error
}

// GetByID returns a spec item scoped to its package
func (r *SpecItemRepository) GetByID(ctx context.Context, packageID, id uint) (*domain.SpecItem, error) {
	var item domain.SpecItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND bid_package_id = ?", id, packageID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByPackage returns the package's catalog ordered by id
func (r *SpecItemRepository) ListByPackage(ctx context.Context, packageID uint, includeInactive bool) ([]domain.SpecItem, error) {
	var items []domain.SpecItem
	query := r.db.WithContext(ctx).Where("bid_package_id = ?", packageID)
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	err := query.Order("id ASC").Find(&items).Error
	return items, err
}

// ExternalIDs returns every external id already used in the package, active or not
func (r *SpecItemRepository) ExternalIDs(ctx context.Context, packageID uint) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.SpecItem{}).
		Where("bid_package_id = ?", packageID).
		Pluck("external_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ActiveByIDs loads the active items of a package among ids, keyed by id
func (r *SpecItemRepository) ActiveByIDs(ctx context.Context, packageID uint, ids []uint) (map[uint]domain.SpecItem, error) {
	result := make(map[uint]domain.SpecItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var items []domain.SpecItem
	err := r.db.WithContext(ctx).
		Where("bid_package_id = ? AND active = ? AND id IN ?", packageID, true, ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		result[item.ID] = item
	}
	return result, nil
}

// SetActive flips the active flag
func (r *SpecItemRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).Model(&domain.SpecItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"active": active, "updated_at": time.Now().UTC()}).Error
}

// IsReferenced reports whether any ledger line points at the item
func (r *SpecItemRepository) IsReferenced(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.BidLineItem{}).
		Where("spec_item_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *SpecItemRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.SpecItem{}, "id = ?", id).Error
}
