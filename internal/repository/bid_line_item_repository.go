package repository

import (
	"context"
	"errors"
	"time"

	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BidLineItemRepository struct {
	db *gorm.DB
}

func NewBidLineItemRepository(db *gorm.DB) *BidLineItemRepository {
	return &BidLineItemRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *BidLineItemRepository) WithTx(tx *gorm.DB) *BidLineItemRepository {
	return &BidLineItemRepository{db: tx}
}

// ListByBid returns the bid's lines with their spec items, ordered by spec item then substitution flag
func (r *BidLineItemRepository) ListByBid(ctx context.Context, bidID uint) ([]domain.BidLineItem, error) {
	var lines []domain.BidLineItem
	err := r.db.WithContext(ctx).
		Preload("SpecItem").
		Where("bid_id = ?", bidID).
		Order("spec_item_id ASC, is_substitution ASC").
		Find(&lines).Error
	return lines, err
}

// Upsert writes line, keyed by (bid, spec item, substitution flag).
// line.ID is set to the stored row's id.
func (r *BidLineItemRepository) Upsert(ctx context.Context, line *domain.BidLineItem) error {
	var existing domain.BidLineItem
	err := r.db.WithContext(ctx).
		Where("bid_id = ? AND spec_item_id = ? AND is_substitution = ?", line.BidID, line.SpecItemID, line.IsSubstitution).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error
	}
	if err != nil {
		return err
	}

	line.ID = existing.ID
	line.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Model(&domain.BidLineItem{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"unit_price":                line.UnitPrice,
			"discount_percent":          line.DiscountPercent,
			"tariff_percent":            line.TariffPercent,
			"lead_time":                 line.LeadTime,
			"notes":                     line.Notes,
			"substitution_product_name": line.SubstitutionProductName,
			"substitution_brand_name":   line.SubstitutionBrandName,
			"updated_at":                time.Now().UTC(),
		}).Error
}

// DeleteExcept removes the bid's lines whose ids are not in keep
func (r *BidLineItemRepository) DeleteExcept(ctx context.Context, bidID uint, keep []uint) error {
	query := r.db.WithContext(ctx).Where("bid_id = ?", bidID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	return query.Delete(&domain.BidLineItem{}).Error
}
