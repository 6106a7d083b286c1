package repository

import (
	"context"
	"time"

	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BidPackageRepository struct {
	db *gorm.DB
}

func NewBidPackageRepository(db *gorm.DB) *BidPackageRepository {
	return &BidPackageRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *BidPackageRepository) WithTx(tx *gorm.DB) *BidPackageRepository {
	return &BidPackageRepository{db: tx}
}

func (r *BidPackageRepository) Create(ctx context.Context, pkg *domain.BidPackage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(pkg).Error
}

func (r *BidPackageRepository) GetByID(ctx context.Context, id uint) (*domain.BidPackage, error) {
	var pkg domain.BidPackage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// UpdateSettings changes visibility and the active general pricing fields
func (r *BidPackageRepository) UpdateSettings(ctx context.Context, id uint, visibility domain.PackageVisibility, fields domain.GeneralPricingFields) error {
	return r.db.WithContext(ctx).Model(&domain.BidPackage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"visibility":            visibility,
			"active_general_fields": fields,
			"updated_at":            time.Now().UTC(),
		}).Error
}

// SetAward moves the award pointer. A nil bidID clears it together with the timestamp.
func (r *BidPackageRepository) SetAward(ctx context.Context, id uint, bidID *uint, awardedAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.BidPackage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"awarded_bid_id": bidID,
			"awarded_at":     awardedAt,
			"updated_at":     time.Now().UTC(),
		}).Error
}
