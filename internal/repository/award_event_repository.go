package repository

import (
	"context"

	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
)

type AwardEventRepository struct {
	db *gorm.DB
}

func NewAwardEventRepository(db *gorm.DB) *AwardEventRepository {
	return &AwardEventRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AwardEventRepository) WithTx(tx *gorm.DB) *AwardEventRepository {
	return &AwardEventRepository{db: tx}
}

func (r *AwardEventRepository) Create(ctx context.Context, event *domain.BidAwardEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByPackage returns the package's award trail, newest first
func (r *AwardEventRepository) ListByPackage(ctx context.Context, packageID uint) ([]domain.BidAwardEvent, error) {
	var events []domain.BidAwardEvent
	err := r.db.WithContext(ctx).
		Where("bid_package_id = ?", packageID).
		Order("awarded_at DESC, id DESC").
		Find(&events).Error
	return events, err
}
