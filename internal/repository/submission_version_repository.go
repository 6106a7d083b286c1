package repository

import (
	"context"

	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
)

type SubmissionVersionRepository struct {
	db *gorm.DB
}

func NewSubmissionVersionRepository(db *gorm.DB) *SubmissionVersionRepository {
	return &SubmissionVersionRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SubmissionVersionRepository) WithTx(tx *gorm.DB) *SubmissionVersionRepository {
	return &SubmissionVersionRepository{db: tx}
}

func (r *SubmissionVersionRepository) Create(ctx context.Context, version *domain.BidSubmissionVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

// MaxVersion returns the highest version number of a bid, or 0
func (r *SubmissionVersionRepository) MaxVersion(ctx context.Context, bidID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&domain.BidSubmissionVersion{}).
		Where("bid_id = ?", bidID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	return max, err
}

// Latest returns the most recent version of a bid
func (r *SubmissionVersionRepository) Latest(ctx context.Context, bidID uint) (*domain.BidSubmissionVersion, error) {
	var version domain.BidSubmissionVersion
	err := r.db.WithContext(ctx).
		Where("bid_id = ?", bidID).
		Order("version_number DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// ListByBid returns all versions of a bid, newest first
func (r *SubmissionVersionRepository) ListByBid(ctx context.Context, bidID uint) ([]domain.BidSubmissionVersion, error) {
	var versions []domain.BidSubmissionVersion
	err := r.db.WithContext(ctx).
		Where("bid_id = ?", bidID).
		Order("version_number DESC").
		Find(&versions).Error
	return versions, err
}
