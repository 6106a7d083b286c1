package repository

import (
	"context"
	"time"

	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *BidRepository) WithTx(tx *gorm.DB) *BidRepository {
	return &BidRepository{db: tx}
}

func (r *BidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(bid).Error
}

func (r *BidRepository) GetByID(ctx context.Context, id uint) (*domain.Bid, error) {
	var bid domain.Bid
	err := r.db.WithContext(ctx).
		Preload("Invite").
		Where("id = ?", id).
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *BidRepository) GetByInviteID(ctx context.Context, inviteID uint) (*domain.Bid, error) {
	var bid domain.Bid
	err := r.db.WithContext(ctx).Where("invite_id = ?", inviteID).First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListByPackage returns every bid of a package with its invite
func (r *BidRepository) ListByPackage(ctx context.Context, packageID uint) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := r.db.WithContext(ctx).
		Preload("Invite").
		Where("bid_package_id = ?", packageID).
		Order("id ASC").
		Find(&bids).Error
	return bids, err
}

// UpdateDraftFields applies column updates only while the bid is a draft.
// It reports false when the bid was not in draft state and nothing changed.
func (r *BidRepository) UpdateDraftFields(ctx context.Context, id uint, fields map[string]interface{}) (bool, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("id = ? AND state = ?", id, domain.BidStateDraft).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkSubmitted flips draft to submitted. It reports false when the bid was not a draft.
func (r *BidRepository) MarkSubmitted(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("id = ? AND state = ?", id, domain.BidStateDraft).
		Updates(map[string]interface{}{
			"state":        domain.BidStateSubmitted,
			"submitted_at": at,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Reopen flips submitted back to draft. It reports false when the bid was not submitted.
func (r *BidRepository) Reopen(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("id = ? AND state = ?", id, domain.BidStateSubmitted).
		Updates(map[string]interface{}{
			"state":      domain.BidStateDraft,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetSelectionStatusForPackage sets selection_status on every bid of a package
func (r *BidRepository) SetSelectionStatusForPackage(ctx context.Context, packageID uint, status domain.SelectionStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("bid_package_id = ?", packageID).
		Update("selection_status", status).Error
}

// SetSelectionStatus sets selection_status on one bid
func (r *BidRepository) SetSelectionStatus(ctx context.Context, id uint, status domain.SelectionStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("id = ?", id).
		Update("selection_status", status).Error
}
