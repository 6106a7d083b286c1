package repository

import (
	"context"
	"time"

	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *InviteRepository) WithTx(tx *gorm.DB) *InviteRepository {
	return &InviteRepository{db: tx}
}

func (r *InviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(invite).Error
}

func (r *InviteRepository) GetByID(ctx context.Context, id uint) (*domain.Invite, error) {
	var invite domain.Invite
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// GetByToken resolves a dealer access token, preloading the package
func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	var invite domain.Invite
	err := r.db.WithContext(ctx).
		Preload("BidPackage").
		Where("token = ?", token).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListByPackage returns the package's invites ordered by dealer name
func (r *InviteRepository) ListByPackage(ctx context.Context, packageID uint) ([]domain.Invite, error) {
	var invites []domain.Invite
	err := r.db.WithContext(ctx).
		Where("bid_package_id = ?", packageID).
		Order("dealer_name ASC, id ASC").
		Find(&invites).Error
	return invites, err
}

func (r *InviteRepository) SetDisabled(ctx context.Context, id uint, disabled bool) error {
	return r.db.WithContext(ctx).Model(&domain.Invite{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"disabled": disabled, "updated_at": time.Now().UTC()}).Error
}

func (r *InviteRepository) SetPasswordDigest(ctx context.Context, id uint, digest string) error {
	return r.db.WithContext(ctx).Model(&domain.Invite{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"password_digest": digest, "updated_at": time.Now().UTC()}).Error
}

func (r *InviteRepository) TouchUnlocked(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Invite{}).
		Where("id = ?", id).
		Update("last_unlocked_at", at).Error
}
