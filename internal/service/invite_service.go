package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/mapper"
	"github.com/straye-as/procurement-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type InviteService struct {
	packageRepo *repository.BidPackageRepository
	inviteRepo  *repository.InviteRepository
	bcryptCost  int
	logger      *zap.Logger
}

func NewInviteService(
	packageRepo *repository.BidPackageRepository,
	inviteRepo *repository.InviteRepository,
	logger *zap.Logger,
) *InviteService {
	return &InviteService{
		packageRepo: packageRepo,
		inviteRepo:  inviteRepo,
		bcryptCost:  bcrypt.DefaultCost,
		logger:      logger,
	}
}

// WithBcryptCost overrides the hashing cost
func (s *InviteService) WithBcryptCost(cost int) *InviteService {
	s.bcryptCost = cost
	return s
}

// newAccessToken returns an unguessable 32 character hex token
func newAccessToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Create invites a dealer to a package
func (s *InviteService) Create(ctx context.Context, packageID uint, req *domain.CreateInviteRequest) (*domain.InviteDTO, error) {
	if _, err := s.packageRepo.GetByID(ctx, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	invite := &domain.Invite{
		BidPackageID:   packageID,
		DealerName:     strings.TrimSpace(req.DealerName),
		DealerEmail:    strings.TrimSpace(req.DealerEmail),
		PasswordDigest: string(digest),
		Token:          newAccessToken(),
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, asValidationError(fmt.Errorf("failed to create invite: %w", err), "Invite could not be created")
	}

	s.logger.Info("Dealer invited",
		zap.Uint("package_id", packageID),
		zap.Uint("invite_id", invite.ID),
		zap.String("dealer_name", invite.DealerName),
	)

	dto := mapper.ToInviteDTO(invite)
	return &dto, nil
}

// List returns the package's invites
func (s *InviteService) List(ctx context.Context, packageID uint) ([]domain.InviteDTO, error) {
	if _, err := s.packageRepo.GetByID(ctx, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	invites, err := s.inviteRepo.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	dtos := make([]domain.InviteDTO, len(invites))
	for i := range invites {
		dtos[i] = mapper.ToInviteDTO(&invites[i])
	}
	return dtos, nil
}

// SetDisabled enables or disables an invite
func (s *InviteService) SetDisabled(ctx context.Context, inviteID uint, disabled bool) (*domain.InviteDTO, error) {
	if _, err := s.inviteRepo.GetByID(ctx, inviteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}

	if err := s.inviteRepo.SetDisabled(ctx, inviteID, disabled); err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}

	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invite: %w", err)
	}

	s.logger.Info("Invite access changed",
		zap.Uint("invite_id", inviteID),
		zap.Bool("disabled", disabled),
	)

	dto := mapper.ToInviteDTO(invite)
	return &dto, nil
}

// Unlock verifies the dealer password for a token and stamps the unlock time
func (s *InviteService) Unlock(ctx context.Context, token, password string) (*domain.InviteDTO, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	if invite.Disabled {
		return nil, ErrInviteDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(invite.PasswordDigest), []byte(password)); err != nil {
		s.logger.Warn("Dealer unlock rejected", zap.Uint("invite_id", invite.ID))
		return nil, ErrUnauthorized
	}

	now := time.Now().UTC()
	if err := s.inviteRepo.TouchUnlocked(ctx, invite.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record unlock: %w", err)
	}
	invite.LastUnlockedAt = &now

	dto := mapper.ToInviteDTO(invite)
	return &dto, nil
}

// ChangePassword replaces the dealer password of an invite
func (s *InviteService) ChangePassword(ctx context.Context, inviteID uint, password string) (*domain.InviteDTO, error) {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.inviteRepo.SetPasswordDigest(ctx, inviteID, string(digest)); err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}

	s.logger.Info("Invite password changed", zap.Uint("invite_id", inviteID))

	dto := mapper.ToInviteDTO(invite)
	return &dto, nil
}
