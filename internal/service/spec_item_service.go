package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/mapper"
	"github.com/straye-as/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SpecItemService struct {
	packageRepo  *repository.BidPackageRepository
	specItemRepo *repository.SpecItemRepository
	logger       *zap.Logger
	db           *gorm.DB
}

func NewSpecItemService(
	packageRepo *repository.BidPackageRepository,
	specItemRepo *repository.SpecItemRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *SpecItemService {
	return &SpecItemService{
		packageRepo:  packageRepo,
		specItemRepo: specItemRepo,
		logger:       logger,
		db:           db,
	}
}

func (s *SpecItemService) List(ctx context.Context, packageID uint, includeInactive bool) ([]domain.SpecItemDTO, error) {
	if _, err := s.packageRepo.GetByID(ctx, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	items, err := s.specItemRepo.ListByPackage(ctx, packageID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list spec items: %w", err)
	}
	return mapper.ToSpecItemDTOs(items), nil
}

// Remove deletes a spec item that no bid line references. Referenced items are
// deactivated instead so submitted ledgers keep their catalog row.
func (s *SpecItemService) Remove(ctx context.Context, packageID, itemID uint) (*domain.SpecItemRemovalDTO, error) {
	out := &domain.SpecItemRemovalDTO{ID: itemID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.specItemRepo.WithTx(tx)
		if _, err := repo.GetByID(ctx, packageID, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSpecItemNotFound
			}
			return err
		}

		referenced, err := repo.IsReferenced(ctx, itemID)
		if err != nil {
			return err
		}
		if referenced {
			out.Deactivated = true
			return repo.SetActive(ctx, itemID, false)
		}
		out.Deleted = true
		return repo.Delete(ctx, itemID)
	})
	if err != nil {
		if errors.Is(err, ErrSpecItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to remove spec item: %w", err)
	}

	s.logger.Info("Spec item removed",
		zap.Uint("package_id", packageID),
		zap.Uint("spec_item_id", itemID),
		zap.Bool("deleted", out.Deleted),
	)
	return out, nil
}

// Deactivate hides a spec item from dealers and the comparison
func (s *SpecItemService) Deactivate(ctx context.Context, packageID, itemID uint) (*domain.SpecItemDTO, error) {
	return s.setActive(ctx, packageID, itemID, false)
}

// Reactivate restores a deactivated spec item
func (s *SpecItemService) Reactivate(ctx context.Context, packageID, itemID uint) (*domain.SpecItemDTO, error) {
	return s.setActive(ctx, packageID, itemID, true)
}

func (s *SpecItemService) setActive(ctx context.Context, packageID, itemID uint, active bool) (*domain.SpecItemDTO, error) {
	if _, err := s.specItemRepo.GetByID(ctx, packageID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecItemNotFound
		}
		return nil, fmt.Errorf("failed to get spec item: %w", err)
	}

	if err := s.specItemRepo.SetActive(ctx, itemID, active); err != nil {
		return nil, fmt.Errorf("failed to update spec item: %w", err)
	}

	item, err := s.specItemRepo.GetByID(ctx, packageID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload spec item: %w", err)
	}
	dto := mapper.ToSpecItemDTO(item)
	return &dto, nil
}
