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

type PackageService struct {
	packageRepo *repository.BidPackageRepository
	logger      *zap.Logger
}

func NewPackageService(packageRepo *repository.BidPackageRepository, logger *zap.Logger) *PackageService {
	return &PackageService{
		packageRepo: packageRepo,
		logger:      logger,
	}
}

func (s *PackageService) Get(ctx context.Context, id uint) (*domain.BidPackageDTO, error) {
	pkg, err := s.packageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	dto := mapper.ToBidPackageDTO(pkg)
	return &dto, nil
}

// UpdateSettings changes visibility and the active general pricing fields.
// Omitted request fields keep their current value.
func (s *PackageService) UpdateSettings(ctx context.Context, id uint, req *domain.UpdatePackageRequest) (*domain.BidPackageDTO, error) {
	pkg, err := s.packageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	visibility := pkg.Visibility
	if req.Visibility != nil {
		if !req.Visibility.IsValid() {
			return nil, NewValidationError(fmt.Sprintf("Unknown visibility: %s", *req.Visibility))
		}
		visibility = *req.Visibility
	}

	fields := pkg.ActiveGeneralFields
	if req.ActiveGeneralFields != nil {
		fields, err = parseGeneralFields(*req.ActiveGeneralFields)
		if err != nil {
			return nil, err
		}
	}

	if err := s.packageRepo.UpdateSettings(ctx, id, visibility, fields); err != nil {
		return nil, fmt.Errorf("failed to update package: %w", err)
	}

	s.logger.Info("Package settings updated",
		zap.Uint("package_id", id),
		zap.String("visibility", string(visibility)),
		zap.Strings("active_general_fields", generalFieldStrings(fields)),
	)

	return s.Get(ctx, id)
}

// parseGeneralFields validates names and returns them de-duplicated in canonical order
func parseGeneralFields(names []string) (domain.GeneralPricingFields, error) {
	requested := make(map[domain.GeneralPricingField]bool, len(names))
	var messages []string
	for _, name := range names {
		field := domain.GeneralPricingField(name)
		if !field.IsValid() {
			messages = append(messages, fmt.Sprintf("Unknown general pricing field: %s", name))
			continue
		}
		requested[field] = true
	}
	if len(messages) > 0 {
		return nil, NewValidationError(messages...)
	}

	fields := domain.GeneralPricingFields{}
	for _, f := range domain.AllGeneralPricingFields {
		if requested[f] {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func generalFieldStrings(fields domain.GeneralPricingFields) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
