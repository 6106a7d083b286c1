package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/straye-as/procurement-api/internal/comparison"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ComparisonService builds the dealer price matrix from the live ledger on every call
type ComparisonService struct {
	packageRepo    *repository.BidPackageRepository
	comparisonRepo *repository.ComparisonRepository
	logger         *zap.Logger
}

func NewComparisonService(
	packageRepo *repository.BidPackageRepository,
	comparisonRepo *repository.ComparisonRepository,
	logger *zap.Logger,
) *ComparisonService {
	return &ComparisonService{
		packageRepo:    packageRepo,
		comparisonRepo: comparisonRepo,
		logger:         logger,
	}
}

// Compare returns the matrix of submitted bids over the package's active catalog
func (s *ComparisonService) Compare(ctx context.Context, packageID uint, opts comparison.Options) (*comparison.Result, error) {
	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	input, err := loadComparisonInput(ctx, s.comparisonRepo, pkg)
	if err != nil {
		return nil, err
	}

	result := comparison.Build(input, opts)

	s.logger.Debug("Comparison built",
		zap.Uint("package_id", packageID),
		zap.Int("dealers", len(result.Dealers)),
		zap.Int("rows", len(result.Rows)),
	)
	return &result, nil
}

func loadComparisonInput(ctx context.Context, repo *repository.ComparisonRepository, pkg *domain.BidPackage) (comparison.Input, error) {
	dealerRows, err := repo.SubmittedDealers(ctx, pkg.ID)
	if err != nil {
		return comparison.Input{}, fmt.Errorf("failed to load dealers: %w", err)
	}
	items, err := repo.ActiveItems(ctx, pkg.ID)
	if err != nil {
		return comparison.Input{}, fmt.Errorf("failed to load spec items: %w", err)
	}
	ledger, err := repo.SubmittedLedger(ctx, pkg.ID)
	if err != nil {
		return comparison.Input{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	input := comparison.Input{
		Items:               make([]comparison.Item, len(items)),
		Dealers:             make([]comparison.Dealer, len(dealerRows)),
		Lines:               make([]comparison.Line, len(ledger)),
		ActiveGeneralFields: pkg.ActiveGeneralFields,
	}
	for i, item := range items {
		input.Items[i] = comparison.Item{
			ID:           item.ID,
			ExternalID:   item.ExternalID,
			Category:     item.Category,
			Manufacturer: item.Manufacturer,
			ProductName:  item.ProductName,
			SKU:          item.SKU,
			Description:  item.Description,
			Quantity:     item.Quantity,
			UOM:          item.UOM,
		}
	}
	for i, d := range dealerRows {
		input.Dealers[i] = comparison.Dealer{
			BidID:          d.BidID,
			DealerName:     d.DealerName,
			GeneralAmounts: d.GeneralAmounts(),
		}
	}
	for i, l := range ledger {
		input.Lines[i] = comparison.Line{
			BidID:                   l.BidID,
			SpecItemID:              l.SpecItemID,
			IsSubstitution:          l.IsSubstitution,
			UnitPrice:               l.UnitPrice,
			DiscountPercent:         l.DiscountPercent,
			TariffPercent:           l.TariffPercent,
			SubstitutionProductName: l.SubstitutionProductName,
			SubstitutionBrandName:   l.SubstitutionBrandName,
		}
	}
	return input, nil
}
