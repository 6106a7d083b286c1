package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/pricing"
	"github.com/straye-as/procurement-api/internal/repository"
	"gorm.io/gorm"
)

// BuildSnapshot denormalizes ledger lines for a submission version.
// Lines must have their SpecItem loaded.
func BuildSnapshot(lines []domain.BidLineItem) []domain.SubmissionLineSnapshot {
	snapshot := make([]domain.SubmissionLineSnapshot, 0, len(lines))
	for _, line := range lines {
		item := line.SpecItem
		if item == nil {
			item = &domain.SpecItem{}
		}

		productName := item.ProductName
		if line.SubstitutionProductName != "" {
			productName = line.SubstitutionProductName
		}
		brandName := item.Manufacturer
		if line.SubstitutionBrandName != "" {
			brandName = line.SubstitutionBrandName
		}

		net := pricing.NetUnitPrice(line.UnitPrice, line.DiscountPercent, line.TariffPercent)
		snapshot = append(snapshot, domain.SubmissionLineSnapshot{
			SpecItemID:      line.SpecItemID,
			Code:            item.ExternalID,
			ProductName:     productName,
			BrandName:       brandName,
			Quantity:        item.Quantity.String(),
			UOM:             item.UOM,
			IsSubstitution:  line.IsSubstitution,
			UnitListPrice:   pricing.Text(line.UnitPrice),
			DiscountPercent: pricing.Text(line.DiscountPercent),
			TariffPercent:   pricing.Text(line.TariffPercent),
			UnitNetPrice:    pricing.Text(net),
			ExtendedPrice:   pricing.Text(pricing.ExtendedPrice(net, item.Quantity)),
			LeadTime:        line.LeadTime,
			Notes:           line.Notes,
		})
	}
	return snapshot
}

// ComputeTotal sums extended prices (nulls count as zero) plus the bid's
// general pricing amounts for the package's active fields only.
func ComputeTotal(lines []domain.BidLineItem, bid *domain.Bid, activeFields domain.GeneralPricingFields) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.SpecItem == nil {
			continue
		}
		net := pricing.NetUnitPrice(line.UnitPrice, line.DiscountPercent, line.TariffPercent)
		if ext := pricing.ExtendedPrice(net, line.SpecItem.Quantity); ext.Valid {
			total = total.Add(ext.Decimal)
		}
	}
	for _, field := range activeFields {
		if amount := bid.GeneralAmount(field); amount.Valid {
			total = total.Add(amount.Decimal)
		}
	}
	return pricing.Round4(total)
}

// latestTotalAmount returns the newest submission's stored total, or a live
// estimate from the current ledger when the bid was never submitted
func latestTotalAmount(
	ctx context.Context,
	versionRepo *repository.SubmissionVersionRepository,
	lineRepo *repository.BidLineItemRepository,
	bid *domain.Bid,
	activeFields domain.GeneralPricingFields,
) (decimal.Decimal, error) {
	latest, err := versionRepo.Latest(ctx, bid.ID)
	if err == nil {
		return latest.TotalAmount, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	lines, err := lineRepo.ListByBid(ctx, bid.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeTotal(lines, bid, activeFields), nil
}
