package mapper

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/pricing"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToBidPackageDTO converts BidPackage to BidPackageDTO
func ToBidPackageDTO(pkg *domain.BidPackage) domain.BidPackageDTO {
	return domain.BidPackageDTO{
		ID:                  pkg.ID,
		ProjectID:           pkg.ProjectID,
		Name:                pkg.Name,
		Visibility:          pkg.Visibility,
		ActiveGeneralFields: generalFieldNames(pkg.ActiveGeneralFields),
		AwardedBidID:        pkg.AwardedBidID,
		AwardedAt:           formatTimePtr(pkg.AwardedAt),
		CreatedAt:           formatTime(pkg.CreatedAt),
		UpdatedAt:           formatTime(pkg.UpdatedAt),
	}
}

func generalFieldNames(fields domain.GeneralPricingFields) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, string(f))
	}
	return names
}

// ToImportBatchDTO converts ImportBatch to ImportBatchDTO
func ToImportBatchDTO(batch *domain.ImportBatch) domain.ImportBatchDTO {
	return domain.ImportBatchDTO{
		ID:           batch.ID,
		BidPackageID: batch.BidPackageID,
		Filename:     batch.Filename,
		Profile:      batch.Profile,
		RowCount:     batch.RowCount,
		Archived:     batch.StoragePath != "",
		CreatedAt:    formatTime(batch.CreatedAt),
	}
}

// ToSpecItemDTO converts SpecItem to SpecItemDTO
func ToSpecItemDTO(item *domain.SpecItem) domain.SpecItemDTO {
	return domain.SpecItemDTO{
		ID:           item.ID,
		BidPackageID: item.BidPackageID,
		ExternalID:   item.ExternalID,
		Category:     item.Category,
		Manufacturer: item.Manufacturer,
		ProductName:  item.ProductName,
		SKU:          item.SKU,
		Description:  item.Description,
		Quantity:     item.Quantity,
		UOM:          item.UOM,
		Active:       item.Active,
	}
}

// ToSpecItemDTOs converts a slice of spec items
func ToSpecItemDTOs(items []domain.SpecItem) []domain.SpecItemDTO {
	dtos := make([]domain.SpecItemDTO, len(items))
	for i := range items {
		dtos[i] = ToSpecItemDTO(&items[i])
	}
	return dtos
}

// ToInviteDTO converts Invite to InviteDTO. The password digest is never exposed.
func ToInviteDTO(invite *domain.Invite) domain.InviteDTO {
	return domain.InviteDTO{
		ID:             invite.ID,
		BidPackageID:   invite.BidPackageID,
		DealerName:     invite.DealerName,
		DealerEmail:    invite.DealerEmail,
		Token:          invite.Token,
		Disabled:       invite.Disabled,
		LastUnlockedAt: formatTimePtr(invite.LastUnlockedAt),
		CreatedAt:      formatTime(invite.CreatedAt),
	}
}

// ToBidLineItemDTO converts a ledger line; quantity comes from its spec item when loaded
func ToBidLineItemDTO(line *domain.BidLineItem) domain.BidLineItemDTO {
	net := pricing.NetUnitPrice(line.UnitPrice, line.DiscountPercent, line.TariffPercent)
	dto := domain.BidLineItemDTO{
		ID:                      line.ID,
		SpecItemID:              line.SpecItemID,
		IsSubstitution:          line.IsSubstitution,
		UnitPrice:               line.UnitPrice,
		DiscountPercent:         line.DiscountPercent,
		TariffPercent:           line.TariffPercent,
		NetUnitPrice:            net,
		LeadTime:                line.LeadTime,
		Notes:                   line.Notes,
		SubstitutionProductName: line.SubstitutionProductName,
		SubstitutionBrandName:   line.SubstitutionBrandName,
	}
	if line.SpecItem != nil {
		dto.ExtendedPrice = pricing.ExtendedPrice(net, line.SpecItem.Quantity)
	}
	return dto
}

// ToBidDTO converts a bid with its lines. General pricing is reported for the
// package's active fields only.
func ToBidDTO(bid *domain.Bid, lines []domain.BidLineItem, activeFields domain.GeneralPricingFields, latestTotal decimal.Decimal) domain.BidDTO {
	general := make(map[string]decimal.NullDecimal, len(activeFields))
	for _, f := range activeFields {
		general[string(f)] = bid.GeneralAmount(f)
	}

	lineDTOs := make([]domain.BidLineItemDTO, len(lines))
	for i := range lines {
		lineDTOs[i] = ToBidLineItemDTO(&lines[i])
	}

	dto := domain.BidDTO{
		ID:                  bid.ID,
		BidPackageID:        bid.BidPackageID,
		InviteID:            bid.InviteID,
		State:               bid.State,
		SelectionStatus:     bid.SelectionStatus,
		SubmittedAt:         formatTimePtr(bid.SubmittedAt),
		ActiveGeneralFields: generalFieldNames(activeFields),
		GeneralPricing:      general,
		LineItems:           lineDTOs,
		LatestTotalAmount:   latestTotal,
	}
	if bid.Invite != nil {
		dto.DealerName = bid.Invite.DealerName
	}
	return dto
}

// ToSubmissionVersionDTO converts a stored version, decoding its snapshot
func ToSubmissionVersionDTO(version *domain.BidSubmissionVersion) (domain.SubmissionVersionDTO, error) {
	lines := []domain.SubmissionLineSnapshot{}
	if len(version.LineItems) > 0 {
		if err := json.Unmarshal(version.LineItems, &lines); err != nil {
			return domain.SubmissionVersionDTO{}, err
		}
	}
	return domain.SubmissionVersionDTO{
		ID:            version.ID,
		BidID:         version.BidID,
		VersionNumber: version.VersionNumber,
		SubmittedAt:   formatTime(version.SubmittedAt),
		TotalAmount:   version.TotalAmount,
		LineItems:     lines,
	}, nil
}

// ToAwardEventDTO converts BidAwardEvent to AwardEventDTO
func ToAwardEventDTO(event *domain.BidAwardEvent) domain.AwardEventDTO {
	snapshot := json.RawMessage(event.ComparisonSnapshot)
	if len(snapshot) == 0 {
		snapshot = json.RawMessage("{}")
	}
	return domain.AwardEventDTO{
		ID:                    event.ID,
		BidPackageID:          event.BidPackageID,
		EventType:             event.EventType,
		FromBidID:             event.FromBidID,
		ToBidID:               event.ToBidID,
		AwardedAmountSnapshot: event.AwardedAmountSnapshot,
		AwardedBy:             event.AwardedBy,
		Note:                  event.Note,
		AwardedAt:             formatTime(event.AwardedAt),
		ComparisonSnapshot:    snapshot,
	}
}

// ToAwardEventDTOs converts a slice of award events
func ToAwardEventDTOs(events []domain.BidAwardEvent) []domain.AwardEventDTO {
	dtos := make([]domain.AwardEventDTO, len(events))
	for i := range events {
		dtos[i] = ToAwardEventDTO(&events[i])
	}
	return dtos
}
