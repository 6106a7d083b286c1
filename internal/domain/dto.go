package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DTOs for API requests and responses

// Catalog imports

type PreviewImportRequest struct {
	Profile string `json:"profile,omitempty" validate:"max=50"`
	Content string `json:"content" validate:"required"`
}

type CommitImportRequest struct {
	PackageName string            `json:"packageName" validate:"required,max=200"`
	Visibility  PackageVisibility `json:"visibility,omitempty" validate:"omitempty,oneof=private public"`
	Filename    string            `json:"filename,omitempty" validate:"max=255"`
	Profile     string            `json:"profile,omitempty" validate:"max=50"`
	Content     string            `json:"content" validate:"required"`
}

type AppendImportRequest struct {
	Filename string `json:"filename,omitempty" validate:"max=255"`
	Profile  string `json:"profile,omitempty" validate:"max=50"`
	Content  string `json:"content" validate:"required"`
}

// ImportResultDTO describes one committed import
type ImportResultDTO struct {
	Package       BidPackageDTO `json:"package"`
	ImportBatchID uint          `json:"importBatchId"`
	Profile       string        `json:"profile"`
	ImportedCount int           `json:"importedCount"`
	// RenamedIDs maps original external ids to the ids they were stored under
	RenamedIDs map[string]string `json:"renamedIds,omitempty"`
}

// ImportBatchDTO describes a past import of a package
type ImportBatchDTO struct {
	ID           uint   `json:"id"`
	BidPackageID uint   `json:"bidPackageId"`
	Filename     string `json:"filename"`
	Profile      string `json:"profile"`
	RowCount     int    `json:"rowCount"`
	Archived     bool   `json:"archived"`
	CreatedAt    string `json:"createdAt"` // ISO 8601
}

// Packages and catalog

type BidPackageDTO struct {
	ID                  uint              `json:"id"`
	ProjectID           uint              `json:"projectId"`
	Name                string            `json:"name"`
	Visibility          PackageVisibility `json:"visibility"`
	ActiveGeneralFields []string          `json:"activeGeneralFields"`
	AwardedBidID        *uint             `json:"awardedBidId"`
	AwardedAt           *string           `json:"awardedAt"` // ISO 8601
	CreatedAt           string            `json:"createdAt"` // ISO 8601
	UpdatedAt           string            `json:"updatedAt"` // ISO 8601
}

type UpdatePackageRequest struct {
	Visibility          *PackageVisibility `json:"visibility,omitempty" validate:"omitempty,oneof=private public"`
	ActiveGeneralFields *[]string          `json:"activeGeneralFields,omitempty"`
}

type SpecItemDTO struct {
	ID           uint            `json:"id"`
	BidPackageID uint            `json:"bidPackageId"`
	ExternalID   string          `json:"externalId"`
	Category     string          `json:"category"`
	Manufacturer string          `json:"manufacturer"`
	ProductName  string          `json:"productName"`
	SKU          string          `json:"sku"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UOM          string          `json:"uom"`
	Active       bool            `json:"active"`
}

// SpecItemRemovalDTO reports whether a removed item was deleted or only deactivated
type SpecItemRemovalDTO struct {
	ID          uint `json:"id"`
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}

// Invites

type CreateInviteRequest struct {
	DealerName  string `json:"dealerName" validate:"required,max=200"`
	DealerEmail string `json:"dealerEmail,omitempty" validate:"omitempty,email,max=255"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
}

type UnlockRequest struct {
	Password string `json:"password" validate:"required,max=72"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type InviteDTO struct {
	ID             uint    `json:"id"`
	BidPackageID   uint    `json:"bidPackageId"`
	DealerName     string  `json:"dealerName"`
	DealerEmail    string  `json:"dealerEmail,omitempty"`
	Token          string  `json:"token"`
	Disabled       bool    `json:"disabled"`
	LastUnlockedAt *string `json:"lastUnlockedAt"` // ISO 8601
	CreatedAt      string  `json:"createdAt"`      // ISO 8601
}

// Bids

type SaveBidLineRequest struct {
	SpecItemID              uint             `json:"specItemId" validate:"required"`
	IsSubstitution          bool             `json:"isSubstitution"`
	UnitPrice               *decimal.Decimal `json:"unitPrice,omitempty"`
	DiscountPercent         *decimal.Decimal `json:"discountPercent,omitempty"`
	TariffPercent           *decimal.Decimal `json:"tariffPercent,omitempty"`
	LeadTime                string           `json:"leadTime,omitempty" validate:"max=100"`
	Notes                   string           `json:"notes,omitempty" validate:"max=2000"`
	SubstitutionProductName string           `json:"substitutionProductName,omitempty" validate:"max=500"`
	SubstitutionBrandName   string           `json:"substitutionBrandName,omitempty" validate:"max=255"`
}

// SaveBidRequest replaces a draft bid's ledger. Lines missing from LineItems are deleted.
// GeneralPricing keys are general pricing field names; a null value clears the amount.
type SaveBidRequest struct {
	GeneralPricing map[string]decimal.NullDecimal `json:"generalPricing,omitempty"`
	LineItems      []SaveBidLineRequest           `json:"lineItems" validate:"dive"`
}

type BidLineItemDTO struct {
	ID                      uint                `json:"id"`
	SpecItemID              uint                `json:"specItemId"`
	IsSubstitution          bool                `json:"isSubstitution"`
	UnitPrice               decimal.NullDecimal `json:"unitPrice"`
	DiscountPercent         decimal.NullDecimal `json:"discountPercent"`
	TariffPercent           decimal.NullDecimal `json:"tariffPercent"`
	NetUnitPrice            decimal.NullDecimal `json:"netUnitPrice"`
	ExtendedPrice           decimal.NullDecimal `json:"extendedPrice"`
	LeadTime                string              `json:"leadTime"`
	Notes                   string              `json:"notes"`
	SubstitutionProductName string              `json:"substitutionProductName"`
	SubstitutionBrandName   string              `json:"substitutionBrandName"`
}

type BidDTO struct {
	ID                  uint                           `json:"id"`
	BidPackageID        uint                           `json:"bidPackageId"`
	InviteID            uint                           `json:"inviteId"`
	DealerName          string                         `json:"dealerName,omitempty"`
	State               BidState                       `json:"state"`
	SelectionStatus     SelectionStatus                `json:"selectionStatus"`
	SubmittedAt         *string                        `json:"submittedAt"` // ISO 8601
	ActiveGeneralFields []string                       `json:"activeGeneralFields"`
	GeneralPricing      map[string]decimal.NullDecimal `json:"generalPricing"`
	LineItems           []BidLineItemDTO               `json:"lineItems"`
	LatestTotalAmount   decimal.Decimal                `json:"latestTotalAmount"`
}

// SubmissionLineSnapshot is one denormalized ledger line frozen at submit time
type SubmissionLineSnapshot struct {
	SpecItemID      uint    `json:"specItemId"`
	Code            string  `json:"code"`
	ProductName     string  `json:"productName"`
	BrandName       string  `json:"brandName"`
	Quantity        string  `json:"quantity"`
	UOM             string  `json:"uom"`
	IsSubstitution  bool    `json:"isSubstitution"`
	UnitListPrice   *string `json:"unitListPrice"`
	DiscountPercent *string `json:"discountPercent"`
	TariffPercent   *string `json:"tariffPercent"`
	UnitNetPrice    *string `json:"unitNetPrice"`
	ExtendedPrice   *string `json:"extendedPrice"`
	LeadTime        string  `json:"leadTime"`
	Notes           string  `json:"notes"`
}

type SubmissionVersionDTO struct {
	ID            uint                     `json:"id"`
	BidID         uint                     `json:"bidId"`
	VersionNumber int                      `json:"versionNumber"`
	SubmittedAt   string                   `json:"submittedAt"` // ISO 8601
	TotalAmount   decimal.Decimal          `json:"totalAmount"`
	LineItems     []SubmissionLineSnapshot `json:"lineItems"`
}

// Awards

// AwardRequest drives award, reaward and clear-award. BidID is ignored when clearing.
// The comparison context fields are stored on the event after normalization and
// tolerate malformed content.
type AwardRequest struct {
	BidID                  uint             `json:"bidId,omitempty"`
	AwardedBy              string           `json:"awardedBy" validate:"max=200"`
	Note                   string           `json:"note,omitempty" validate:"max=2000"`
	AwardedAmountOverride  *decimal.Decimal `json:"awardedAmountOverride,omitempty"`
	ExcludedSpecItemIDs    json.RawMessage  `json:"excludedSpecItemIds,omitempty" swaggertype:"array,integer"`
	CellPriceModeOverrides json.RawMessage  `json:"cellPriceModeOverrides,omitempty" swaggertype:"object"`
}

type AwardEventDTO struct {
	ID                    uint            `json:"id"`
	BidPackageID          uint            `json:"bidPackageId"`
	EventType             AwardEventType  `json:"eventType"`
	FromBidID             *uint           `json:"fromBidId"`
	ToBidID               uint            `json:"toBidId"`
	AwardedAmountSnapshot decimal.Decimal `json:"awardedAmountSnapshot"`
	AwardedBy             string          `json:"awardedBy"`
	Note                  string          `json:"note,omitempty"`
	AwardedAt             string          `json:"awardedAt"` // ISO 8601
	ComparisonSnapshot    json.RawMessage `json:"comparisonSnapshot"`
}

// AwardOutcomeDTO is the result of a successful award transition
type AwardOutcomeDTO struct {
	Package BidPackageDTO `json:"package"`
	Event   AwardEventDTO `json:"event"`
}
