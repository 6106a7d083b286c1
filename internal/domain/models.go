package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Project groups bid packages. Projects are managed outside the engine; only the id and name are needed here.
type Project struct {
	BaseModel
	Name     string       `gorm:"type:varchar(200);not null"`
	Packages []BidPackage `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// PackageVisibility controls whether a bid package is listed to dealers
type PackageVisibility string

const (
	PackageVisibilityPrivate PackageVisibility = "private"
	PackageVisibilityPublic  PackageVisibility = "public"
)

// IsValid reports whether v is a known visibility
func (v PackageVisibility) IsValid() bool {
	return v == PackageVisibilityPrivate || v == PackageVisibilityPublic
}

// GeneralPricingField names one of the package-level amounts a dealer can quote on top of line items
type GeneralPricingField string

const (
	GeneralPricingDelivery    GeneralPricingField = "delivery"
	GeneralPricingInstall     GeneralPricingField = "install"
	GeneralPricingEscalation  GeneralPricingField = "escalation"
	GeneralPricingContingency GeneralPricingField = "contingency"
	GeneralPricingSalesTax    GeneralPricingField = "sales_tax"
)

// AllGeneralPricingFields lists every general pricing field in display order
var AllGeneralPricingFields = []GeneralPricingField{
	GeneralPricingDelivery,
	GeneralPricingInstall,
	GeneralPricingEscalation,
	GeneralPricingContingency,
	GeneralPricingSalesTax,
}

// IsValid reports whether f is a known general pricing field
func (f GeneralPricingField) IsValid() bool {
	for _, known := range AllGeneralPricingFields {
		if f == known {
			return true
		}
	}
	return false
}

// GeneralPricingFields is the set of general pricing fields active on a package,
// stored as a JSON array.
type GeneralPricingFields []GeneralPricingField

// Contains reports whether the set contains f
func (s GeneralPricingFields) Contains(f GeneralPricingField) bool {
	for _, field := range s {
		if field == f {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer
func (s GeneralPricingFields) Value() (driver.Value, error) {
	if s == nil {
		s = GeneralPricingFields{}
	}
	v, err := datatypes.JSONSlice[GeneralPricingField](s).Value()
	if err != nil {
		return nil, err
	}
	if raw, ok := v.([]byte); ok {
		return string(raw), nil
	}
	return v, nil
}

// Scan implements sql.Scanner
func (s *GeneralPricingFields) Scan(value interface{}) error {
	if value == nil {
		*s = GeneralPricingFields{}
		return nil
	}

	var fields datatypes.JSONSlice[GeneralPricingField]
	if err := fields.Scan(value); err != nil {
		return fmt.Errorf("cannot scan active general fields: %w", err)
	}
	if fields == nil {
		fields = datatypes.JSONSlice[GeneralPricingField]{}
	}
	*s = GeneralPricingFields(fields)
	return nil
}

// BidPackage is one procurement package within a project
type BidPackage struct {
	BaseModel
	ProjectID           uint                 `gorm:"not null;index"`
	Name                string               `gorm:"type:varchar(200);not null"`
	Visibility          PackageVisibility    `gorm:"type:varchar(20);not null"`
	ActiveGeneralFields GeneralPricingFields `gorm:"type:jsonb;not null;column:active_general_fields"`
	AwardedBidID        *uint                `gorm:"column:awarded_bid_id;index"`
	AwardedAt           *time.Time           `gorm:"column:awarded_at"`
	SpecItems           []SpecItem           `gorm:"foreignKey:BidPackageID;constraint:OnDelete:CASCADE"`
	Invites             []Invite             `gorm:"foreignKey:BidPackageID;constraint:OnDelete:CASCADE"`
}

// IsAwarded reports whether the package currently points at an awarded bid
func (p *BidPackage) IsAwarded() bool {
	return p.AwardedBidID != nil
}

// ImportBatch records one committed catalog import
type ImportBatch struct {
	BaseModel
	BidPackageID uint   `gorm:"not null;index"`
	Filename     string `gorm:"type:varchar(255)"`
	Profile      string `gorm:"type:varchar(50);not null"`
	RowCount     int    `gorm:"not null"`
	StoragePath  string `gorm:"type:varchar(500);column:storage_path"`
}

// SpecItem is one catalog line to be priced by dealers
type SpecItem struct {
	BaseModel
	BidPackageID  uint            `gorm:"not null;uniqueIndex:idx_spec_items_package_code"`
	ImportBatchID *uint           `gorm:"index"`
	ExternalID    string          `gorm:"type:varchar(255);not null;column:external_id;uniqueIndex:idx_spec_items_package_code"`
	Category      string          `gorm:"type:varchar(255)"`
	Manufacturer  string          `gorm:"type:varchar(255)"`
	ProductName   string          `gorm:"type:varchar(500);column:product_name"`
	SKU           string          `gorm:"type:varchar(255);column:sku"`
	Description   string          `gorm:"type:text"`
	Quantity      decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	UOM           string          `gorm:"type:varchar(50);column:uom"`
	Active        bool            `gorm:"not null"`
}

// Invite grants one dealer access to one package
type Invite struct {
	BaseModel
	BidPackageID   uint        `gorm:"not null;index"`
	BidPackage     *BidPackage `gorm:"foreignKey:BidPackageID"`
	DealerName     string      `gorm:"type:varchar(200);not null;column:dealer_name"`
	DealerEmail    string      `gorm:"type:varchar(255);column:dealer_email"`
	PasswordDigest string      `gorm:"type:varchar(100);not null;column:password_digest"`
	Token          string      `gorm:"type:varchar(64);not null;uniqueIndex"`
	Disabled       bool        `gorm:"not null"`
	LastUnlockedAt *time.Time  `gorm:"column:last_unlocked_at"`
}

// BidState is the lifecycle state of a dealer bid
type BidState string

const (
	BidStateDraft     BidState = "draft"
	BidStateSubmitted BidState = "submitted"
)

// SelectionStatus records the award outcome for a bid
type SelectionStatus string

const (
	SelectionPending     SelectionStatus = "pending"
	SelectionNotSelected SelectionStatus = "not_selected"
	SelectionAwarded     SelectionStatus = "awarded"
)

// Bid is one dealer's pricing container for a package
type Bid struct {
	BaseModel
	InviteID          uint                `gorm:"not null;uniqueIndex"`
	Invite            *Invite             `gorm:"foreignKey:InviteID"`
	BidPackageID      uint                `gorm:"not null;index"`
	State             BidState            `gorm:"type:varchar(20);not null;index"`
	SelectionStatus   SelectionStatus     `gorm:"type:varchar(20);not null;column:selection_status"`
	SubmittedAt       *time.Time          `gorm:"column:submitted_at"`
	DeliveryAmount    decimal.NullDecimal `gorm:"type:decimal(14,2);column:delivery_amount"`
	InstallAmount     decimal.NullDecimal `gorm:"type:decimal(14,2);column:install_amount"`
	EscalationAmount  decimal.NullDecimal `gorm:"type:decimal(14,2);column:escalation_amount"`
	ContingencyAmount decimal.NullDecimal `gorm:"type:decimal(14,2);column:contingency_amount"`
	SalesTaxAmount    decimal.NullDecimal `gorm:"type:decimal(14,2);column:sales_tax_amount"`
	LineItems         []BidLineItem       `gorm:"foreignKey:BidID;constraint:OnDelete:CASCADE"`
}

// IsSubmitted reports whether the bid is frozen
func (b *Bid) IsSubmitted() bool {
	return b.State == BidStateSubmitted
}

// GeneralAmount returns the stored amount for a general pricing field
func (b *Bid) GeneralAmount(field GeneralPricingField) decimal.NullDecimal {
	switch field {
	case GeneralPricingDelivery:
		return b.DeliveryAmount
	case GeneralPricingInstall:
		return b.InstallAmount
	case GeneralPricingEscalation:
		return b.EscalationAmount
	case GeneralPricingContingency:
		return b.ContingencyAmount
	case GeneralPricingSalesTax:
		return b.SalesTaxAmount
	default:
		return decimal.NullDecimal{}
	}
}

// GeneralAmountColumn maps a general pricing field to its column on bids
func GeneralAmountColumn(field GeneralPricingField) string {
	return string(field) + "_amount"
}

// BidLineItem is one priced entry for one catalog row in one bid
type BidLineItem struct {
	BaseModel
	BidID                   uint                `gorm:"not null;uniqueIndex:idx_bid_line_items_unique"`
	SpecItemID              uint                `gorm:"not null;uniqueIndex:idx_bid_line_items_unique"`
	SpecItem                *SpecItem           `gorm:"foreignKey:SpecItemID"`
	IsSubstitution          bool                `gorm:"not null;uniqueIndex:idx_bid_line_items_unique;column:is_substitution"`
	UnitPrice               decimal.NullDecimal `gorm:"type:decimal(14,4);column:unit_price"`
	DiscountPercent         decimal.NullDecimal `gorm:"type:decimal(7,4);column:discount_percent"`
	TariffPercent           decimal.NullDecimal `gorm:"type:decimal(7,4);column:tariff_percent"`
	LeadTime                string              `gorm:"type:varchar(100);column:lead_time"`
	Notes                   string              `gorm:"type:text"`
	SubstitutionProductName string              `gorm:"type:varchar(500);column:substitution_product_name"`
	SubstitutionBrandName   string              `gorm:"type:varchar(255);column:substitution_brand_name"`
}

// BidSubmissionVersion is the immutable record of what a dealer submitted
type BidSubmissionVersion struct {
	ID            uint            `gorm:"primaryKey"`
	BidID         uint            `gorm:"not null;uniqueIndex:idx_bid_versions_bid_number"`
	VersionNumber int             `gorm:"not null;uniqueIndex:idx_bid_versions_bid_number;column:version_number"`
	SubmittedAt   time.Time       `gorm:"not null;column:submitted_at"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(16,4);not null;column:total_amount"`
	LineItems     datatypes.JSON  `gorm:"column:line_items;not null"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// AwardEventType identifies an award transition
type AwardEventType string

const (
	AwardEventAward   AwardEventType = "award"
	AwardEventReaward AwardEventType = "reaward"
	AwardEventUnaward AwardEventType = "unaward"
)

// BidAwardEvent is the append-only audit record of an award transition
type BidAwardEvent struct {
	ID                    uint            `gorm:"primaryKey"`
	BidPackageID          uint            `gorm:"not null;index"`
	EventType             AwardEventType  `gorm:"type:varchar(20);not null;column:event_type"`
	FromBidID             *uint           `gorm:"column:from_bid_id"`
	ToBidID               uint            `gorm:"not null;column:to_bid_id"`
	AwardedAmountSnapshot decimal.Decimal `gorm:"type:decimal(16,2);not null;column:awarded_amount_snapshot"`
	AwardedBy             string          `gorm:"type:varchar(200);not null;column:awarded_by"`
	Note                  string          `gorm:"type:text"`
	AwardedAt             time.Time       `gorm:"not null;column:awarded_at"`
	ComparisonSnapshot    datatypes.JSON  `gorm:"column:comparison_snapshot;not null"`
	CreatedAt             time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}
