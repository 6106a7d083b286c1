package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// DealerRow is one submitted bid as read by the comparison
type DealerRow struct {
	BidID             uint
	DealerName        string
	DeliveryAmount    decimal.NullDecimal
	InstallAmount     decimal.NullDecimal
	EscalationAmount  decimal.NullDecimal
	ContingencyAmount decimal.NullDecimal
	SalesTaxAmount    decimal.NullDecimal
}

// GeneralAmounts maps the stored amounts by general pricing field
func (d DealerRow) GeneralAmounts() map[domain.GeneralPricingField]decimal.NullDecimal {
	return map[domain.GeneralPricingField]decimal.NullDecimal{
		domain.GeneralPricingDelivery:    d.DeliveryAmount,
		domain.GeneralPricingInstall:     d.InstallAmount,
		domain.GeneralPricingEscalation:  d.EscalationAmount,
		domain.GeneralPricingContingency: d.ContingencyAmount,
		domain.GeneralPricingSalesTax:    d.SalesTaxAmount,
	}
}

// LedgerRow is one ledger line of a submitted bid
type LedgerRow struct {
	BidID                   uint
	SpecItemID              uint
	IsSubstitution          bool
	UnitPrice               decimal.NullDecimal
	DiscountPercent         decimal.NullDecimal
	TariffPercent           decimal.NullDecimal
	SubstitutionProductName string
	SubstitutionBrandName   string
}

// ComparisonRepository runs the read queries behind the comparison matrix.
// Queries are built with squirrel and executed through gorm so they share its
// connection pool, transaction and dialect placeholder rewriting.
type ComparisonRepository struct {
	db *gorm.DB
}

func NewComparisonRepository(db *gorm.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ComparisonRepository) WithTx(tx *gorm.DB) *ComparisonRepository {
	return &ComparisonRepository{db: tx}
}

// SubmittedDealers returns the submitted bids of a package with their dealer names
func (r *ComparisonRepository) SubmittedDealers(ctx context.Context, packageID uint) ([]DealerRow, error) {
	query, args, err := sq.
		Select(
			"b.id AS bid_id",
			"i.dealer_name AS dealer_name",
			"b.delivery_amount",
			"b.install_amount",
			"b.escalation_amount",
			"b.contingency_amount",
			"b.sales_tax_amount",
		).
		From("bids b").
		InnerJoin("invites i ON i.id = b.invite_id").
		Where(sq.Eq{"b.bid_package_id": packageID, "b.state": string(domain.BidStateSubmitted)}).
		OrderBy("i.dealer_name ASC", "b.id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []DealerRow
	err = r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	return rows, err
}

// ActiveItems returns the package's active catalog rows
func (r *ComparisonRepository) ActiveItems(ctx context.Context, packageID uint) ([]domain.SpecItem, error) {
	query, args, err := sq.
		Select("*").
		From("spec_items").
		Where(sq.Eq{"bid_package_id": packageID, "active": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var items []domain.SpecItem
	err = r.db.WithContext(ctx).Raw(query, args...).Scan(&items).Error
	return items, err
}

// SubmittedLedger returns every line of the package's submitted bids that
// points at an active catalog row
func (r *ComparisonRepository) SubmittedLedger(ctx context.Context, packageID uint) ([]LedgerRow, error) {
	query, args, err := sq.
		Select(
			"l.bid_id",
			"l.spec_item_id",
			"l.is_substitution",
			"l.unit_price",
			"l.discount_percent",
			"l.tariff_percent",
			"l.substitution_product_name",
			"l.substitution_brand_name",
		).
		From("bid_line_items l").
		InnerJoin("bids b ON b.id = l.bid_id").
		InnerJoin("spec_items s ON s.id = l.spec_item_id").
		Where(sq.Eq{
			"b.bid_package_id": packageID,
			"b.state":          string(domain.BidStateSubmitted),
			"s.active":         true,
		}).
		OrderBy("l.spec_item_id ASC", "l.bid_id ASC", "l.is_substitution ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []LedgerRow
	err = r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	return rows, err
}
