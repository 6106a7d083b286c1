package comparison

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/pricing"
)

// Item is one active catalog row
type Item struct {
	ID           uint
	ExternalID   string
	Category     string
	Manufacturer string
	ProductName  string
	SKU          string
	Description  string
	Quantity     decimal.Decimal
	UOM          string
}

// Dealer is one submitted bid taking part in the comparison
type Dealer struct {
	BidID          uint
	DealerName     string
	GeneralAmounts map[domain.GeneralPricingField]decimal.NullDecimal
}

// Line is one ledger entry of a participating bid
type Line struct {
	BidID                   uint
	SpecItemID              uint
	IsSubstitution          bool
	UnitPrice               decimal.NullDecimal
	DiscountPercent         decimal.NullDecimal
	TariffPercent           decimal.NullDecimal
	SubstitutionProductName string
	SubstitutionBrandName   string
}

// Input is everything the engine reads
type Input struct {
	Items               []Item
	Dealers             []Dealer
	Lines               []Line
	ActiveGeneralFields domain.GeneralPricingFields
}

// Result is the comparison matrix
type Result struct {
	Dealers []DealerSummary `json:"dealers"`
	Rows    []Row           `json:"rows"`
}

// DealerSummary describes one dealer column
type DealerSummary struct {
	DealerID              uint                           `json:"dealerId"`
	DealerName            string                         `json:"dealerName"`
	PriceMode             PriceMode                      `json:"priceMode"`
	GeneralPricingAmounts map[string]decimal.NullDecimal `json:"generalPricingAmounts"`
	ItemsTotal            decimal.Decimal                `json:"itemsTotal"`
	Total                 decimal.Decimal                `json:"total"`
}

// Row is one catalog row of the matrix
type Row struct {
	CatalogRowID  uint                `json:"catalogRowId"`
	ExternalID    string              `json:"externalId"`
	Category      string              `json:"category"`
	Manufacturer  string              `json:"manufacturer"`
	ProductName   string              `json:"productName"`
	SKU           string              `json:"sku"`
	Description   string              `json:"description"`
	Quantity      decimal.Decimal     `json:"quantity"`
	UOM           string              `json:"uom"`
	AvgUnitPrice  decimal.NullDecimal `json:"avgUnitPrice"`
	BestUnitPrice decimal.NullDecimal `json:"bestUnitPrice"`
	Dealers       []Cell              `json:"dealers"`
}

// Cell is one dealer's quote for one catalog row
type Cell struct {
	DealerID                uint                `json:"dealerId"`
	UnitPrice               decimal.NullDecimal `json:"unitPrice"`
	ExtendedPrice           decimal.NullDecimal `json:"extendedPrice"`
	Delta                   decimal.NullDecimal `json:"delta"`
	QuoteType               PriceMode           `json:"quoteType,omitempty"`
	HasBasisPrice           bool                `json:"hasBasisPrice"`
	HasSubstitutionPrice    bool                `json:"hasSubstitutionPrice"`
	BasisUnitPrice          decimal.NullDecimal `json:"basisUnitPrice"`
	SubstitutionUnitPrice   decimal.NullDecimal `json:"substitutionUnitPrice"`
	SubstitutionProductName string              `json:"substitutionProductName"`
	SubstitutionBrandName   string              `json:"substitutionBrandName"`
}

type lineKey struct {
	specItemID     uint
	bidID          uint
	isSubstitution bool
}

// Build computes the matrix. Dealers are ordered by name then bid id, rows by
// catalog row id. Lines for unknown bids or catalog rows are ignored.
func Build(in Input, opts Options) Result {
	dealers := make([]Dealer, len(in.Dealers))
	copy(dealers, in.Dealers)
	sort.SliceStable(dealers, func(i, j int) bool {
		if dealers[i].DealerName != dealers[j].DealerName {
			return dealers[i].DealerName < dealers[j].DealerName
		}
		return dealers[i].BidID < dealers[j].BidID
	})

	items := make([]Item, 0, len(in.Items))
	for _, item := range in.Items {
		if !opts.IsExcluded(item.ID) {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	lines := make(map[lineKey]Line, len(in.Lines))
	for _, l := range in.Lines {
		lines[lineKey{specItemID: l.SpecItemID, bidID: l.BidID, isSubstitution: l.IsSubstitution}] = l
	}

	itemsTotals := make([]decimal.Decimal, len(dealers))
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		cells := make([]Cell, len(dealers))
		prices := make([]decimal.Decimal, 0, len(dealers))
		for i, d := range dealers {
			basis, hasBasis := lines[lineKey{specItemID: item.ID, bidID: d.BidID}]
			sub, hasSub := lines[lineKey{specItemID: item.ID, bidID: d.BidID, isSubstitution: true}]
			cells[i] = buildCell(d.BidID, item, lineRef(basis, hasBasis), lineRef(sub, hasSub), opts.ModeFor(item.ID, d.BidID))
			if cells[i].UnitPrice.Valid {
				prices = append(prices, cells[i].UnitPrice.Decimal)
			}
			if cells[i].ExtendedPrice.Valid {
				itemsTotals[i] = itemsTotals[i].Add(cells[i].ExtendedPrice.Decimal)
			}
		}

		avg := pricing.Mean(prices)
		if avg.Valid {
			for i := range cells {
				if cells[i].UnitPrice.Valid {
					cells[i].Delta = decimal.NewNullDecimal(pricing.Round4(cells[i].UnitPrice.Decimal.Sub(avg.Decimal)))
				}
			}
		}

		rows = append(rows, Row{
			CatalogRowID:  item.ID,
			ExternalID:    item.ExternalID,
			Category:      item.Category,
			Manufacturer:  item.Manufacturer,
			ProductName:   item.ProductName,
			SKU:           item.SKU,
			Description:   item.Description,
			Quantity:      item.Quantity,
			UOM:           item.UOM,
			AvgUnitPrice:  avg,
			BestUnitPrice: pricing.Min(prices),
			Dealers:       cells,
		})
	}

	summaries := make([]DealerSummary, len(dealers))
	for i, d := range dealers {
		general := make(map[string]decimal.NullDecimal, len(in.ActiveGeneralFields))
		total := itemsTotals[i]
		for _, field := range in.ActiveGeneralFields {
			amount := d.GeneralAmounts[field]
			general[string(field)] = amount
			if amount.Valid {
				total = total.Add(amount.Decimal)
			}
		}
		summaries[i] = DealerSummary{
			DealerID:              d.BidID,
			DealerName:            d.DealerName,
			PriceMode:             opts.DealerMode(d.BidID),
			GeneralPricingAmounts: general,
			ItemsTotal:            itemsTotals[i],
			Total:                 total,
		}
	}

	return Result{Dealers: summaries, Rows: rows}
}

func lineRef(l Line, ok bool) *Line {
	if !ok {
		return nil
	}
	return &l
}

func buildCell(bidID uint, item Item, basis, sub *Line, mode PriceMode) Cell {
	cell := Cell{DealerID: bidID}

	basisNet := netOf(basis)
	subNet := netOf(sub)
	cell.HasBasisPrice = basisNet.Valid
	cell.HasSubstitutionPrice = subNet.Valid
	cell.BasisUnitPrice = basisNet
	cell.SubstitutionUnitPrice = subNet
	if sub != nil {
		cell.SubstitutionProductName = sub.SubstitutionProductName
		cell.SubstitutionBrandName = sub.SubstitutionBrandName
	}

	switch {
	case basisNet.Valid && subNet.Valid:
		if mode == PriceModeSubstitution {
			cell.QuoteType, cell.UnitPrice = PriceModeSubstitution, subNet
		} else {
			cell.QuoteType, cell.UnitPrice = PriceModeBasis, basisNet
		}
	case basisNet.Valid:
		cell.QuoteType, cell.UnitPrice = PriceModeBasis, basisNet
	case subNet.Valid:
		cell.QuoteType, cell.UnitPrice = PriceModeSubstitution, subNet
	case basis != nil:
		cell.QuoteType = PriceModeBasis
	case sub != nil:
		cell.QuoteType = PriceModeSubstitution
	}

	cell.ExtendedPrice = pricing.ExtendedPrice(cell.UnitPrice, item.Quantity)
	return cell
}

func netOf(l *Line) decimal.NullDecimal {
	if l == nil {
		return decimal.NullDecimal{}
	}
	return pricing.NetUnitPrice(l.UnitPrice, l.DiscountPercent, l.TariffPercent)
}
