package comparison

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func assertDecimal(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "expected %s, got null", want)
	assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "expected %s, got %s", want, got.Decimal)
}

func twoDealerInput() Input {
	return Input{
		Items: []Item{
			{ID: 2, ExternalID: "T-1", ProductName: "Table", Quantity: decimal.NewFromInt(2), UOM: "EA"},
			{ID: 1, ExternalID: "C-1", ProductName: "Chair", Quantity: decimal.NewFromInt(10), UOM: "EA"},
		},
		Dealers: []Dealer{
			{BidID: 20, DealerName: "Zeta Interiors"},
			{BidID: 10, DealerName: "Acme Furniture"},
		},
		Lines: []Line{
			{BidID: 10, SpecItemID: 1, UnitPrice: dec("100")},
			{BidID: 20, SpecItemID: 1, UnitPrice: dec("145.5")},
		},
	}
}

func TestBuild_AverageAndBest(t *testing.T) {
	result := Build(twoDealerInput(), Options{})

	require.Len(t, result.Rows, 2)
	row := result.Rows[0]
	assert.Equal(t, uint(1), row.CatalogRowID)
	assertDecimal(t, "122.75", row.AvgUnitPrice)
	assertDecimal(t, "100", row.BestUnitPrice)

	require.Len(t, row.Dealers, 2)
	assert.Equal(t, uint(10), row.Dealers[0].DealerID)
	assertDecimal(t, "-22.75", row.Dealers[0].Delta)
	assertDecimal(t, "22.75", row.Dealers[1].Delta)
	assert.Equal(t, PriceModeBasis, row.Dealers[0].QuoteType)
	assertDecimal(t, "1000", row.Dealers[0].ExtendedPrice)
}

func TestBuild_RowWithoutPricesHasNullAggregates(t *testing.T) {
	result := Build(twoDealerInput(), Options{})

	row := result.Rows[1]
	assert.Equal(t, uint(2), row.CatalogRowID)
	assert.False(t, row.AvgUnitPrice.Valid)
	assert.False(t, row.BestUnitPrice.Valid)
	for _, cell := range row.Dealers {
		assert.False(t, cell.UnitPrice.Valid)
		assert.False(t, cell.Delta.Valid)
		assert.Empty(t, cell.QuoteType)
	}
}

func TestBuild_DealersOrderedByName(t *testing.T) {
	result := Build(twoDealerInput(), Options{})

	require.Len(t, result.Dealers, 2)
	assert.Equal(t, "Acme Furniture", result.Dealers[0].DealerName)
	assert.Equal(t, uint(10), result.Dealers[0].DealerID)
	assert.Equal(t, "Zeta Interiors", result.Dealers[1].DealerName)
}

func TestBuild_ExcludedRowsAreOmitted(t *testing.T) {
	result := Build(twoDealerInput(), Options{Excluded: map[uint]bool{1: true}})

	require.Len(t, result.Rows, 1)
	assert.Equal(t, uint(2), result.Rows[0].CatalogRowID)
	assert.True(t, result.Dealers[0].ItemsTotal.IsZero())
}

func TestBuild_NetPriceApplied(t *testing.T) {
	in := Input{
		Items:   []Item{{ID: 1, Quantity: decimal.NewFromInt(3)}},
		Dealers: []Dealer{{BidID: 1, DealerName: "A"}},
		Lines: []Line{
			{BidID: 1, SpecItemID: 1, UnitPrice: dec("200"), DiscountPercent: dec("10"), TariffPercent: dec("5")},
		},
	}

	cell := Build(in, Options{}).Rows[0].Dealers[0]

	assertDecimal(t, "189", cell.UnitPrice)
	assertDecimal(t, "567", cell.ExtendedPrice)
}

func TestBuild_SelectionRule(t *testing.T) {
	basisPriced := Line{BidID: 1, SpecItemID: 1, UnitPrice: dec("50")}
	subPriced := Line{BidID: 1, SpecItemID: 1, IsSubstitution: true, UnitPrice: dec("40"),
		SubstitutionProductName: "Alt Chair", SubstitutionBrandName: "Alt Co"}
	basisUnpriced := Line{BidID: 1, SpecItemID: 1}
	subUnpriced := Line{BidID: 1, SpecItemID: 1, IsSubstitution: true}

	tests := []struct {
		name      string
		lines     []Line
		mode      PriceMode
		wantType  PriceMode
		wantPrice string
	}{
		{name: "both priced, basis preferred", lines: []Line{basisPriced, subPriced}, mode: PriceModeBasis, wantType: PriceModeBasis, wantPrice: "50"},
		{name: "both priced, substitution preferred", lines: []Line{basisPriced, subPriced}, mode: PriceModeSubstitution, wantType: PriceModeSubstitution, wantPrice: "40"},
		{name: "only substitution priced", lines: []Line{basisUnpriced, subPriced}, mode: PriceModeBasis, wantType: PriceModeSubstitution, wantPrice: "40"},
		{name: "only basis priced", lines: []Line{basisPriced, subUnpriced}, mode: PriceModeSubstitution, wantType: PriceModeBasis, wantPrice: "50"},
		{name: "nothing priced falls back to basis line", lines: []Line{basisUnpriced, subUnpriced}, mode: PriceModeSubstitution, wantType: PriceModeBasis},
		{name: "nothing priced, substitution line only", lines: []Line{subUnpriced}, mode: PriceModeBasis, wantType: PriceModeSubstitution},
		{name: "no lines", lines: nil, mode: PriceModeBasis, wantType: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := Input{
				Items:   []Item{{ID: 1, Quantity: decimal.NewFromInt(1)}},
				Dealers: []Dealer{{BidID: 1, DealerName: "A"}},
				Lines:   tc.lines,
			}
			opts := Options{PriceModes: map[uint]PriceMode{1: tc.mode}}

			cell := Build(in, opts).Rows[0].Dealers[0]

			assert.Equal(t, tc.wantType, cell.QuoteType)
			if tc.wantPrice == "" {
				assert.False(t, cell.UnitPrice.Valid)
			} else {
				assertDecimal(t, tc.wantPrice, cell.UnitPrice)
			}
		})
	}
}

func TestBuild_BothCandidatesReported(t *testing.T) {
	in := Input{
		Items:   []Item{{ID: 1, Quantity: decimal.NewFromInt(1)}},
		Dealers: []Dealer{{BidID: 1, DealerName: "A"}},
		Lines: []Line{
			{BidID: 1, SpecItemID: 1, UnitPrice: dec("50")},
			{BidID: 1, SpecItemID: 1, IsSubstitution: true, UnitPrice: dec("40"), SubstitutionProductName: "Alt", SubstitutionBrandName: "AltCo"},
		},
	}

	cell := Build(in, Options{}).Rows[0].Dealers[0]

	assert.True(t, cell.HasBasisPrice)
	assert.True(t, cell.HasSubstitutionPrice)
	assertDecimal(t, "50", cell.BasisUnitPrice)
	assertDecimal(t, "40", cell.SubstitutionUnitPrice)
	assert.Equal(t, "Alt", cell.SubstitutionProductName)
	assert.Equal(t, "AltCo", cell.SubstitutionBrandName)
	assertDecimal(t, "50", cell.UnitPrice)
}

func TestBuild_CellOverrideBeatsDealerMode(t *testing.T) {
	in := Input{
		Items:   []Item{{ID: 1, Quantity: decimal.NewFromInt(1)}, {ID: 2, Quantity: decimal.NewFromInt(1)}},
		Dealers: []Dealer{{BidID: 7, DealerName: "A"}},
		Lines: []Line{
			{BidID: 7, SpecItemID: 1, UnitPrice: dec("10")},
			{BidID: 7, SpecItemID: 1, IsSubstitution: true, UnitPrice: dec("8")},
			{BidID: 7, SpecItemID: 2, UnitPrice: dec("20")},
			{BidID: 7, SpecItemID: 2, IsSubstitution: true, UnitPrice: dec("18")},
		},
	}
	opts := Options{
		PriceModes: map[uint]PriceMode{7: PriceModeSubstitution},
		CellModes:  map[CellKey]PriceMode{{SpecItemID: 2, BidID: 7}: PriceModeBasis},
	}

	result := Build(in, opts)

	assertDecimal(t, "8", result.Rows[0].Dealers[0].UnitPrice)
	assertDecimal(t, "20", result.Rows[1].Dealers[0].UnitPrice)
	assert.Equal(t, PriceModeSubstitution, result.Dealers[0].PriceMode)
	assert.True(t, decimal.NewFromInt(28).Equal(result.Dealers[0].ItemsTotal))
}

func TestBuild_DealerTotalsUseActiveGeneralFields(t *testing.T) {
	in := twoDealerInput()
	in.ActiveGeneralFields = domain.GeneralPricingFields{domain.GeneralPricingDelivery}
	in.Dealers[1].GeneralAmounts = map[domain.GeneralPricingField]decimal.NullDecimal{
		domain.GeneralPricingDelivery: dec("50"),
		domain.GeneralPricingInstall:  dec("75"),
	}

	result := Build(in, Options{})

	acme := result.Dealers[0]
	require.Equal(t, uint(10), acme.DealerID)
	assert.Len(t, acme.GeneralPricingAmounts, 1)
	assertDecimal(t, "50", acme.GeneralPricingAmounts["delivery"])
	assert.True(t, decimal.NewFromInt(1050).Equal(acme.Total))
	assert.False(t, result.Dealers[1].GeneralPricingAmounts["delivery"].Valid)
}

func TestBuild_IgnoresLinesOfUnknownBids(t *testing.T) {
	in := twoDealerInput()
	in.Lines = append(in.Lines, Line{BidID: 99, SpecItemID: 1, UnitPrice: dec("1")})

	row := Build(in, Options{}).Rows[0]

	assertDecimal(t, "100", row.BestUnitPrice)
	assert.Len(t, row.Dealers, 2)
}

func TestResult_JSONShape(t *testing.T) {
	b, err := json.Marshal(Build(twoDealerInput(), Options{}))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	rows := decoded["rows"].([]interface{})
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "122.75", first["avgUnitPrice"])
	cell := first["dealers"].([]interface{})[0].(map[string]interface{})
	assert.Contains(t, cell, "hasSubstitutionPrice")
	assert.Equal(t, "basis", cell["quoteType"])

	second := rows[1].(map[string]interface{})
	assert.Nil(t, second["avgUnitPrice"])
	assert.NotContains(t, second["dealers"].([]interface{})[0].(map[string]interface{}), "quoteType")
}
