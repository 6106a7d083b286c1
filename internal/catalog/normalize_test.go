package catalog

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvText(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestResolveProfile(t *testing.T) {
	tests := []struct {
		name    string
		hint    string
		headers []string
		want    string
	}{
		{name: "known hint wins", hint: "designer-pages", headers: []string{"sku"}, want: ProfileDesignerPages},
		{name: "hint is case insensitive", hint: " Default ", headers: []string{"Product Name", "Brand"}, want: ProfileDefault},
		{name: "inferred from headers", hint: "", headers: []string{"Product ID", "Product Name", "Brand"}, want: ProfileDesignerPages},
		{name: "unknown hint falls back to inference", hint: "acme", headers: []string{"product name", "BRAND"}, want: ProfileDesignerPages},
		{name: "brand alone is not enough", hint: "", headers: []string{"Brand", "SKU"}, want: ProfileDefault},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveProfile(tc.hint, tc.headers).Name)
		})
	}
}

func TestNormalize_DefaultProfile(t *testing.T) {
	text := csvText(
		"spec_item_id,category,manufacturer,product_name,sku,description,quantity,uom,extra",
		"CH-1,Seating,Herman Miller,Aeron,AER-1,Task chair,12,EA,ignored",
		"CH-2,Seating,Steelcase,Leap,LP-2,,4.5,EA,ignored",
	)

	result := Normalize(text, "")

	require.Empty(t, result.Errors)
	assert.Equal(t, ProfileDefault, result.Profile)
	assert.Equal(t, 2, result.RowCount)
	require.Len(t, result.Rows, 2)

	first := result.Rows[0]
	assert.Equal(t, "CH-1", first.SpecItemID)
	assert.Equal(t, "Seating", first.Category)
	assert.Equal(t, "Herman Miller", first.Manufacturer)
	assert.Equal(t, "Aeron", first.ProductName)
	assert.Equal(t, "AER-1", first.SKU)
	assert.Equal(t, "Task chair", first.Description)
	assert.True(t, first.Quantity.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, "EA", first.UOM)

	assert.True(t, result.Rows[1].Quantity.Equal(decimal.RequireFromString("4.5")))
}

func TestNormalize_DefaultProfileRowErrors(t *testing.T) {
	text := csvText(
		"category,manufacturer,product_name,sku,quantity,uom",
		"Seating,Herman Miller,Aeron,AER-1,abc,EA",
		"Seating,,Leap,LP-2,0,EA",
		"Tables,Knoll,Dividends,DV-1,3,",
		"Tables,Knoll,Antenna,AN-1,2,EA",
	)

	result := Normalize(text, "default")

	assert.Equal(t, []string{
		"Row 2: quantity must be numeric and > 0",
		"Row 3: quantity must be numeric and > 0",
		"Row 3: manufacturer is required",
		"Row 4: uom is required",
	}, result.Errors)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Antenna", result.Rows[0].ProductName)
	assert.Equal(t, 4, result.RowCount)
}

func TestNormalize_RowNumbersCountBlankLines(t *testing.T) {
	text := csvText(
		"category,manufacturer,product_name,sku,quantity,uom",
		"Seating,Herman Miller,Aeron,AER-1,1,EA",
		"",
		"Tables,Knoll,Dividends,DV-1,zero,EA",
	)

	result := Normalize(text, "default")

	assert.Equal(t, []string{"Row 4: quantity must be numeric and > 0"}, result.Errors)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 2, result.RowCount)
}

func TestNormalize_DefaultProfileEmittedRowsAreComplete(t *testing.T) {
	text := csvText(
		"Category,Manufacturer,Product,Model,Qty,Unit",
		"Seating,HM,Aeron,A1,1,EA",
		",HM,Aeron,A1,1,EA",
		"Seating,HM,Aeron,A1,-2,EA",
		"Seating,HM,Aeron,A1,,EA",
		"Seating,HM,,A1,3,EA",
	)

	result := Normalize(text, "")

	require.Len(t, result.Rows, 1)
	for _, row := range result.Rows {
		assert.NotEmpty(t, row.Category)
		assert.NotEmpty(t, row.Manufacturer)
		assert.NotEmpty(t, row.ProductName)
		assert.NotEmpty(t, row.SKU)
		assert.NotEmpty(t, row.UOM)
		assert.True(t, row.Quantity.IsPositive())
	}
	assert.Len(t, result.Errors, 4)
}

func TestNormalize_GeneratesMissingExternalIDs(t *testing.T) {
	text := csvText(
		"category,manufacturer,product_name,sku,quantity,uom",
		"Seating,HM,Aeron,A1,1,EA",
		"Seating,HM,Aeron,A1,1,EA",
	)

	result := Normalize(text, "")

	require.Len(t, result.Rows, 2)
	for _, row := range result.Rows {
		_, err := uuid.Parse(row.SpecItemID)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, result.Rows[0].SpecItemID, result.Rows[1].SpecItemID)
}

func TestNormalize_DefaultProfileDoesNotDedupe(t *testing.T) {
	text := csvText(
		"spec_item_id,category,manufacturer,product_name,sku,quantity,uom",
		"X,Seating,HM,Aeron,A1,1,EA",
		"X,Seating,HM,Aeron,A1,1,EA",
	)

	result := Normalize(text, "")

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "X", result.Rows[0].SpecItemID)
	assert.Equal(t, "X", result.Rows[1].SpecItemID)
}

func TestNormalize_DesignerPagesDefaults(t *testing.T) {
	text := csvText(
		"Product ID,Product Name,Brand,Category,Model,Description,Qty,Unit",
		"DP-7,,,,,,,",
	)

	result := Normalize(text, "")

	require.Empty(t, result.Errors)
	assert.Equal(t, ProfileDesignerPages, result.Profile)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "DP-7", row.SpecItemID)
	assert.Equal(t, "Product DP-7", row.ProductName)
	assert.Equal(t, "Unknown", row.Manufacturer)
	assert.Equal(t, "Uncategorized", row.Category)
	assert.Equal(t, "DP-7", row.SKU)
	assert.Equal(t, "", row.Description)
	assert.True(t, row.Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "EA", row.UOM)
}

func TestNormalize_DesignerPagesSkipsRowsWithoutID(t *testing.T) {
	text := csvText(
		"Product ID,Product Name,Brand,Qty",
		"DP-1,Chair,HM,2",
		",Section header,,",
		"DP-2,Table,Knoll,1",
	)

	result := Normalize(text, "")

	require.Empty(t, result.Errors)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "DP-1", result.Rows[0].SpecItemID)
	assert.Equal(t, "DP-2", result.Rows[1].SpecItemID)
	assert.Equal(t, 3, result.RowCount)
}

func TestNormalize_DesignerPagesDedupe(t *testing.T) {
	text := csvText(
		"Product ID,Product Name,Brand",
		"X,Chair,HM",
		"X,Chair,HM",
		"Y,Table,Knoll",
		"X,Chair,HM",
	)

	result := Normalize(text, "")

	require.Empty(t, result.Errors)
	ids := make([]string, 0, len(result.Rows))
	for _, r := range result.Rows {
		ids = append(ids, r.SpecItemID)
	}
	assert.Equal(t, []string{"X", "X-2", "Y", "X-3"}, ids)
}

func TestNormalize_DesignerPagesInvalidQuantity(t *testing.T) {
	text := csvText(
		"Product ID,Product Name,Brand,Qty",
		"DP-1,Chair,HM,lots",
	)

	result := Normalize(text, "")

	assert.Equal(t, []string{"Row 2: quantity must be numeric and > 0"}, result.Errors)
	assert.Empty(t, result.Rows)
}

func TestNormalize_FirstNonEmptyAliasWins(t *testing.T) {
	text := csvText(
		"Product ID,Product Name,Brand,Manufacturer",
		"DP-1,Chair,,Vitra",
		"DP-2,Chair,Knoll,Vitra",
	)

	result := Normalize(text, "")

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Vitra", result.Rows[0].Manufacturer)
	assert.Equal(t, "Knoll", result.Rows[1].Manufacturer)
}

func TestNormalize_HeaderErrors(t *testing.T) {
	t.Run("missing required column with zero rows", func(t *testing.T) {
		result := Normalize("category,manufacturer,product_name,sku,quantity\n", "default")

		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "uom")
		assert.Empty(t, result.Rows)
		assert.Equal(t, 0, result.RowCount)
	})

	t.Run("duplicate headers", func(t *testing.T) {
		text := csvText(
			"category,manufacturer,product_name,sku,quantity,uom,SKU",
			"Seating,HM,Aeron,A1,1,EA,A2",
		)
		result := Normalize(text, "default")

		assert.Equal(t, []string{"Duplicate column header: SKU"}, result.Errors)
		assert.Empty(t, result.Rows)
	})
}

func TestNormalize_MalformedInput(t *testing.T) {
	result := Normalize("category,manufacturer\n\"Seating,HM\nx\"y,z\n", "")

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Unable to parse CSV")
	assert.Empty(t, result.Rows)
}

func TestNormalize_EmptyInput(t *testing.T) {
	result := Normalize("  \n", "")

	assert.Equal(t, []string{"CSV file is empty"}, result.Errors)
	assert.Empty(t, result.Rows)
}

func TestNormalize_StripsByteOrderMark(t *testing.T) {
	result := Normalize("\ufeffProduct ID,Product Name,Brand\nDP-1,Chair,HM\n", "")

	assert.Equal(t, ProfileDesignerPages, result.Profile)
	require.Len(t, result.Rows, 1)
}

func TestDisambiguate(t *testing.T) {
	rows := []Row{{SpecItemID: "A"}, {SpecItemID: "B"}, {SpecItemID: "A-2"}}

	out := Disambiguate(rows, map[string]bool{"A": true, "C": true})

	assert.Equal(t, "A-3", out[0].SpecItemID)
	assert.Equal(t, "B", out[1].SpecItemID)
	assert.Equal(t, "A-2", out[2].SpecItemID)
	assert.Equal(t, "A", rows[0].SpecItemID, "input rows are not modified")
}

func TestDisambiguate_RepeatsWithinBatch(t *testing.T) {
	rows := []Row{{SpecItemID: "X"}, {SpecItemID: "X-2"}, {SpecItemID: "X"}, {SpecItemID: "X"}}

	out := Disambiguate(rows, nil)

	ids := make([]string, len(out))
	for i, r := range out {
		ids[i] = r.SpecItemID
	}
	assert.Equal(t, []string{"X", "X-2", "X-3", "X-4"}, ids)
}
