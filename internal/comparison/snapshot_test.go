package comparison

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceMode(t *testing.T) {
	mode, ok := ParsePriceMode(" Substitution ")
	assert.True(t, ok)
	assert.Equal(t, PriceModeSubstitution, mode)

	_, ok = ParsePriceMode("cheapest")
	assert.False(t, ok)
}

func TestOptions_ModeFor(t *testing.T) {
	opts := Options{
		PriceModes: map[uint]PriceMode{1: PriceModeSubstitution},
		CellModes:  map[CellKey]PriceMode{{SpecItemID: 5, BidID: 1}: PriceModeBasis},
	}

	assert.Equal(t, PriceModeBasis, opts.ModeFor(5, 1))
	assert.Equal(t, PriceModeSubstitution, opts.ModeFor(6, 1))
	assert.Equal(t, PriceModeBasis, opts.ModeFor(6, 2))
	assert.Equal(t, PriceModeBasis, Options{}.ModeFor(1, 1))
}

func TestNormalizeSnapshot(t *testing.T) {
	t.Run("coerces ids and dedupes", func(t *testing.T) {
		snap := NormalizeSnapshot(
			json.RawMessage(`[3, "2", 3, "x", -1, 1.5, null, {"a":1}, 2]`),
			nil,
		)
		assert.Equal(t, []uint{2, 3}, snap.ExcludedSpecItemIDs)
		assert.Empty(t, snap.CellPriceModeOverrides)
	})

	t.Run("keeps valid cell overrides only", func(t *testing.T) {
		snap := NormalizeSnapshot(nil, json.RawMessage(`{
			"4": {"10": "substitution", "11": "bogus", "x": "basis"},
			"five": {"10": "basis"},
			"6": "basis",
			"07": {"12": "BASIS"}
		}`))

		assert.Equal(t, map[string]map[string]PriceMode{
			"4": {"10": PriceModeSubstitution},
			"7": {"12": PriceModeBasis},
		}, snap.CellPriceModeOverrides)
	})

	t.Run("malformed payloads become empty structures", func(t *testing.T) {
		snap := NormalizeSnapshot(json.RawMessage(`{"not":"a list"}`), json.RawMessage(`[1,2`))

		assert.NotNil(t, snap.ExcludedSpecItemIDs)
		assert.Empty(t, snap.ExcludedSpecItemIDs)
		assert.NotNil(t, snap.CellPriceModeOverrides)
		assert.Empty(t, snap.CellPriceModeOverrides)
		assert.JSONEq(t, `{"excludedSpecItemIds":[],"cellPriceModeOverrides":{}}`, string(snap.JSON()))
	})
}

func TestSnapshot_Options(t *testing.T) {
	snap := NormalizeSnapshot(json.RawMessage(`[9]`), json.RawMessage(`{"4":{"10":"substitution"}}`))

	opts := snap.Options()

	assert.True(t, opts.IsExcluded(9))
	assert.False(t, opts.IsExcluded(4))
	assert.Equal(t, PriceModeSubstitution, opts.ModeFor(4, 10))
}

func TestRequest_Options(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{
		"priceModes": {"10": "substitution", "11": "nonsense", "abc": "basis"},
		"excludedSpecItemIds": [1],
		"cellPriceModeOverrides": {"2": {"10": "basis"}}
	}`), &req))

	opts := req.Options()

	assert.Equal(t, map[uint]PriceMode{10: PriceModeSubstitution}, opts.PriceModes)
	assert.Equal(t, PriceModeBasis, opts.DealerMode(11))
	assert.True(t, opts.IsExcluded(1))
	assert.Equal(t, PriceModeBasis, opts.ModeFor(2, 10))
	assert.Equal(t, PriceModeSubstitution, opts.ModeFor(3, 10))
}
