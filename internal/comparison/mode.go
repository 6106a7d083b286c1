// Package comparison builds the side-by-side dealer price matrix for a bid package.
//
// Build is a pure function over already-loaded catalog rows, submitted bids and
// their ledger lines. Loosely typed request payloads are coerced into Options once
// at the boundary (see Request and NormalizeSnapshot) so the engine itself only
// sees typed values.
package comparison

import "strings"

// PriceMode selects which ledger line represents a dealer's quote for a catalog row
type PriceMode string

const (
	PriceModeBasis        PriceMode = "basis"
	PriceModeSubstitution PriceMode = "substitution"
)

// ParsePriceMode accepts "basis" or "substitution" in any case
func ParsePriceMode(s string) (PriceMode, bool) {
	switch PriceMode(strings.ToLower(strings.TrimSpace(s))) {
	case PriceModeBasis:
		return PriceModeBasis, true
	case PriceModeSubstitution:
		return PriceModeSubstitution, true
	default:
		return "", false
	}
}

// CellKey addresses one (catalog row, dealer) cell of the matrix
type CellKey struct {
	SpecItemID uint
	BidID      uint
}

// Options carries the caller's view of the comparison
type Options struct {
	// PriceModes is the per-dealer preference, keyed by bid id
	PriceModes map[uint]PriceMode
	// CellModes overrides the dealer preference for single cells
	CellModes map[CellKey]PriceMode
	// Excluded lists catalog rows hidden from the output
	Excluded map[uint]bool
}

// ModeFor resolves the effective price mode for a cell: a cell override wins,
// then the dealer preference, then basis.
func (o Options) ModeFor(specItemID, bidID uint) PriceMode {
	if mode, ok := o.CellModes[CellKey{SpecItemID: specItemID, BidID: bidID}]; ok {
		return mode
	}
	return o.DealerMode(bidID)
}

// DealerMode returns the dealer-level preference, defaulting to basis
func (o Options) DealerMode(bidID uint) PriceMode {
	if mode, ok := o.PriceModes[bidID]; ok {
		return mode
	}
	return PriceModeBasis
}

// IsExcluded reports whether a catalog row is hidden
func (o Options) IsExcluded(specItemID uint) bool {
	return o.Excluded[specItemID]
}
