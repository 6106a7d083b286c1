package comparison

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Request is the loosely typed comparison context accepted from callers.
// Every field is optional and tolerates malformed content.
type Request struct {
	PriceModes             json.RawMessage `json:"priceModes,omitempty"`
	ExcludedSpecItemIDs    json.RawMessage `json:"excludedSpecItemIds,omitempty"`
	CellPriceModeOverrides json.RawMessage `json:"cellPriceModeOverrides,omitempty"`
}

// Options coerces the request into typed engine options
func (r Request) Options() Options {
	snap := NormalizeSnapshot(r.ExcludedSpecItemIDs, r.CellPriceModeOverrides)
	opts := snap.Options()
	opts.PriceModes = normalizeDealerModes(r.PriceModes)
	return opts
}

// Snapshot is the canonical comparison context stored on award events
type Snapshot struct {
	ExcludedSpecItemIDs    []uint                          `json:"excludedSpecItemIds"`
	CellPriceModeOverrides map[string]map[string]PriceMode `json:"cellPriceModeOverrides"`
}

// NormalizeSnapshot coerces raw excluded ids and cell overrides into the
// canonical shape: a de-duplicated list of positive integer ids and a
// spec item id -> bid id -> mode mapping. Entries that cannot be coerced are
// dropped; malformed payloads become empty structures.
func NormalizeSnapshot(rawExcluded, rawCellModes json.RawMessage) Snapshot {
	return Snapshot{
		ExcludedSpecItemIDs:    normalizeIDList(rawExcluded),
		CellPriceModeOverrides: normalizeCellModes(rawCellModes),
	}
}

// Options converts the snapshot back into engine options
func (s Snapshot) Options() Options {
	opts := Options{
		PriceModes: map[uint]PriceMode{},
		CellModes:  make(map[CellKey]PriceMode),
		Excluded:   make(map[uint]bool, len(s.ExcludedSpecItemIDs)),
	}
	for _, id := range s.ExcludedSpecItemIDs {
		opts.Excluded[id] = true
	}
	for itemKey, byBid := range s.CellPriceModeOverrides {
		itemID, ok := parseID(itemKey)
		if !ok {
			continue
		}
		for bidKey, mode := range byBid {
			bidID, ok := parseID(bidKey)
			if !ok {
				continue
			}
			opts.CellModes[CellKey{SpecItemID: itemID, BidID: bidID}] = mode
		}
	}
	return opts
}

// JSON encodes the snapshot; map keys are sorted by encoding/json
func (s Snapshot) JSON() []byte {
	b, err := json.Marshal(s)
	if err != nil {
		return []byte(`{"excludedSpecItemIds":[],"cellPriceModeOverrides":{}}`)
	}
	return b
}

func normalizeIDList(raw json.RawMessage) []uint {
	ids := []uint{}
	var values []interface{}
	if !decodeLoose(raw, &values) {
		return ids
	}

	seen := make(map[uint]bool, len(values))
	for _, v := range values {
		id, ok := coerceID(v)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func normalizeCellModes(raw json.RawMessage) map[string]map[string]PriceMode {
	out := make(map[string]map[string]PriceMode)
	var outer map[string]interface{}
	if !decodeLoose(raw, &outer) {
		return out
	}

	for itemKey, inner := range outer {
		itemID, ok := parseID(itemKey)
		if !ok {
			continue
		}
		byBid, ok := inner.(map[string]interface{})
		if !ok {
			continue
		}
		for bidKey, rawMode := range byBid {
			bidID, ok := parseID(bidKey)
			if !ok {
				continue
			}
			s, ok := rawMode.(string)
			if !ok {
				continue
			}
			mode, ok := ParsePriceMode(s)
			if !ok {
				continue
			}
			key := strconv.FormatUint(uint64(itemID), 10)
			if out[key] == nil {
				out[key] = make(map[string]PriceMode)
			}
			out[key][strconv.FormatUint(uint64(bidID), 10)] = mode
		}
	}
	return out
}

func normalizeDealerModes(raw json.RawMessage) map[uint]PriceMode {
	out := make(map[uint]PriceMode)
	var values map[string]interface{}
	if !decodeLoose(raw, &values) {
		return out
	}
	for key, v := range values {
		bidID, ok := parseID(key)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if mode, ok := ParsePriceMode(s); ok {
			out[bidID] = mode
		}
	}
	return out
}

// decodeLoose decodes raw into dst, treating empty, null and mistyped payloads as absent
func decodeLoose(raw json.RawMessage, dst interface{}) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return json.Unmarshal(trimmed, dst) == nil
}

func coerceID(v interface{}) (uint, bool) {
	switch id := v.(type) {
	case float64:
		if id <= 0 || id != math.Trunc(id) || id > math.MaxUint32 {
			return 0, false
		}
		return uint(id), true
	case string:
		return parseID(id)
	default:
		return 0, false
	}
}

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
