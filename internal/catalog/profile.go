// Package catalog turns supplier CSV exports into canonical spec item rows.
//
// Each supported export shape is described by a Profile: the canonical fields
// it requires and, per canonical field, the ordered header aliases that may
// carry it. Profiles live in a static registry so new supplier formats are a
// table entry rather than a new parser.
package catalog

import "strings"

// Field is a canonical spec item column
type Field string

const (
	FieldSpecItemID   Field = "spec_item_id"
	FieldCategory     Field = "category"
	FieldManufacturer Field = "manufacturer"
	FieldProductName  Field = "product_name"
	FieldSKU          Field = "sku"
	FieldDescription  Field = "description"
	FieldQuantity     Field = "quantity"
	FieldUOM          Field = "uom"
)

// CanonicalFields is the full output column set in canonical order
var CanonicalFields = []Field{
	FieldSpecItemID,
	FieldCategory,
	FieldManufacturer,
	FieldProductName,
	FieldSKU,
	FieldDescription,
	FieldQuantity,
	FieldUOM,
}

const (
	ProfileDefault       = "default"
	ProfileDesignerPages = "designer-pages"
)

// Profile describes one supplier export format
type Profile struct {
	Name     string
	Required []Field
	// Aliases lists acceptable source headers per canonical field, most preferred first
	Aliases map[Field][]string
	// InjectDefaults fills blank fields with generated values before validation
	InjectDefaults bool
	// SkipRowsWithoutID drops rows that carry no external id
	SkipRowsWithoutID bool
	// Dedupe suffixes repeated external ids with -2, -3, ...
	Dedupe bool
}

// IsRequired reports whether f is required by the profile
func (p *Profile) IsRequired(f Field) bool {
	for _, r := range p.Required {
		if r == f {
			return true
		}
	}
	return false
}

// Profiles is the registry of known import profiles
var Profiles = map[string]*Profile{
	ProfileDefault: {
		Name: ProfileDefault,
		Required: []Field{
			FieldCategory,
			FieldManufacturer,
			FieldProductName,
			FieldSKU,
			FieldQuantity,
			FieldUOM,
		},
		Aliases: map[Field][]string{
			FieldSpecItemID:   {"spec_item_id", "Spec Item ID", "Item ID", "Code", "Tag"},
			FieldCategory:     {"category", "Category"},
			FieldManufacturer: {"manufacturer", "Manufacturer", "Brand"},
			FieldProductName:  {"product_name", "Product Name", "Product"},
			FieldSKU:          {"sku", "SKU", "Model", "Model Number"},
			FieldDescription:  {"description", "Description"},
			FieldQuantity:     {"quantity", "Quantity", "Qty"},
			FieldUOM:          {"uom", "UOM", "Unit", "Unit of Measure"},
		},
	},
	ProfileDesignerPages: {
		Name: ProfileDesignerPages,
		Required: []Field{
			FieldSpecItemID,
			FieldProductName,
			FieldManufacturer,
		},
		Aliases: map[Field][]string{
			FieldSpecItemID:   {"Product ID", "DP ID", "Item #", "Tag", "spec_item_id"},
			FieldCategory:     {"Category", "Product Category"},
			FieldManufacturer: {"Brand", "Manufacturer"},
			FieldProductName:  {"Product Name", "product_name"},
			FieldSKU:          {"Model", "SKU", "Product Number"},
			FieldDescription:  {"Description", "Notes"},
			FieldQuantity:     {"Qty", "Quantity"},
			FieldUOM:          {"Unit", "UOM", "Unit of Measure"},
		},
		InjectDefaults:    true,
		SkipRowsWithoutID: true,
		Dedupe:            true,
	},
}

// LookupProfile returns the named profile, if registered
func LookupProfile(name string) (*Profile, bool) {
	p, ok := Profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// ResolveProfile picks the profile for a file: a known hint wins, then
// designer-pages when both "Product Name" and "Brand" headers are present,
// otherwise default.
func ResolveProfile(hint string, headers []string) *Profile {
	if p, ok := LookupProfile(hint); ok {
		return p
	}

	present := headerSet(headers)
	if present[normalizeHeader("Product Name")] && present[normalizeHeader("Brand")] {
		return Profiles[ProfileDesignerPages]
	}
	return Profiles[ProfileDefault]
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func headerSet(headers []string) map[string]bool {
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[normalizeHeader(h)] = true
	}
	return set
}
