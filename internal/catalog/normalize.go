package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row is one canonical spec item produced by Normalize
type Row struct {
	SpecItemID   string          `json:"specItemId"`
	Category     string          `json:"category"`
	Manufacturer string          `json:"manufacturer"`
	ProductName  string          `json:"productName"`
	SKU          string          `json:"sku"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UOM          string          `json:"uom"`
}

// Result is the outcome of normalizing one file
type Result struct {
	Rows     []Row    `json:"rows"`
	Errors   []string `json:"errors"`
	RowCount int      `json:"rowCount"`
	Profile  string   `json:"profile"`
}

// HasErrors reports whether any file or row error was produced
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// designer-pages defaults applied to blank fields once an external id is known
var designerPagesDefaults = map[Field]func(id string) string{
	FieldQuantity:     func(string) string { return "1" },
	FieldUOM:          func(string) string { return "EA" },
	FieldSKU:          func(id string) string { return id },
	FieldProductName:  func(id string) string { return "Product " + id },
	FieldManufacturer: func(string) string { return "Unknown" },
	FieldCategory:     func(string) string { return "Uncategorized" },
	FieldDescription:  func(string) string { return "" },
}

// Normalize parses raw CSV text under the resolved profile. It never fails:
// malformed input, header problems and row problems are all reported in Result.Errors.
func Normalize(rawText, profileHint string) Result {
	headers, records, err := parseCSV(rawText)
	if err != nil {
		profile := ResolveProfile(profileHint, nil)
		return Result{
			Rows:    []Row{},
			Errors:  []string{err.Error()},
			Profile: profile.Name,
		}
	}

	profile := ResolveProfile(profileHint, headers)
	result := Result{
		Rows:     []Row{},
		Errors:   []string{},
		RowCount: len(records),
		Profile:  profile.Name,
	}

	columns, headerErrs := resolveColumns(profile, headers)
	if len(headerErrs) > 0 {
		result.Errors = append(result.Errors, headerErrs...)
		return result
	}

	seen := make(map[string]bool)
	for _, record := range records {
		rowNumber := record.row

		values := extractValues(columns, record.fields)

		if profile.SkipRowsWithoutID && values[FieldSpecItemID] == "" {
			continue
		}
		if profile.InjectDefaults {
			applyDefaults(values)
		}

		quantity, rowErrs := validateRow(profile, values, rowNumber)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}

		id := values[FieldSpecItemID]
		if id == "" {
			id = uuid.New().String()
		}
		if profile.Dedupe {
			id = nextFreeID(id, seen)
		}
		seen[id] = true

		result.Rows = append(result.Rows, Row{
			SpecItemID:   id,
			Category:     values[FieldCategory],
			Manufacturer: values[FieldManufacturer],
			ProductName:  values[FieldProductName],
			SKU:          values[FieldSKU],
			Description:  values[FieldDescription],
			Quantity:     quantity,
			UOM:          values[FieldUOM],
		})
	}

	return result
}

// Disambiguate renames rows whose external id is already taken in the
// package or repeats an earlier row of the same batch, using the same -2, -3
// suffix scheme as the designer-pages profile.
func Disambiguate(rows []Row, taken map[string]bool) []Row {
	used := make(map[string]bool, len(taken)+len(rows))
	for id := range taken {
		used[id] = true
	}
	for _, r := range rows {
		used[r.SpecItemID] = true
	}

	assigned := make(map[string]bool, len(rows))
	out := make([]Row, len(rows))
	for i, r := range rows {
		if taken[r.SpecItemID] || assigned[r.SpecItemID] {
			r.SpecItemID = nextFreeID(r.SpecItemID, used)
			used[r.SpecItemID] = true
		}
		assigned[r.SpecItemID] = true
		out[i] = r
	}
	return out
}

func nextFreeID(id string, used map[string]bool) string {
	if !used[id] {
		return id
	}
	for n := 2; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if !used[candidate] {
			return candidate
		}
	}
}

// csvRecord is a data record with its row number, counted from the header
// row as row 1. Blank lines still count towards the number.
type csvRecord struct {
	row    int
	fields []string
}

func parseCSV(rawText string) ([]string, []csvRecord, error) {
	text := strings.TrimPrefix(rawText, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, nil, errors.New("CSV file is empty")
	}

	reader := csv.NewReader(bytes.NewBufferString(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("Unable to parse CSV: %v", err)
	}
	headerLine, _ := reader.FieldPos(0)

	var records []csvRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("Unable to parse CSV: %v", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, csvRecord{row: line - headerLine + 1, fields: record})
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	return headers, records, nil
}

// resolveColumns maps every canonical field to the header indexes of its
// present aliases, in alias preference order.
func resolveColumns(profile *Profile, headers []string) (map[Field][]int, []string) {
	var errs []string

	index := make(map[string]int, len(headers))
	reported := make(map[string]bool)
	for i, h := range headers {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := index[key]; dup {
			if !reported[key] {
				errs = append(errs, fmt.Sprintf("Duplicate column header: %s", h))
				reported[key] = true
			}
			continue
		}
		index[key] = i
	}

	columns := make(map[Field][]int, len(CanonicalFields))
	for _, field := range CanonicalFields {
		for _, alias := range profile.Aliases[field] {
			if i, ok := index[normalizeHeader(alias)]; ok {
				columns[field] = append(columns[field], i)
			}
		}
	}

	for _, field := range profile.Required {
		if len(columns[field]) == 0 {
			errs = append(errs, fmt.Sprintf("Missing required column for %s (expected one of: %s)",
				field, strings.Join(profile.Aliases[field], ", ")))
		}
	}

	return columns, errs
}

func extractValues(columns map[Field][]int, record []string) map[Field]string {
	values := make(map[Field]string, len(CanonicalFields))
	for _, field := range CanonicalFields {
		for _, i := range columns[field] {
			if i >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[i]); v != "" {
				values[field] = v
				break
			}
		}
	}
	return values
}

func applyDefaults(values map[Field]string) {
	id := values[FieldSpecItemID]
	for _, field := range CanonicalFields {
		fill, ok := designerPagesDefaults[field]
		if !ok || values[field] != "" {
			continue
		}
		values[field] = fill(id)
	}
}

func validateRow(profile *Profile, values map[Field]string, rowNumber int) (decimal.Decimal, []string) {
	var errs []string

	quantity, err := decimal.NewFromString(strings.ReplaceAll(values[FieldQuantity], ",", ""))
	if err != nil || !quantity.IsPositive() {
		errs = append(errs, fmt.Sprintf("Row %d: quantity must be numeric and > 0", rowNumber))
	}

	for _, field := range profile.Required {
		if field == FieldQuantity {
			continue
		}
		if values[field] == "" {
			errs = append(errs, fmt.Sprintf("Row %d: %s is required", rowNumber, field))
		}
	}

	return quantity, errs
}
