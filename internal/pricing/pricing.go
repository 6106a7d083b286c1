// Package pricing holds the numeric rules shared by the comparison engine, the
// submission versioner and the award state machine.
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NetUnitPrice applies discount and tariff to a list price:
// list × (1 − discount/100) × (1 + tariff/100).
// The result is null when the list price is null; a null discount or tariff counts as zero.
func NetUnitPrice(list, discountPercent, tariffPercent decimal.NullDecimal) decimal.NullDecimal {
	if !list.Valid {
		return decimal.NullDecimal{}
	}

	discount := decimal.Zero
	if discountPercent.Valid {
		discount = discountPercent.Decimal
	}
	tariff := decimal.Zero
	if tariffPercent.Valid {
		tariff = tariffPercent.Decimal
	}

	net := list.Decimal.
		Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred))).
		Mul(decimal.NewFromInt(1).Add(tariff.Div(hundred)))

	return decimal.NewNullDecimal(net)
}

// ExtendedPrice is net × quantity rounded to 4 places, null when net is null
func ExtendedPrice(net decimal.NullDecimal, quantity decimal.Decimal) decimal.NullDecimal {
	if !net.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(Round4(net.Decimal.Mul(quantity)))
}

// Round4 rounds half away from zero to 4 decimal places
func Round4(d decimal.Decimal) decimal.Decimal {
	return d.Round(4)
}

// Round2 rounds half away from zero to 2 decimal places
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Mean returns the arithmetic mean of values rounded to 4 places, or null for an empty slice
func Mean(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	sum := decimal.Sum(values[0], values[1:]...)
	return decimal.NewNullDecimal(Round4(sum.Div(decimal.NewFromInt(int64(len(values))))))
}

// Min returns the smallest value, or null for an empty slice
func Min(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.Min(values[0], values[1:]...))
}

// SumNullable adds every valid value, treating nulls as zero
func SumNullable(values ...decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		if v.Valid {
			total = total.Add(v.Decimal)
		}
	}
	return total
}

// Text renders a nullable decimal as text, or nil when null
func Text(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

// TextOrEmpty renders a nullable decimal as text, or "" when null
func TextOrEmpty(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
