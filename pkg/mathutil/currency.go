// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Half-way values round away from zero.
func Round(val float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	rounded, _ := decimal.NewFromFloat(val).Round(constants.DecimalPlaces).Float64()
	return rounded
}

// ToCents converts a currency amount into an integer number of cents.
func ToCents(val float64) decimal.Decimal {
	return decimal.NewFromFloat(val).Shift(constants.DecimalPlaces).Round(0)
}

// FromCents converts a number of cents back into a currency amount.
func FromCents(cents decimal.Decimal) float64 {
	f, _ := cents.Shift(-constants.DecimalPlaces).Float64()
	return f
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// WithinRelative checks whether two values agree to the given relative
// tolerance. Values near zero are compared absolutely.
func WithinRelative(val1, val2, tolerance float64) bool {
	scale := math.Max(math.Abs(val1), math.Abs(val2))
	if scale < 1 {
		return math.Abs(val1-val2) <= tolerance
	}
	return math.Abs(val1-val2)/scale <= tolerance
}

// ClampZero returns val, or 0 when val is negative.
func ClampZero(val float64) float64 {
	if val < 0 {
		return 0
	}
	return val
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}
