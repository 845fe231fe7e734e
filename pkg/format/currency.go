// Package format renders amounts for human consumption.
package format

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol prefixes every amount rendered by Currency.
const CurrencySymbol = "€"

var printer = message.NewPrinter(language.English)

// Currency returns a currency string with a euro sign and thousands separators (e.g., "-€1,234.56").
func Currency(amount float64) string {
	formatted := printer.Sprintf("%.2f", math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-" + CurrencySymbol + formatted
	}
	return CurrencySymbol + formatted
}

// Percent renders a percentage with one decimal (e.g., "72.5%").
func Percent(value float64) string {
	return printer.Sprintf("%.1f%%", value)
}

// Surface renders a surface in square meters, dropping a zero fraction
// (e.g., "140 m²", "1,062.5 m²").
func Surface(value float64) string {
	text := strings.TrimSuffix(strings.TrimRight(printer.Sprintf("%.2f", value), "0"), ".")
	return text + " m²"
}
