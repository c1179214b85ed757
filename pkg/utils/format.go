package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatNumber renders v with thousands separators and exactly decimals
// fraction digits, e.g. FormatNumber(4506, 2) = "4,506.00".
func FormatNumber(v float64, decimals int) string {
	return printer.Sprint(number.Decimal(v, number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals)))
}

// FormatUSDPerKg renders a normalized price with four decimals.
func FormatUSDPerKg(v float64) string {
	return FormatNumber(v, 4)
}

// FormatRawPrice renders a source price: two decimals, or four below one
// unit so quotes like 0.8 USD/kg keep their precision.
func FormatRawPrice(v float64) string {
	if v != 0 && v < 1 && v > -1 {
		return FormatNumber(v, 4)
	}
	return FormatNumber(v, 2)
}
