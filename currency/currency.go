// Package currency formats VND amounts for display. VND carries no minor
// unit, so amounts are whole numbers with Vietnamese digit grouping.
package currency

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is shown when no price is available for a product yet.
const Placeholder = "Liên hệ"

var printer = message.NewPrinter(language.Vietnamese)

func Format(amount decimal.Decimal) string {
	return printer.Sprintf("%v ₫", number.Decimal(amount.Round(0).IntPart()))
}

// FormatPtr renders a possibly-absent amount; nil yields the placeholder.
func FormatPtr(amount *decimal.Decimal) string {
	if amount == nil {
		return Placeholder
	}
	return Format(*amount)
}
