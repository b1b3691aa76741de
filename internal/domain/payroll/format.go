package payroll

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatCurrency renders an amount as 1,234.50 regardless of host locale.
func FormatCurrency(amount decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return p.Sprint(number.Decimal(amount.Round(2).InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// DecimalPart cuts the first two fraction digits out of the amount's text
// form. It does not round: 1234.567 gives "56".
func DecimalPart(amount decimal.Decimal) string {
	_, frac, ok := strings.Cut(amount.String(), ".")
	if !ok {
		return "00"
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	return frac + strings.Repeat("0", 2-len(frac))
}
