// Package money formats monetary amounts for display.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every figure is shown with.
const Places = 2

const (
	symbol    = "$"
	separator = ","
)

// Format renders amount as a dollar figure with two fractional digits and a
// thousands separator: -1234.565 becomes "-$1,234.57". Rounding is half away
// from zero; amounts that round to zero carry no sign.
func Format(amount decimal.Decimal) string {
	rounded := amount.Round(Places)
	digits := rounded.Abs().StringFixed(Places)

	intPart, frac, _ := strings.Cut(digits, ".")

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	b.WriteString(group(intPart))
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FromFloat converts a float64, reporting false for NaN and ±Inf.
func FromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// Price renders a quote without grouping, e.g. "$150.00".
func Price(price decimal.Decimal) string {
	if price.IsNegative() {
		return "-" + symbol + price.Abs().StringFixed(Places)
	}
	return symbol + price.StringFixed(Places)
}

// Plain renders amount with two fractional digits and nothing else.
func Plain(amount decimal.Decimal) string {
	return amount.StringFixed(Places)
}

// Percent renders pct as "5.00%".
func Percent(pct decimal.Decimal) string {
	return pct.StringFixed(Places) + "%"
}

func group(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteString(separator)
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String()
}
