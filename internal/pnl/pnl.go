// Package pnl derives profit-and-loss figures from account equity and the
// operator's investment baseline.
package pnl

import (
	"errors"

	"simdash/internal/money"

	"github.com/shopspring/decimal"
)

// ErrInvalidBaseline is returned when the baseline is zero or negative and
// no return ratio can be computed.
var ErrInvalidBaseline = errors.New("pnl: baseline must be positive")

// Sign classifies a figure for styling. Zero counts as positive.
type Sign int

const (
	Positive Sign = iota
	Negative
)

// Class is the style class used on the render surface.
func (s Sign) Class() string {
	if s == Negative {
		return "negative"
	}
	return "positive"
}

func (s Sign) String() string {
	if s == Negative {
		return "NEGATIVE"
	}
	return "POSITIVE"
}

// SignOf returns Positive for v >= 0.
func SignOf(v decimal.Decimal) Sign {
	if v.IsNegative() {
		return Negative
	}
	return Positive
}

var hundred = decimal.NewFromInt(100)

// Metrics is the derived view of one equity figure against a baseline.
type Metrics struct {
	PnL        decimal.Decimal
	ReturnPct  decimal.Decimal
	PnLSign    Sign
	ReturnSign Sign
}

// Derive computes pnl = equity - baseline and returnPct = 100 * pnl / baseline.
// Signs follow the figures as displayed, rounded to money.Places, so a loss
// that rounds to zero is Positive.
func Derive(equity, baseline decimal.Decimal) (Metrics, error) {
	if !baseline.IsPositive() {
		return Metrics{}, ErrInvalidBaseline
	}

	pnl := equity.Sub(baseline)
	ret := pnl.Mul(hundred).Div(baseline)

	return Metrics{
		PnL:        pnl,
		ReturnPct:  ret,
		PnLSign:    SignOf(pnl.Round(money.Places)),
		ReturnSign: SignOf(ret.Round(money.Places)),
	}, nil
}
