package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"1234567.5", "$1,234,567.50"},
		{"-42", "-$42.00"},
		{"0", "$0.00"},
		{"999.99", "$999.99"},
		{"1000", "$1,000.00"},
		{"100000", "$100,000.00"},
		{"5000", "$5,000.00"},
		{"-1234.56", "-$1,234.56"},
		{"0.005", "$0.01"},
		{"-0.005", "-$0.01"},
		{"-0.004", "$0.00"},
		{"1.235", "$1.24"},
		{"-1.235", "-$1.24"},
		{"999999.995", "$1,000,000.00"},
		{"12", "$12.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "$150.00", Price(decimal.NewFromFloat(150)))
	assert.Equal(t, "$1500.25", Price(decimal.RequireFromString("1500.25")), "prices are not grouped")
	assert.Equal(t, "$0.00", Price(decimal.Zero))
}

func TestPlainAndPercent(t *testing.T) {
	assert.Equal(t, "150.00", Plain(decimal.NewFromInt(150)))
	assert.Equal(t, "5.00%", Percent(decimal.NewFromInt(5)))
	assert.Equal(t, "-10.00%", Percent(decimal.NewFromInt(-10)))
	assert.Equal(t, "0.13%", Percent(decimal.RequireFromString("0.125")))
}
