package pnl

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		equity   float64
		baseline float64
		pnl      string
		ret      string
		sign     Sign
	}{
		{"gain", 110000, 100000, "10000", "10", Positive},
		{"loss", 90000, 100000, "-10000", "-10", Negative},
		{"flat counts as positive", 100000, 100000, "0", "0", Positive},
		{"fractional", 105000, 100000, "5000", "5", Positive},
		{"small baseline", 1.5, 1, "0.5", "50", Positive},
		{"wiped out", 0, 2500, "-2500", "-100", Negative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Derive(dec(tt.equity), dec(tt.baseline))
			require.NoError(t, err)
			assert.True(t, m.PnL.Equal(decimal.RequireFromString(tt.pnl)), "pnl = %s", m.PnL)
			assert.True(t, m.ReturnPct.Equal(decimal.RequireFromString(tt.ret)), "return = %s", m.ReturnPct)
			assert.Equal(t, tt.sign, m.PnLSign)
			assert.Equal(t, tt.sign, m.ReturnSign)
		})
	}
}

func TestDerive_SignFollowsDisplayedFigure(t *testing.T) {
	tests := []struct {
		name     string
		equity   string
		baseline string
		pnlSign  Sign
		retSign  Sign
	}{
		{"loss rounds to zero", "99999.996", "100000", Positive, Positive},
		{"return rounds to zero", "99999999", "100000000", Negative, Positive},
		{"half cent loss shows", "99999.995", "100000", Negative, Positive},
		{"visible loss", "99000", "100000", Negative, Negative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Derive(decimal.RequireFromString(tt.equity), decimal.RequireFromString(tt.baseline))
			require.NoError(t, err)
			assert.Equal(t, tt.pnlSign, m.PnLSign, "pnl %s", m.PnL)
			assert.Equal(t, tt.retSign, m.ReturnSign, "return %s", m.ReturnPct)
		})
	}
}

func TestDerive_InvalidBaseline(t *testing.T) {
	for _, baseline := range []float64{0, -1, -100000} {
		_, err := Derive(dec(100), dec(baseline))
		assert.ErrorIs(t, err, ErrInvalidBaseline)
	}
}

func TestDerive_RecomputesFromInputs(t *testing.T) {
	first, err := Derive(dec(105000), dec(100000))
	require.NoError(t, err)
	second, err := Derive(dec(105000), dec(50000))
	require.NoError(t, err)

	assert.Equal(t, "5.00", first.ReturnPct.StringFixed(2))
	assert.Equal(t, "110.00", second.ReturnPct.StringFixed(2))
}

func TestSignClass(t *testing.T) {
	assert.Equal(t, "positive", Positive.Class())
	assert.Equal(t, "negative", Negative.Class())
	assert.Equal(t, "POSITIVE", Positive.String())
	assert.Equal(t, "NEGATIVE", Negative.String())
	assert.Equal(t, Positive, SignOf(decimal.Zero))
	assert.Equal(t, Negative, SignOf(dec(-0.01)))
}
