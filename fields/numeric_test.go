package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumeric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"plain", "12.5", 12.5},
		{"dollar thousands", "$1,234.56", 1234.56},
		{"comma decimal thousands dot", "1.234,56", 1234.56},
		{"euro suffix", "1.234,56 €", 1234.56},
		{"real", "R$ 99,90", 99.90},
		{"currency code", "USD 250", 250},
		{"negative comma", "-50,00", -50},
		{"accounting negative", "($50.00)", -50},
		{"percent", "12,5%", 12.5},
		{"trailing comma", "100,", 100},
		{"trailing dot", "100.", 100},
		{"many groups", "1.234.567,89", 1234567.89},
		{"nbsp grouping", "1\u00a0234,5", 1234.5},
		{"empty", "", 0},
		{"garbage", "abc", 0},
		{"only symbol", "$", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ParseNumeric(tt.raw), 1e-9)
		})
	}
}

func TestParseNumericSymbolIndependent(t *testing.T) {
	t.Parallel()

	want := ParseNumeric("1234.56")
	for _, raw := range []string{"$1,234.56", "1.234,56", "€1.234,56", "1 234,56 EUR", "£1,234.56"} {
		assert.InDelta(t, want, ParseNumeric(raw), 1e-9, raw)
	}
}

func TestParseNumericDiag(t *testing.T) {
	t.Parallel()

	v, ok := ParseNumericDiag("n/a")
	assert.False(t, ok)
	assert.Zero(t, v)

	v, ok = ParseNumericDiag("  ")
	assert.True(t, ok)
	assert.Zero(t, v)

	v, ok = ParseNumericDiag("-12,25 $")
	assert.True(t, ok)
	assert.InDelta(t, -12.25, v, 1e-9)
}

func TestParseNumericDiagOverflow(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"1e400", "-1e400", "(1e400)", "1e400 $"} {
		v, ok := ParseNumericDiag(raw)
		assert.False(t, ok, raw)
		assert.Zero(t, v, raw)
		assert.False(t, IsNumericValid(raw), raw)
	}

	v, ok := ParseNumericDiag("1e300")
	assert.True(t, ok)
	assert.InDelta(t, 1e300, v, 1e285)
}

func TestIsNumericValid(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNumericValid(""))
	assert.True(t, IsNumericValid("1.234,56"))
	assert.True(t, IsNumericValid("$10"))
	assert.False(t, IsNumericValid("ten"))
	assert.False(t, IsNumericValid("1-2"))
}
