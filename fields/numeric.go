// Package fields holds the locale-tolerant cell parsers used when trade
// exports are ingested. Parsers never fail: malformed input yields a
// documented fallback value and a false ok flag the caller may count.
package fields

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// currencySymbols is stripped from numeric cells. Longer codes come first so
// "R$" is removed whole instead of leaving a stray "R".
var currencySymbols = []string{
	"R$", "USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "NZD",
	"MXN", "COP", "CLP", "PEN", "ARS", "BRL",
	"$", "€", "£", "¥",
}

var numericCleaner = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(currencySymbols)+8)
	for _, s := range currencySymbols {
		pairs = append(pairs, s, "")
	}
	pairs = append(pairs,
		"%", "",
		" ", "",
		"\u00a0", "",
		"\u202f", "",
	)
	return strings.NewReplacer(pairs...)
}()

// ParseNumeric converts a raw numeric cell to float64, returning 0 when the
// cell cannot be read.
func ParseNumeric(raw string) float64 {
	v, _ := ParseNumericDiag(raw)
	return v
}

// ParseNumericDiag is ParseNumeric with a flag telling whether the value was
// actually parsed. Empty cells are reported as parsed with value 0.
//
// Accepted shapes include "$1,234.56", "1.234,56 €", "-50,00", "12%" and the
// accounting form "(50.00)" for negatives.
func ParseNumericDiag(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}

	s = numericCleaner.Replace(s)
	s = strings.TrimRight(s, ",")
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	switch {
	case len(parts) > 2:
		// every separator but the last one groups thousands
		s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	case len(parts) == 2 && parts[1] == "":
		s = parts[0]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if neg {
		d = d.Neg()
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNumericValid reports whether raw would parse without falling back.
// Empty cells are valid.
func IsNumericValid(raw string) bool {
	_, ok := ParseNumericDiag(raw)
	return ok
}
