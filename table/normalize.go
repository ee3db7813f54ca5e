package table

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// renames maps legacy and English header spellings onto the canonical
// names. No target may appear as a key, or normalizing would not be
// idempotent.
var renames = map[string]string{
	// legacy spellings of the trade-grid export
	"numero_de_trade":  "numero_trade",
	"mercado_posicion": "mercado_pos",

	// English exports
	"trade_number": "numero_trade",
	"instrument":   "instrumento",
	"account":      "cuenta",
	"strategy":     "estrategia",
	"market_pos":   "mercado_pos",
	"qty":          "cant",
	"quantity":     "cant",
	"entry_price":  "precio_de_entrada",
	"exit_price":   "precio_de_salida",
	"entry_time":   "tiempo_de_entrada",
	"exit_time":    "tiempo_de_salida",
	"profit":       "ganancias",
}

// NormalizeColumn canonicalizes a single header: trimmed, lower case,
// underscores for spaces, accents removed, trailing punctuation removed and
// known aliases renamed. NormalizeColumn(NormalizeColumn(s)) == NormalizeColumn(s).
func NormalizeColumn(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	s = stripAccents(s)
	s = strings.TrimRightFunc(s, isTrailingJunk)
	if to, ok := renames[s]; ok {
		s = to
	}
	return s
}

// NormalizeColumns returns a copy of t with canonical column names. When two
// headers collapse onto the same name the first one wins and the later
// column is dropped.
func NormalizeColumns(t Table) Table {
	out := Table{Skipped: t.Skipped}

	mapping := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		n := NormalizeColumn(c)
		if _, dup := mapping[c]; dup {
			continue
		}
		if out.Has(n) {
			continue
		}
		mapping[c] = n
		out.Columns = append(out.Columns, n)
	}

	out.Rows = make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		nr := make(Row, len(mapping))
		for from, to := range mapping {
			if v, ok := r[from]; ok {
				nr[to] = v
			}
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// isTrailingJunk matches what may trail a header: ASCII punctuation and any
// whitespace the first trim left behind it, such as "Ganancias\u00a0.".
func isTrailingJunk(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(asciiPunctuation, r)
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
