package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/propcheck/compliance"
	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/metrics"
	"github.com/rustyeddy/propcheck/table"
	"github.com/rustyeddy/propcheck/trades"
)

// sampleRecord evaluates four ES trades on a 10k account.
func sampleRecord(t *testing.T, runID string) Record {
	t.Helper()

	tbl := table.Table{Columns: []string{
		"numero_trade", "cuenta", "instrumento", "mercado_pos", "precio_de_entrada",
		"precio_de_salida", "tiempo_de_entrada", "tiempo_de_salida", "ganancias",
	}}
	pnls := []string{"100", "-50", "-650", "200"}
	for i, p := range pnls {
		entry := time.Date(2024, 1, 15, 9+i, 0, 0, 0, time.UTC)
		tbl.Rows = append(tbl.Rows, table.Row{
			"numero_trade":      string(rune('1' + i)),
			"cuenta":            "APEX-1",
			"instrumento":       "ES 03-24",
			"mercado_pos":       "Long",
			"precio_de_entrada": "4800",
			"precio_de_salida":  "4801",
			"tiempo_de_entrada": entry.Format("02/01/2006 15:04:05"),
			"tiempo_de_salida":  entry.Add(10 * time.Minute).Format("02/01/2006 15:04:05"),
			"ganancias":         p,
		})
	}

	acct := config.Default()
	acct.AccountSize = 10000

	res, err := trades.Process(tbl, acct)
	require.NoError(t, err)

	calc := metrics.Calculator{Now: func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }}
	snap := calc.Calculate(res.Trades, trades.FirstEntry(res.Trades), acct)
	vs := compliance.Evaluate(res.Trades, snap, acct)

	return NewRecord(runID, "trades.csv", "Apex_10000", acct, res.Trades, snap, vs)
}
