package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/metrics"
	"github.com/rustyeddy/propcheck/rules"
	"github.com/rustyeddy/propcheck/table"
	"github.com/rustyeddy/propcheck/trades"
)

type fill struct {
	entry string
	exit  string
	pnl   string
	qty   string
}

func account10k() *config.Account {
	acct := config.Default()
	acct.AccountSize = 10000
	acct.MaxDrawdownUSD = 1000
	return acct
}

func evaluate(t *testing.T, acct *config.Account, fills ...fill) []Verdict {
	t.Helper()

	tbl := table.Table{Columns: []string{
		"cuenta", "instrumento", "mercado_pos", "cant", "precio_de_entrada", "precio_de_salida",
		"tiempo_de_entrada", "tiempo_de_salida", "ganancias",
	}}
	for _, f := range fills {
		tbl.Rows = append(tbl.Rows, table.Row{
			"cuenta":            "A1",
			"instrumento":       "MES 03-24",
			"mercado_pos":       "Long",
			"cant":              f.qty,
			"precio_de_entrada": "4800",
			"precio_de_salida":  "4801",
			"tiempo_de_entrada": f.entry,
			"tiempo_de_salida":  f.exit,
			"ganancias":         f.pnl,
		})
	}

	var ts []trades.Trade
	if len(fills) > 0 {
		res, err := trades.Process(tbl, acct)
		require.NoError(t, err)
		ts = res.Trades
	}

	calc := metrics.Calculator{Now: func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }}
	snap := calc.Calculate(ts, trades.FirstEntry(ts), acct)
	return Evaluate(ts, snap, acct)
}

func find(t *testing.T, vs []Verdict, k rules.Key) Verdict {
	t.Helper()
	for _, v := range vs {
		if v.Key == k {
			return v
		}
	}
	require.Failf(t, "verdict missing", "%s", k)
	return Verdict{}
}

func TestEvaluateOrder(t *testing.T) {
	t.Parallel()

	vs := evaluate(t, account10k(), fill{entry: "15/01/2024 10:00:00", pnl: "10"})
	require.Len(t, vs, 15)

	var keys []rules.Key
	for _, v := range vs {
		keys = append(keys, v.Key)
	}
	assert.Equal(t, Keys(), keys)
	assert.Equal(t, Fatal, vs[0].Category)
	assert.Equal(t, Critical, vs[3].Category)
	assert.Equal(t, Important, vs[6].Category)
	assert.Equal(t, Operational, vs[14].Category)
}

func TestDailyLossScenario(t *testing.T) {
	t.Parallel()

	vs := evaluate(t, account10k(),
		fill{entry: "15/01/2024 10:00:00", pnl: "-400"},
		fill{entry: "15/01/2024 11:00:00", pnl: "-200"},
		fill{entry: "16/01/2024 10:00:00", pnl: "300"},
	)

	v := find(t, vs, rules.DailyLossMaxPct)
	assert.Equal(t, 600.0, v.Observed)
	assert.Equal(t, 500.0, v.Threshold)
	assert.Equal(t, rules.Num(5), v.Limit)
	assert.False(t, v.Compliant)
	assert.Equal(t, Critical, v.Category)

	w := find(t, vs, rules.WeeklyLossMaxPct)
	assert.Equal(t, 300.0, w.Observed)
	assert.True(t, w.Compliant)
}

func TestMinTradingDaysScenario(t *testing.T) {
	t.Parallel()

	days := []fill{
		{entry: "15/01/2024 10:00:00", pnl: "10"},
		{entry: "16/01/2024 10:00:00", pnl: "10"},
		{entry: "16/01/2024 12:00:00", pnl: "10"},
		{entry: "17/01/2024 10:00:00", pnl: "10"},
	}

	tests := []struct {
		limit     float64
		compliant bool
	}{
		{5, false},
		{2, true},
		{3, true},
	}
	for _, tt := range tests {
		acct := account10k()
		acct.Rules[rules.MinTradingDays] = rules.Rule{DisplayName: "Min days", Value: rules.Num(tt.limit)}

		v := find(t, evaluate(t, acct, days...), rules.MinTradingDays)
		assert.Equal(t, 3.0, v.Observed)
		assert.Equal(t, tt.compliant, v.Compliant, "limit %v", tt.limit)
	}
}

func TestFatalRules(t *testing.T) {
	t.Parallel()

	acct := account10k()
	acct.ContractLimit = 3

	vs := evaluate(t, acct,
		fill{entry: "15/01/2024 07:45:00", exit: "15/01/2024 09:00:00", pnl: "600", qty: "2"},
		fill{entry: "15/01/2024 08:30:00", exit: "15/01/2024 08:45:00", pnl: "-900", qty: "2"},
		fill{entry: "15/01/2024 09:00:00", exit: "15/01/2024 09:10:00", pnl: "-200", qty: "1"},
	)

	dd := find(t, vs, rules.TrailingDrawdown)
	assert.Equal(t, 1100.0, dd.Observed)
	assert.Equal(t, 1000.0, dd.Threshold)
	assert.False(t, dd.Compliant)
	assert.Contains(t, dd.Message, "balance floor")

	contracts := find(t, vs, rules.ContractLimit)
	assert.Equal(t, 4.0, contracts.Observed)
	assert.False(t, contracts.Compliant)

	overnight := find(t, vs, rules.OvernightPositions)
	assert.Equal(t, 1.0, overnight.Observed, "one entry before 08:00")
	assert.False(t, overnight.Compliant)
}

func TestFatalRulesNotConfigured(t *testing.T) {
	t.Parallel()

	acct := account10k()
	acct.MaxDrawdownUSD = 0
	acct.MaxDrawdownPct = 0

	vs := evaluate(t, acct, fill{entry: "15/01/2024 09:00:00", pnl: "-300"})
	for _, k := range []rules.Key{rules.TrailingDrawdown, rules.ContractLimit} {
		v := find(t, vs, k)
		assert.True(t, v.Compliant, k)
		assert.Equal(t, "not configured", v.Message, k)
	}
}

func TestDrawdownLimitFromPct(t *testing.T) {
	t.Parallel()

	acct := account10k()
	acct.MaxDrawdownUSD = 0
	acct.MaxDrawdownPct = 2

	vs := evaluate(t, acct,
		fill{entry: "15/01/2024 09:00:00", pnl: "100"},
		fill{entry: "15/01/2024 10:00:00", pnl: "-250"},
	)
	v := find(t, vs, rules.TrailingDrawdown)
	assert.Equal(t, 200.0, v.Threshold)
	assert.Equal(t, 250.0, v.Observed)
	assert.False(t, v.Compliant)
}

func TestImportantRules(t *testing.T) {
	t.Parallel()

	acct := account10k()
	acct.Rules[rules.StopLossTicks] = rules.Rule{Value: rules.Num(8)}   // 10 USD on MES
	acct.Rules[rules.TakeProfitTicks] = rules.Rule{Value: rules.Num(8)} // 10 USD on MES

	vs := evaluate(t, acct,
		fill{entry: "15/01/2024 09:00:00", pnl: "-12"},
		fill{entry: "15/01/2024 10:00:00", pnl: "-13"},
		fill{entry: "15/01/2024 11:00:00", pnl: "20"},
		fill{entry: "15/01/2024 16:30:00", pnl: "5"},
	)

	sl := find(t, vs, rules.StopLossTicks)
	assert.Equal(t, 1.0, sl.Observed, "only -13 is more than 25% past the stop")
	assert.False(t, sl.Compliant)

	tp := find(t, vs, rules.TakeProfitTicks)
	assert.Equal(t, 1.0, tp.Observed)

	for _, k := range []rules.Key{rules.SessionStart, rules.SessionEnd} {
		v := find(t, vs, k)
		assert.Equal(t, 1.0, v.Observed, k)
		assert.False(t, v.Compliant, k)
	}

	stop := find(t, vs, rules.StopLossMandatory)
	assert.True(t, stop.Compliant, "not mandatory by default")
}

func TestOperationalRules(t *testing.T) {
	t.Parallel()

	acct := account10k()
	acct.Rules[rules.DailyGainMaxPct] = rules.Rule{Value: rules.Num(5)}
	acct.Rules[rules.ContractMultiplier] = rules.Rule{Value: rules.Num(2)}
	acct.Rules[rules.ConsistencyPct] = rules.Rule{Value: rules.Num(60)}

	vs := evaluate(t, acct,
		fill{entry: "15/01/2024 09:00:00", pnl: "700", qty: "3"},
		fill{entry: "16/01/2024 09:00:00", pnl: "-100", qty: "1"},
	)

	gain := find(t, vs, rules.DailyGainMaxPct)
	assert.InDelta(t, 7.0, gain.Observed, 1e-9)
	assert.False(t, gain.Compliant)

	mult := find(t, vs, rules.ContractMultiplier)
	assert.Equal(t, 3.0, mult.Observed)
	assert.False(t, mult.Compliant)

	cons := find(t, vs, rules.ConsistencyPct)
	assert.Equal(t, 50.0, cons.Observed)
	assert.True(t, cons.Compliant)

	streak := find(t, vs, rules.ConsecutiveLossMax)
	assert.Equal(t, 1.0, streak.Observed)
	assert.True(t, streak.Compliant)
}

func TestEvaluateEmpty(t *testing.T) {
	t.Parallel()

	vs := evaluate(t, account10k())
	require.Len(t, vs, 15)
	for _, v := range vs {
		assert.True(t, v.Compliant, v.Key)
		assert.Zero(t, v.Observed, v.Key)
	}
	assert.Empty(t, Violations(vs))
}

func TestEvaluateFallback(t *testing.T) {
	t.Parallel()

	acct := account10k()
	acct.AccountSize = 0
	acct.Rules[rules.SessionStart] = rules.Rule{Value: rules.Text("sunrise")}

	vs := evaluate(t, acct,
		fill{entry: "15/01/2024 09:00:00", pnl: "-700"},
	)

	for _, k := range []rules.Key{rules.DailyLossMaxPct, rules.DailyGainMaxPct, rules.OvernightPositions} {
		v := find(t, vs, k)
		assert.True(t, v.Fallback, k)
		assert.True(t, v.Compliant, k)
		assert.Zero(t, v.Observed, k)
	}

	// the other rules still ran
	streak := find(t, vs, rules.ConsecutiveLossMax)
	assert.False(t, streak.Fallback)
	assert.Equal(t, 1.0, streak.Observed)
	assert.Len(t, vs, 15)
}

func TestChecksReportErrors(t *testing.T) {
	t.Parallel()

	acct := account10k()
	acct.AccountSize = 0
	acct.Rules[rules.SessionStart] = rules.Rule{Value: rules.Text("sunrise")}
	in := input{
		trades: []trades.Trade{{TimeOfDay: "09:00"}},
		acct:   acct,
	}

	tests := []struct {
		key     rules.Key
		wantErr string
	}{
		{rules.DailyLossMaxPct, ErrNoAccountSize.Error()},
		{rules.WeeklyLossMaxPct, ErrNoAccountSize.Error()},
		{rules.DailyGainMaxPct, ErrNoAccountSize.Error()},
		{rules.OvernightPositions, "not a time of day"},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			var v Verdict
			err := checks[tt.key](in, &v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			got := evaluateOne(in, Critical, tt.key)
			assert.True(t, got.Fallback)
			assert.True(t, got.Compliant)
			assert.Zero(t, got.Observed)
			assert.Zero(t, got.Threshold)
			assert.Equal(t, "not evaluated: "+err.Error(), got.Message)
		})
	}
}

func TestEvaluateOneUnknownRule(t *testing.T) {
	t.Parallel()

	in := input{trades: []trades.Trade{{}}, acct: account10k()}
	v := evaluateOne(in, Operational, rules.Key("NO_SUCH_RULE"))
	assert.True(t, v.Fallback)
	assert.True(t, v.Compliant)
	assert.Equal(t, "not evaluated: no check for NO_SUCH_RULE", v.Message)
}
