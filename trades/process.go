package trades

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/fields"
	"github.com/rustyeddy/propcheck/market"
	"github.com/rustyeddy/propcheck/rules"
	"github.com/rustyeddy/propcheck/table"
)

// Process normalizes raw and derives the processed trade sequence, sorted by
// entry time. acct may be nil, in which case the planned-risk fields are
// left at zero.
//
// A table missing a Required column fails with a *SchemaError; a table in
// which no entry time can be read fails with an *EmptyResultError. Cells
// that do not parse are read as 0 and counted in the Diagnostics.
func Process(raw table.Table, acct *config.Account) (Result, error) {
	tbl := table.NormalizeColumns(raw)
	if missing := tbl.Missing(Required...); len(missing) > 0 {
		return Result{}, &SchemaError{Missing: missing}
	}

	diag := Diagnostics{Fallbacks: map[string]int{}, Skipped: tbl.Skipped}

	out := make([]Trade, 0, tbl.Len())
	for _, row := range tbl.Rows {
		tr, ok := readRow(tbl, row, &diag)
		if !ok {
			diag.Dropped++
			continue
		}
		out = append(out, tr)
	}
	if len(out) == 0 {
		return Result{Diagnostics: diag}, &EmptyResultError{Dropped: diag.Dropped}
	}

	// every running figure below depends on this order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EntryTime.Before(out[j].EntryTime)
	})

	for i := range out {
		derive(&out[i], tbl.Has(ColMFE))
	}
	accumulate(out)
	if acct != nil {
		plan(out, acct.Rules)
	}
	streaks(out)

	if len(diag.Fallbacks) == 0 {
		diag.Fallbacks = nil
	}
	return Result{Trades: out, Diagnostics: diag}, nil
}

// readRow parses the cells of one row. ok is false when the entry time
// cannot be read.
func readRow(tbl table.Table, row table.Row, diag *Diagnostics) (Trade, bool) {
	num := func(col string) float64 {
		if !tbl.Has(col) {
			return 0
		}
		v, ok := fields.ParseNumericDiag(row.Get(col))
		if !ok {
			diag.Fallbacks[col]++
		}
		return v
	}

	entry, ok := fields.ParseDateTime(row.Get(ColEntryTime))
	if !ok {
		return Trade{}, false
	}

	tr := Trade{
		Number:     row.Get(ColNumber),
		Instrument: row.Get(ColInstrument),
		Account:    row.Get(ColAccount),
		Strategy:   row.Get(ColStrategy),
		Side:       row.Get(ColSide),
		Quantity:   num(ColQuantity),
		EntryPrice: num(ColEntryPrice),
		ExitPrice:  num(ColExitPrice),
		PnL:        num(ColPnL),
		MAE:        num(ColMAE),
		MFE:        num(ColMFE),
		ETD:        num(ColETD),
		EntryTime:  entry,
	}

	if tbl.Has(ColExitTime) {
		if exit, ok := fields.ParseDateTime(row.Get(ColExitTime)); ok {
			tr.ExitTime = exit
		} else {
			diag.BadExitTimes++
		}
	}
	return tr, true
}

// derive fills the per-trade figures that need no other trade.
func derive(tr *Trade, hasMFE bool) {
	if tr.HasExit() {
		tr.DurationMin = math.Max(0, tr.ExitTime.Sub(tr.EntryTime).Minutes())
	}

	tr.Contract = market.Lookup(tr.Instrument)
	if tr.Contract.TickSize > 0 {
		tr.Ticks = (tr.ExitPrice - tr.EntryPrice) / tr.Contract.TickSize
	}
	tr.TickMagnitude = math.Abs(tr.Ticks)
	tr.TicksValue = tr.Ticks * tr.Contract.TickValue
	tr.Points = tr.Ticks * tr.Contract.TickSize

	tr.NetPnL = tr.PnL
	if tr.PnL < 0 {
		tr.NetPnL = -math.Abs(tr.PnL)
	}

	if hasMFE {
		tr.ETD = 0
		if tr.MFE > 0 {
			tr.ETD = tr.MFE - tr.PnL
		}
	}

	tr.TimeOfDay = tr.EntryTime.Format("15:04")
	y, m, d := tr.EntryTime.Date()
	tr.Date = time.Date(y, m, d, 0, 0, 0, 0, tr.EntryTime.Location())
	tr.Win = tr.PnL > 0
}

// accumulate computes the running equity curve in the current order.
func accumulate(ts []Trade) {
	cum := decimal.Zero
	for i := range ts {
		cum = cum.Add(decimal.NewFromFloat(ts[i].NetPnL))
		ts[i].CumPnL = cum.InexactFloat64()

		ts[i].EquityPeak = ts[i].CumPnL
		if i > 0 && ts[i-1].EquityPeak > ts[i].EquityPeak {
			ts[i].EquityPeak = ts[i-1].EquityPeak
		}
		ts[i].Drawdown = math.Abs(ts[i].EquityPeak - ts[i].CumPnL)
	}
}

// plan computes the planned risk and the deviation from it. Deviation is
// measured on the losing side for the stop and on the winning side for the
// target; 0 means the trade closed exactly at plan.
func plan(ts []Trade, set rules.Set) {
	slTicks := set.Get(rules.StopLossTicks).Value.Float()
	tpTicks := set.Get(rules.TakeProfitTicks).Value.Float()

	for i := range ts {
		tr := &ts[i]
		tr.PlannedSL = slTicks * tr.Contract.TickValue
		tr.PlannedTP = tpTicks * tr.Contract.TickValue

		if tr.PlannedSL > 0 {
			tr.RMultiple = tr.NetPnL / tr.PlannedSL
			if tr.NetPnL < 0 {
				tr.SLDeviation = math.Abs(tr.NetPnL)/tr.PlannedSL - 1
			}
		}
		if tr.PlannedTP > 0 && tr.NetPnL > 0 {
			tr.TPDeviation = tr.NetPnL/tr.PlannedTP - 1
		}
	}
}

// streaks counts, for every trade, the losses since the last win.
func streaks(ts []Trade) {
	run := 0
	for i := range ts {
		if ts[i].Win {
			run = 0
		} else {
			run++
		}
		ts[i].LossStreak = run
	}
}

// Accounts lists the distinct accounts in first-seen order.
func Accounts(ts []Trade) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range ts {
		if !seen[t.Account] {
			seen[t.Account] = true
			out = append(out, t.Account)
		}
	}
	return out
}

// FirstEntry returns the earliest entry time of ts, which Process returns
// sorted.
func FirstEntry(ts []Trade) time.Time {
	if len(ts) == 0 {
		return time.Time{}
	}
	return ts[0].EntryTime
}
