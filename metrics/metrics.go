// Package metrics aggregates a processed trade sequence into the
// performance snapshot an evaluation account is judged by.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/rules"
	"github.com/rustyeddy/propcheck/trades"
)

// Daily-loss status values.
const (
	StatusOK       = "OK"
	StatusExceeded = "EXCEEDED"
)

// Bucket is the realized PnL of one trading day or week.
type Bucket struct {
	Start  time.Time `json:"start"`
	PnL    float64   `json:"pnl"`
	Trades int       `json:"trades"`
	Wins   int       `json:"wins"`
}

// WinPct is the share of winning trades in the bucket, in percent.
func (b Bucket) WinPct() float64 {
	if b.Trades == 0 {
		return 0
	}
	return float64(b.Wins) / float64(b.Trades) * 100
}

// Snapshot is the performance summary of one trade sequence against one
// account. It is computed once and never updated.
type Snapshot struct {
	Start         time.Time `json:"start"`
	Today         time.Time `json:"today"`
	DaysElapsed   int       `json:"days_elapsed"`
	DaysRemaining int       `json:"days_remaining"`
	TradingDays   int       `json:"trading_days"`

	PnLTotal    float64 `json:"pnl_total"`
	ProgressPct float64 `json:"progress_pct"`
	MaxDrawdown float64 `json:"max_drawdown"`

	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`

	AvgWinTicks  float64 `json:"avg_win_ticks"`
	AvgLossTicks float64 `json:"avg_loss_ticks"`
	RiskReward   float64 `json:"risk_reward"`
	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`

	AvgMAE float64 `json:"avg_mae"`
	AvgMFE float64 `json:"avg_mfe"`
	AvgETD float64 `json:"avg_etd"`

	DailyLossStatus  string  `json:"daily_loss_status"`
	DailyConsistency float64 `json:"daily_consistency"`
	MaxLossStreak    int     `json:"max_loss_streak"`
	OutOfWindow      int     `json:"out_of_window"`
	SLViolations     int     `json:"sl_violations"`

	Days  []Bucket `json:"days"`
	Weeks []Bucket `json:"weeks"`
}

// Calculator computes snapshots. Now supplies the current date and defaults
// to time.Now.
type Calculator struct {
	Now func() time.Time
}

// Calculate computes a snapshot with the wall clock as today.
func Calculate(ts []trades.Trade, start time.Time, acct *config.Account) Snapshot {
	return Calculator{}.Calculate(ts, start, acct)
}

// Calculate summarizes ts, the output of trades.Process, for acct. start is
// the first day of the evaluation. A nil acct is read as an empty account
// with the default rulebook.
func (c Calculator) Calculate(ts []trades.Trade, start time.Time, acct *config.Account) Snapshot {
	if acct == nil {
		acct = &config.Account{}
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	today := dateOf(now())
	start = dateOf(start)

	s := Snapshot{
		Start:           start,
		Today:           today,
		DaysElapsed:     int(today.Sub(start).Hours()/24) + 1,
		TotalTrades:     len(ts),
		DailyLossStatus: StatusOK,
	}
	s.DaysRemaining = max(0, acct.TrialDays-s.DaysElapsed)

	var (
		total, gross, loss decimal.Decimal
		winSum, lossSum    float64
		lossN              int
		maeSum, mfeSum     float64
		etdSum             float64
	)
	for _, t := range ts {
		total = total.Add(decimal.NewFromFloat(t.PnL))
		switch {
		case t.PnL > 0:
			gross = gross.Add(decimal.NewFromFloat(t.PnL))
			winSum += t.PnL
		case t.PnL < 0:
			loss = loss.Add(decimal.NewFromFloat(t.PnL))
			lossSum += t.PnL
			lossN++
		}
		if t.Win {
			s.Wins++
		}
		if d := t.Drawdown; d > s.MaxDrawdown {
			s.MaxDrawdown = d
		}
		if t.LossStreak > s.MaxLossStreak {
			s.MaxLossStreak = t.LossStreak
		}
		maeSum += t.MAE
		mfeSum += t.MFE
		etdSum += t.ETD
	}
	s.Losses = s.TotalTrades - s.Wins
	s.PnLTotal = total.InexactFloat64()
	s.GrossProfit = gross.InexactFloat64()
	s.GrossLoss = loss.Abs().InexactFloat64()

	if acct.TargetProfit != 0 {
		s.ProgressPct = s.PnLTotal / acct.TargetProfit * 100
	}
	if s.TotalTrades > 0 {
		n := float64(s.TotalTrades)
		s.WinRate = float64(s.Wins) / n * 100
		s.AvgMAE = maeSum / n
		s.AvgMFE = mfeSum / n
		s.AvgETD = etdSum / n
	}

	// ticks are priced with the first trade's contract, whatever the
	// instrument of the averaged trades
	tickValue := 1.0
	if len(ts) > 0 && ts[0].Contract.TickValue > 0 {
		tickValue = ts[0].Contract.TickValue
	}
	if s.Wins > 0 && winSum > 0 {
		s.AvgWinTicks = winSum / float64(s.Wins) / tickValue
	}
	if lossN > 0 {
		s.AvgLossTicks = lossSum / float64(lossN) / tickValue
	}
	if s.AvgLossTicks != 0 {
		s.RiskReward = math.Abs(s.AvgWinTicks / s.AvgLossTicks)
	}
	if s.GrossLoss != 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	if s.TotalTrades > 0 {
		s.Expectancy = (s.WinRate*s.AvgWinTicks + (100-s.WinRate)*s.AvgLossTicks) / 100
	}

	s.Days = bucket(ts, dateOf)
	s.Weeks = bucket(ts, weekOf)
	s.TradingDays = len(s.Days)
	if len(s.Days) > 0 {
		// with no drawdown configured any losing day exceeds it
		limit := acct.DrawdownLimit()
		var sum float64
		for _, d := range s.Days {
			sum += d.WinPct()
			if d.PnL < -limit {
				s.DailyLossStatus = StatusExceeded
			}
		}
		s.DailyConsistency = sum / float64(len(s.Days))
	}

	s.OutOfWindow = outOfWindow(ts, acct.Rules)
	s.SLViolations = stopLossViolations(ts, acct.Rules)
	return s
}

// WorstDay is the most negative day sum, or 0 when no day lost money.
func (s Snapshot) WorstDay() float64 { return worst(s.Days) }

// WorstWeek is the most negative week sum, or 0 when no week lost money.
func (s Snapshot) WorstWeek() float64 { return worst(s.Weeks) }

// BestDay is the largest day sum, or 0 when no day made money.
func (s Snapshot) BestDay() float64 {
	best := 0.0
	for _, b := range s.Days {
		best = math.Max(best, b.PnL)
	}
	return best
}

func worst(bs []Bucket) float64 {
	w := 0.0
	for _, b := range bs {
		w = math.Min(w, b.PnL)
	}
	return w
}

// bucket sums trades by the period key returns, in period order.
func bucket(ts []trades.Trade, key func(time.Time) time.Time) []Bucket {
	sums := map[time.Time]decimal.Decimal{}
	byStart := map[time.Time]*Bucket{}
	for _, t := range ts {
		k := key(t.EntryTime)
		b, ok := byStart[k]
		if !ok {
			b = &Bucket{Start: k}
			byStart[k] = b
		}
		sums[k] = sums[k].Add(decimal.NewFromFloat(t.PnL))
		b.Trades++
		if t.Win {
			b.Wins++
		}
	}

	out := make([]Bucket, 0, len(byStart))
	for k, b := range byStart {
		b.PnL = sums[k].InexactFloat64()
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// outOfWindow counts trades entered outside [session start, session end).
func outOfWindow(ts []trades.Trade, set rules.Set) int {
	start, okS := set.Get(rules.SessionStart).Value.Clock()
	end, okE := set.Get(rules.SessionEnd).Value.Clock()
	if !okS || !okE {
		return 0
	}
	n := 0
	for _, t := range ts {
		if t.TimeOfDay < start || t.TimeOfDay >= end {
			n++
		}
	}
	return n
}

// stopLossViolations counts trades whose adverse excursion went past the
// planned stop, when a stop is mandatory.
func stopLossViolations(ts []trades.Trade, set rules.Set) int {
	if !set.Get(rules.StopLossMandatory).Value.Enabled() {
		return 0
	}
	slTicks := set.Get(rules.StopLossTicks).Value.Float()
	n := 0
	for _, t := range ts {
		if math.Abs(t.MAE) > slTicks*t.Contract.TickValue {
			n++
		}
	}
	return n
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekOf returns the Monday starting t's week.
func weekOf(t time.Time) time.Time {
	d := dateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
