// Package compliance judges a processed trade sequence against the
// account's rulebook, one verdict per rule.
package compliance

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/metrics"
	"github.com/rustyeddy/propcheck/rules"
	"github.com/rustyeddy/propcheck/trades"
)

// Category is the severity class of a rule.
type Category string

const (
	Fatal       Category = "fatal"
	Critical    Category = "critical"
	Important   Category = "important"
	Operational Category = "operational"
)

// Categories lists the categories in evaluation order.
var Categories = []Category{Fatal, Critical, Important, Operational}

// catalog maps every category to its rules in evaluation order.
var catalog = map[Category][]rules.Key{
	Fatal:       {rules.TrailingDrawdown, rules.ContractLimit, rules.OvernightPositions},
	Critical:    {rules.DailyLossMaxPct, rules.WeeklyLossMaxPct, rules.ConsecutiveLossMax},
	Important:   {rules.StopLossMandatory, rules.StopLossTicks, rules.TakeProfitTicks, rules.SessionStart, rules.SessionEnd},
	Operational: {rules.MinTradingDays, rules.DailyGainMaxPct, rules.ContractMultiplier, rules.ConsistencyPct},
}

// fatalNames labels the account-level checks that are not rulebook entries.
var fatalNames = map[rules.Key]string{
	rules.TrailingDrawdown:   "Trailing drawdown",
	rules.ContractLimit:      "Contract limit",
	rules.OvernightPositions: "Overnight positions",
}

// DeviationTolerance is the share over plan a stop or target may run before
// the trade counts against the SL/TP rules.
const DeviationTolerance = 0.25

// Verdict is the outcome of one rule.
type Verdict struct {
	Key         rules.Key   `json:"key"`
	DisplayName string      `json:"name"`
	Category    Category    `json:"category"`
	Limit       rules.Value `json:"limit"`

	// Threshold is Limit in the unit Observed is measured in, e.g. a daily
	// loss percentage converted to USD.
	Threshold float64 `json:"threshold"`
	Observed  float64 `json:"observed"`
	Compliant bool    `json:"compliant"`
	Message   string  `json:"message,omitempty"`

	// Fallback is set when the observed value could not be computed and the
	// rule was reported compliant with 0.
	Fallback bool `json:"fallback,omitempty"`
}

// Evaluate judges ts, the output of trades.Process, and its snapshot against
// acct. Verdicts come grouped by category in Categories order. A rule whose
// computation fails is reported compliant with Fallback set; the others are
// still evaluated.
func Evaluate(ts []trades.Trade, snap metrics.Snapshot, acct *config.Account) []Verdict {
	if acct == nil {
		acct = &config.Account{}
	}
	in := input{trades: ts, snap: snap, acct: acct}

	out := make([]Verdict, 0, 16)
	for _, cat := range Categories {
		for _, k := range catalog[cat] {
			out = append(out, evaluateOne(in, cat, k))
		}
	}
	return out
}

// Violations returns the verdicts that are not compliant.
func Violations(vs []Verdict) []Verdict {
	var out []Verdict
	for _, v := range vs {
		if !v.Compliant {
			out = append(out, v)
		}
	}
	return out
}

// Keys lists the evaluated rules in output order.
func Keys() []rules.Key {
	var out []rules.Key
	for _, cat := range Categories {
		out = append(out, catalog[cat]...)
	}
	return out
}

type input struct {
	trades []trades.Trade
	snap   metrics.Snapshot
	acct   *config.Account
}

// ErrNoAccountSize is returned by checks that scale a percentage limit by
// the account size when the size is not set.
var ErrNoAccountSize = errors.New("account size is not set")

func evaluateOne(in input, cat Category, k rules.Key) (v Verdict) {
	v = Verdict{Key: k, Category: cat, Compliant: true}
	if name, ok := fatalNames[k]; ok {
		v.DisplayName = name
	} else {
		r := in.acct.Rules.Get(k)
		v.DisplayName = r.DisplayName
		v.Limit = r.Value
	}

	// last resort: a bug in one check must not take the others down
	defer func() {
		if r := recover(); r != nil {
			fallback(&v, fmt.Errorf("%v", r))
		}
	}()

	if len(in.trades) == 0 {
		v.Message = "no trades"
		return v
	}
	check, ok := checks[k]
	if !ok {
		fallback(&v, fmt.Errorf("no check for %s", k))
		return v
	}
	if err := check(in, &v); err != nil {
		fallback(&v, err)
	}
	return v
}

// fallback reports v compliant with 0 because its check could not run.
func fallback(v *Verdict, err error) {
	v.Observed, v.Threshold, v.Compliant, v.Fallback = 0, 0, true, true
	v.Message = "not evaluated: " + err.Error()
}

type checkFunc func(in input, v *Verdict) error

var checks = map[rules.Key]checkFunc{
	rules.TrailingDrawdown:   checkTrailingDrawdown,
	rules.ContractLimit:      checkContractLimit,
	rules.OvernightPositions: checkOvernight,

	rules.DailyLossMaxPct:    checkDailyLoss,
	rules.WeeklyLossMaxPct:   checkWeeklyLoss,
	rules.ConsecutiveLossMax: checkLossStreak,

	rules.StopLossMandatory: checkStopLoss,
	rules.StopLossTicks:     checkSLDeviation,
	rules.TakeProfitTicks:   checkTPDeviation,
	rules.SessionStart:      checkSession,
	rules.SessionEnd:        checkSession,

	rules.MinTradingDays:     checkTradingDays,
	rules.DailyGainMaxPct:    checkDailyGain,
	rules.ContractMultiplier: checkMultiplier,
	rules.ConsistencyPct:     checkConsistency,
}

func checkTrailingDrawdown(in input, v *Verdict) error {
	limit := in.acct.DrawdownLimit()
	v.Limit = rules.Num(limit)
	v.Threshold = limit
	v.Observed = in.snap.MaxDrawdown
	if limit <= 0 {
		v.Message = "not configured"
		return nil
	}
	if v.Observed >= limit {
		v.Compliant = false
		v.Message = fmt.Sprintf("balance floor %.2f reached: drawdown %.2f of %.2f",
			in.acct.AccountSize+peak(in.trades)-limit, v.Observed, limit)
	}
	return nil
}

func checkContractLimit(in input, v *Verdict) error {
	limit := in.acct.ContractLimit
	v.Limit = rules.Num(limit)
	v.Threshold = limit
	v.Observed = maxOpenContracts(in.trades)
	if limit <= 0 {
		v.Message = "not configured"
		return nil
	}
	if v.Observed > limit {
		v.Compliant = false
		v.Message = fmt.Sprintf("%g contracts open at once, limit %g", v.Observed, limit)
	}
	return nil
}

func checkOvernight(in input, v *Verdict) error {
	start, ok := in.acct.Rule(rules.SessionStart).Clock()
	if !ok {
		return fmt.Errorf("session start %q is not a time of day", in.acct.Rule(rules.SessionStart))
	}
	v.Limit = rules.Text(start)
	n := 0
	for _, t := range in.trades {
		if t.TimeOfDay < start {
			n++
		}
	}
	v.Observed = float64(n)
	if n > 0 {
		v.Compliant = false
		v.Message = fmt.Sprintf("%d trades before %s", n, start)
	}
	return nil
}

func checkDailyLoss(in input, v *Verdict) error {
	threshold, err := pctOfAccount(in, v.Limit)
	if err != nil {
		return err
	}
	lossAbove(v, -in.snap.WorstDay(), threshold)
	return nil
}

func checkWeeklyLoss(in input, v *Verdict) error {
	threshold, err := pctOfAccount(in, v.Limit)
	if err != nil {
		return err
	}
	lossAbove(v, -in.snap.WorstWeek(), threshold)
	return nil
}

func lossAbove(v *Verdict, observed, threshold float64) {
	v.Observed = observed
	v.Threshold = threshold
	if observed > threshold {
		v.Compliant = false
		v.Message = fmt.Sprintf("exceeded: %.2f > %.2f", observed, threshold)
	}
}

func checkLossStreak(in input, v *Verdict) error {
	ceiling(v, float64(in.snap.MaxLossStreak))
	return nil
}

func checkStopLoss(in input, v *Verdict) error {
	count(v, in.snap.SLViolations, "violations")
	return nil
}

func checkSLDeviation(in input, v *Verdict) error {
	n := 0
	for _, t := range in.trades {
		if t.SLDeviation > DeviationTolerance {
			n++
		}
	}
	count(v, n, "violations")
	return nil
}

func checkTPDeviation(in input, v *Verdict) error {
	n := 0
	for _, t := range in.trades {
		if t.TPDeviation > DeviationTolerance {
			n++
		}
	}
	count(v, n, "violations")
	return nil
}

func checkSession(in input, v *Verdict) error {
	count(v, in.snap.OutOfWindow, "trades outside the session")
	return nil
}

func checkTradingDays(in input, v *Verdict) error {
	v.Threshold = v.Limit.Float()
	v.Observed = float64(in.snap.TradingDays)
	if v.Observed < v.Threshold {
		v.Compliant = false
		v.Message = fmt.Sprintf("%g/%g days", v.Observed, v.Threshold)
	}
	return nil
}

func checkDailyGain(in input, v *Verdict) error {
	if in.acct.AccountSize <= 0 {
		return ErrNoAccountSize
	}
	ceiling(v, in.snap.BestDay()/in.acct.AccountSize*100)
	return nil
}

func checkMultiplier(in input, v *Verdict) error {
	largest := 0.0
	for _, t := range in.trades {
		if q := t.Contracts(); q > largest {
			largest = q
		}
	}
	ceiling(v, largest)
	return nil
}

func checkConsistency(in input, v *Verdict) error {
	ceiling(v, in.snap.DailyConsistency)
	return nil
}

// ceiling flags observed values above the rule limit.
func ceiling(v *Verdict, observed float64) {
	v.Observed = observed
	v.Threshold = v.Limit.Float()
	if observed > v.Threshold {
		v.Compliant = false
		v.Message = fmt.Sprintf("%.2f > %g", observed, v.Threshold)
	}
}

// count flags any occurrence.
func count(v *Verdict, n int, what string) {
	v.Observed = float64(n)
	if n > 0 {
		v.Compliant = false
		v.Message = fmt.Sprintf("%d %s", n, what)
	}
}

func pctOfAccount(in input, limit rules.Value) (float64, error) {
	if in.acct.AccountSize <= 0 {
		return 0, ErrNoAccountSize
	}
	return limit.Float() / 100 * in.acct.AccountSize, nil
}

func peak(ts []trades.Trade) float64 {
	p := 0.0
	for _, t := range ts {
		if t.EquityPeak > p {
			p = t.EquityPeak
		}
	}
	return p
}

// maxOpenContracts is the largest quantity held at once across overlapping
// trades. A trade is open from its entry until just before its exit; one
// without a readable exit only counts at its own entry.
func maxOpenContracts(ts []trades.Trade) float64 {
	most := 0.0
	for i, at := range ts {
		open := 0.0
		for j, t := range ts {
			if t.EntryTime.After(at.EntryTime) {
				continue
			}
			if i == j || (t.HasExit() && t.ExitTime.After(at.EntryTime)) {
				open += t.Contracts()
			}
		}
		if open > most {
			most = open
		}
	}
	return most
}
