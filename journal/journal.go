// Package journal stores account templates and records evaluation runs,
// and exports processed trades and reports.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/propcheck/compliance"
	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/metrics"
	"github.com/rustyeddy/propcheck/trades"
)

// ErrNotFound is wrapped by lookups of unknown templates and runs.
var ErrNotFound = errors.New("journal: not found")

// TemplateStore loads and saves account templates by name.
type TemplateStore interface {
	LoadTemplate(ctx context.Context, name string) (config.Template, error)
	SaveTemplate(ctx context.Context, name string, tpl config.Template) error
	ListTemplates(ctx context.Context) ([]string, error)
}

// Run summarizes one evaluated account.
type Run struct {
	RunID    string
	Created  time.Time
	Source   string
	Template string
	Account  string

	AccountSize float64
	Start       time.Time
	End         time.Time

	Trades       int
	Wins         int
	Losses       int
	PnL          float64
	ProgressPct  float64
	WinRate      float64
	ProfitFactor float64
	Expectancy   float64
	MaxDrawdown  float64

	Violations  int
	FatalBreach bool
}

// Record is everything stored for one run.
type Record struct {
	Run      Run
	Snapshot metrics.Snapshot
	Trades   []trades.Trade
	Verdicts []compliance.Verdict
}

// NewRecord assembles the Record of an evaluation.
func NewRecord(runID, source, template string, acct *config.Account, ts []trades.Trade, snap metrics.Snapshot, vs []compliance.Verdict) Record {
	run := Run{
		RunID:        runID,
		Created:      time.Now().UTC(),
		Source:       source,
		Template:     template,
		AccountSize:  acct.AccountSize,
		Start:        snap.Start,
		Trades:       snap.TotalTrades,
		Wins:         snap.Wins,
		Losses:       snap.Losses,
		PnL:          snap.PnLTotal,
		ProgressPct:  snap.ProgressPct,
		WinRate:      snap.WinRate,
		ProfitFactor: snap.ProfitFactor,
		Expectancy:   snap.Expectancy,
		MaxDrawdown:  snap.MaxDrawdown,
	}
	if len(ts) > 0 {
		run.Account = ts[0].Account
		run.End = ts[len(ts)-1].EntryTime
	}
	for _, v := range compliance.Violations(vs) {
		run.Violations++
		if v.Category == compliance.Fatal {
			run.FatalBreach = true
		}
	}
	return Record{Run: run, Snapshot: snap, Trades: ts, Verdicts: vs}
}
