// Package analysis runs the evaluation pipeline end to end: ingest a trade
// export, process it per account, compute metrics and judge the account
// rules, optionally recording each evaluation in the journal.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/propcheck/compliance"
	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/journal"
	"github.com/rustyeddy/propcheck/metrics"
	"github.com/rustyeddy/propcheck/pkg/id"
	"github.com/rustyeddy/propcheck/table"
	"github.com/rustyeddy/propcheck/trades"
)

// ErrUnknownAccount is returned when the account filter matches no trade.
var ErrUnknownAccount = errors.New("analysis: account not in trades")

// Recorder stores evaluation runs. *journal.SQLite satisfies it.
type Recorder interface {
	RecordRun(ctx context.Context, rec journal.Record) error
}

// Input selects what to evaluate.
type Input struct {
	TradesPath string

	// Delimiter of the export; 0 sniffs it from the file.
	Delimiter rune

	// Account is used as is when set; otherwise Template names the stored
	// template to build it from.
	Account  *config.Account
	Template string

	// AccountFilter restricts the evaluation to one account of the export.
	AccountFilter string

	// Start is the first day of the evaluation. The zero value means the
	// earliest entry date of the whole export.
	Start time.Time

	// Record stores every evaluated account in the Journal.
	Record bool
}

// Evaluation is the outcome for one account of the export.
type Evaluation struct {
	journal.Record
	Config      *config.Account
	Diagnostics trades.Diagnostics
}

// Report is the outcome of one Run.
type Report struct {
	Source      string
	Template    string
	Delimiter   rune
	Start       time.Time
	Diagnostics trades.Diagnostics
	Evaluations []Evaluation
}

// Runner evaluates trade exports.
type Runner struct {
	Store      journal.TemplateStore
	Journal    Recorder
	Logger     *zap.Logger
	Calculator metrics.Calculator

	// ID issues run IDs; id.New when nil.
	ID func() string
}

// Run executes the pipeline:
//  1. resolve the account configuration
//  2. ingest and normalize the export
//  3. process the whole export to find the evaluation start
//  4. process, measure and judge every selected account
//  5. record each evaluation when asked to
func (r *Runner) Run(ctx context.Context, in Input) (*Report, error) {
	if in.TradesPath == "" {
		return nil, fmt.Errorf("analysis: TradesPath is required")
	}
	if in.Record && r.Journal == nil {
		return nil, fmt.Errorf("analysis: Record requested without a Journal")
	}
	log := r.logger()

	acct, err := r.account(ctx, in)
	if err != nil {
		return nil, err
	}
	for _, k := range acct.Defaulted {
		log.Warn("rule missing from template, using default",
			zap.String("template", in.Template), zap.String("rule", string(k)))
	}

	delim := in.Delimiter
	if delim == 0 {
		if delim, err = sniffFile(in.TradesPath); err != nil {
			return nil, err
		}
	}
	raw, err := table.IngestFile(in.TradesPath, delim)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", in.TradesPath, err)
	}
	tbl := table.NormalizeColumns(raw)

	whole, err := trades.Process(tbl, acct)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", in.TradesPath, err)
	}
	logDiagnostics(log, whole.Diagnostics)

	rep := &Report{
		Source:      filepath.Base(in.TradesPath),
		Template:    in.Template,
		Delimiter:   delim,
		Start:       in.Start,
		Diagnostics: whole.Diagnostics,
	}
	if rep.Start.IsZero() {
		rep.Start = trades.FirstEntry(whole.Trades)
	}

	accounts := tbl.Distinct(trades.ColAccount)
	if len(accounts) == 0 {
		// no account names at all: evaluate the export as one account
		accounts = []string{""}
	}
	if in.AccountFilter != "" {
		if !contains(accounts, in.AccountFilter) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAccount, in.AccountFilter)
		}
		accounts = []string{in.AccountFilter}
	}

	for _, name := range accounts {
		res := whole
		if len(accounts) > 1 || in.AccountFilter != "" {
			res, err = trades.Process(tbl.Filter(trades.ColAccount, name), acct)
			if err != nil {
				// rows of this account all lacked an entry time
				log.Warn("account skipped", zap.String("account", name), zap.Error(err))
				continue
			}
		}

		ev := r.evaluate(rep, acct, res)
		for _, v := range ev.Verdicts {
			if v.Fallback {
				log.Warn("rule not evaluated",
					zap.String("account", name), zap.String("rule", string(v.Key)), zap.String("reason", v.Message))
			}
		}
		if in.Record {
			if err := r.Journal.RecordRun(ctx, ev.Record); err != nil {
				return nil, fmt.Errorf("record run %s: %w", ev.Run.RunID, err)
			}
			log.Info("run recorded", zap.String("run_id", ev.Run.RunID), zap.String("account", ev.Run.Account))
		}
		rep.Evaluations = append(rep.Evaluations, ev)
	}

	return rep, nil
}

func (r *Runner) evaluate(rep *Report, acct *config.Account, res trades.Result) Evaluation {
	snap := r.Calculator.Calculate(res.Trades, rep.Start, acct)
	vs := compliance.Evaluate(res.Trades, snap, acct)
	rec := journal.NewRecord(r.newID(), rep.Source, rep.Template, acct, res.Trades, snap, vs)
	return Evaluation{Record: rec, Config: acct, Diagnostics: res.Diagnostics}
}

func (r *Runner) account(ctx context.Context, in Input) (*config.Account, error) {
	acct := in.Account
	if acct == nil {
		if in.Template == "" {
			return nil, fmt.Errorf("analysis: an Account or a Template is required")
		}
		if r.Store == nil {
			return nil, fmt.Errorf("analysis: Template %q given without a Store", in.Template)
		}
		tpl, err := r.Store.LoadTemplate(ctx, in.Template)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
		acct = config.AccountFromTemplate(in.Template, tpl)
	}
	if err := acct.Validate(); err != nil {
		return nil, fmt.Errorf("account %q: %w", acct.Name, err)
	}
	return acct, nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) newID() string {
	if r.ID == nil {
		return id.New()
	}
	return r.ID()
}

func logDiagnostics(log *zap.Logger, d trades.Diagnostics) {
	cols := make([]string, 0, len(d.Fallbacks))
	for c := range d.Fallbacks {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		log.Warn("unparseable cells read as 0",
			zap.String("column", c), zap.Int("count", d.Fallbacks[c]))
	}
	if d.Dropped > 0 {
		log.Warn("rows dropped: unreadable entry time", zap.Int("count", d.Dropped))
	}
	if d.BadExitTimes > 0 {
		log.Warn("trades without a readable exit time", zap.Int("count", d.BadExitTimes))
	}
	if d.Skipped > 0 {
		log.Warn("malformed lines skipped", zap.Int("count", d.Skipped))
	}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
