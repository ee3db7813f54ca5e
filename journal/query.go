package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rustyeddy/propcheck/compliance"
	"github.com/rustyeddy/propcheck/metrics"
	"github.com/rustyeddy/propcheck/rules"
)

const runColumns = `run_id, created, source, template, account, account_size, start_date, end_date,
	trades, wins, losses, pnl, progress_pct, win_rate, profit_factor, expectancy,
	max_drawdown, violations, fatal_breach`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.RunID, &r.Created, &r.Source, &r.Template, &r.Account, &r.AccountSize, &r.Start, &r.End,
		&r.Trades, &r.Wins, &r.Losses, &r.PnL, &r.ProgressPct, &r.WinRate, &r.ProfitFactor, &r.Expectancy,
		&r.MaxDrawdown, &r.Violations, &r.FatalBreach,
	)
	return r, err
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first, at most limit of them (all
// when limit <= 0). A non-empty account narrows the list to that account.
func (j *SQLite) ListRuns(ctx context.Context, account string, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if account != "" {
		q += ` WHERE account = ?`
		args = append(args, account)
	}
	q += ` ORDER BY run_id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSnapshot returns the metrics snapshot stored with a run.
func (j *SQLite) GetSnapshot(ctx context.Context, runID string) (metrics.Snapshot, error) {
	var body string
	err := j.db.QueryRowContext(ctx, `SELECT snapshot FROM runs WHERE run_id = ?`, runID).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return metrics.Snapshot{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return metrics.Snapshot{}, err
	}

	var snap metrics.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return metrics.Snapshot{}, fmt.Errorf("decode snapshot of run %q: %w", runID, err)
	}
	return snap, nil
}

// ListVerdicts returns the verdicts of a run in evaluation order.
func (j *SQLite) ListVerdicts(ctx context.Context, runID string) ([]compliance.Verdict, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT rule_key, name, category, limit_value, threshold, observed, compliant, message, fallback
		FROM run_verdicts
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []compliance.Verdict
	for rows.Next() {
		var (
			v        compliance.Verdict
			key, cat string
			limit    string
		)
		if err := rows.Scan(
			&key, &v.DisplayName, &cat, &limit, &v.Threshold, &v.Observed,
			&v.Compliant, &v.Message, &v.Fallback,
		); err != nil {
			return nil, err
		}
		v.Key = rules.Key(key)
		v.Category = compliance.Category(cat)
		v.Limit = rules.Coerce(limit)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TradeRow is a processed trade as kept in the journal.
type TradeRow struct {
	Seq        int
	Number     string
	Instrument string
	Account    string
	Side       string
	Quantity   float64
	EntryTime  sql.NullTime
	ExitTime   sql.NullTime
	NetPnL     float64
	CumPnL     float64
	Drawdown   float64
	LossStreak int
}

// ListTrades returns the trades of a run in processing order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]TradeRow, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, number, instrument, account, side, quantity, entry_time, exit_time,
		       pnl, cum_pnl, drawdown, loss_streak
		FROM run_trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRow
	for rows.Next() {
		var t TradeRow
		if err := rows.Scan(
			&t.Seq, &t.Number, &t.Instrument, &t.Account, &t.Side, &t.Quantity,
			&t.EntryTime, &t.ExitTime, &t.NetPnL, &t.CumPnL, &t.Drawdown, &t.LossStreak,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
