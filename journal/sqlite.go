package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/propcheck/config"
)

// SQLite is a TemplateStore and run journal backed by one SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating when needed) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func (j *SQLite) SaveTemplate(ctx context.Context, name string, tpl config.Template) error {
	body, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("marshal template %q: %w", name, err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO templates (name, body, updated) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated = excluded.updated`,
		name, string(body), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save template %q: %w", name, err)
	}
	return nil
}

func (j *SQLite) LoadTemplate(ctx context.Context, name string) (config.Template, error) {
	var body string
	err := j.db.QueryRowContext(ctx, `SELECT body FROM templates WHERE name = ?`, name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return config.Template{}, fmt.Errorf("template %q: %w", name, ErrNotFound)
		}
		return config.Template{}, err
	}

	var tpl config.Template
	if err := json.Unmarshal([]byte(body), &tpl); err != nil {
		return config.Template{}, fmt.Errorf("decode template %q: %w", name, err)
	}
	return tpl, nil
}

func (j *SQLite) ListTemplates(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// RecordRun stores a run with its trades and verdicts in one transaction.
func (j *SQLite) RecordRun(ctx context.Context, rec Record) error {
	snap, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	r := rec.Run
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, source, template, account, account_size, start_date, end_date,
		 trades, wins, losses, pnl, progress_pct, win_rate, profit_factor, expectancy,
		 max_drawdown, violations, fatal_breach, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Source, r.Template, r.Account, r.AccountSize, r.Start, r.End,
		r.Trades, r.Wins, r.Losses, r.PnL, r.ProgressPct, r.WinRate, r.ProfitFactor, r.Expectancy,
		r.MaxDrawdown, r.Violations, r.FatalBreach, string(snap),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	for i, t := range rec.Trades {
		var exit any
		if t.HasExit() {
			exit = t.ExitTime
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_trades
			(run_id, seq, number, instrument, account, side, quantity, entry_time, exit_time,
			 pnl, cum_pnl, drawdown, loss_streak)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, i, t.Number, t.Instrument, t.Account, t.Side, t.Quantity, t.EntryTime, exit,
			t.NetPnL, t.CumPnL, t.Drawdown, t.LossStreak,
		)
		if err != nil {
			return fmt.Errorf("insert trade %d of run %s: %w", i, r.RunID, err)
		}
	}

	for i, v := range rec.Verdicts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_verdicts
			(run_id, seq, rule_key, name, category, limit_value, threshold, observed,
			 compliant, message, fallback)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, i, string(v.Key), v.DisplayName, string(v.Category), v.Limit.String(),
			v.Threshold, v.Observed, v.Compliant, v.Message, v.Fallback,
		)
		if err != nil {
			return fmt.Errorf("insert verdict %s of run %s: %w", v.Key, r.RunID, err)
		}
	}

	return tx.Commit()
}

// DeleteRun removes a run and everything recorded with it.
func (j *SQLite) DeleteRun(ctx context.Context, runID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	return nil
}
