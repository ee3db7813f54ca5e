package journal

const Schema = `
CREATE TABLE IF NOT EXISTS templates (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	source TEXT NOT NULL,
	template TEXT NOT NULL,
	account TEXT NOT NULL,
	account_size REAL NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	pnl REAL NOT NULL,
	progress_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	expectancy REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	violations INTEGER NOT NULL,
	fatal_breach INTEGER NOT NULL,
	snapshot TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	number TEXT NOT NULL,
	instrument TEXT NOT NULL,
	account TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME,
	pnl REAL NOT NULL,
	cum_pnl REAL NOT NULL,
	drawdown REAL NOT NULL,
	loss_streak INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS run_verdicts (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	rule_key TEXT NOT NULL,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	limit_value TEXT NOT NULL,
	threshold REAL NOT NULL,
	observed REAL NOT NULL,
	compliant INTEGER NOT NULL,
	message TEXT NOT NULL,
	fallback INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
CREATE INDEX IF NOT EXISTS idx_runs_account ON runs(account);
`
