package store

// Schema is the SQLite schema. Amounts are stored as decimal text to stay exact.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshot_rows (
	date TEXT NOT NULL,
	pos INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	shares TEXT NOT NULL,
	buy_price TEXT NOT NULL,
	cost_basis TEXT NOT NULL,
	stop_loss TEXT NOT NULL,
	priced INTEGER NOT NULL,
	price TEXT,
	value TEXT,
	pnl TEXT,
	action TEXT NOT NULL,
	PRIMARY KEY (date, ticker)
);

CREATE TABLE IF NOT EXISTS snapshot_totals (
	date TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	pnl TEXT NOT NULL,
	cash TEXT NOT NULL,
	equity TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	date TEXT NOT NULL,
	ticker TEXT NOT NULL,
	reason TEXT NOT NULL,
	memo TEXT NOT NULL,
	shares TEXT NOT NULL,
	price TEXT NOT NULL,
	cost_basis TEXT NOT NULL,
	realized_pnl TEXT NOT NULL,
	stop_loss TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
`
