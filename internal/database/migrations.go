package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT DEFAULT (datetime('now')),
    finished_at TEXT,
    status TEXT NOT NULL DEFAULT 'running' CHECK(status IN ('running', 'ok', 'failed')),
    error TEXT,
    lookback_days INTEGER NOT NULL,
    pages INTEGER NOT NULL,
    cutoff TEXT,
    candidates INTEGER DEFAULT 0,
    articles INTEGER DEFAULT 0,
    summary_markdown TEXT,
    output_dir TEXT
);

CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    published_at TEXT,
    body TEXT,
    first_run_id INTEGER REFERENCES runs(id),
    collected_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS mentions (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    article_id INTEGER NOT NULL REFERENCES articles(id),
    symbol TEXT NOT NULL,
    PRIMARY KEY (run_id, article_id, symbol)
);

CREATE TABLE IF NOT EXISTS recommendations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES runs(id),
    symbol TEXT NOT NULL,
    ticker TEXT NOT NULL,
    provider TEXT NOT NULL,
    bar_count INTEGER NOT NULL,
    start_price REAL NOT NULL,
    end_price REAL NOT NULL,
    pct_change REAL NOT NULL,
    slope REAL NOT NULL,
    label TEXT NOT NULL CHECK(label IN ('BUY', 'SELL', 'HOLD')),
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE (run_id, symbol)
);

CREATE INDEX IF NOT EXISTS idx_mentions_symbol ON mentions(symbol);
CREATE INDEX IF NOT EXISTS idx_recommendations_symbol ON recommendations(symbol);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
