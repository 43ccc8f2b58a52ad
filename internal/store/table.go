package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// Migrate brings the schema to schemaVersion. Leads are never deleted, so
// migrations only ever add.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS leads (
  id TEXT PRIMARY KEY,
  origin TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  agency TEXT NOT NULL DEFAULT '',
  closing_date TEXT NOT NULL DEFAULT '',
  raw_text TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '[]',
  confidence REAL NOT NULL DEFAULT 0,
  project_weight REAL NOT NULL DEFAULT 0,
  recency_factor REAL NOT NULL DEFAULT 0,
  trust REAL NOT NULL DEFAULT 0,
  score REAL NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  first_seen TEXT NOT NULL,
  last_seen TEXT NOT NULL,
  posted_at TEXT,
  last_run_id TEXT NOT NULL DEFAULT ''
);`, `
CREATE INDEX IF NOT EXISTS idx_leads_status_score
ON leads(status, score DESC);`, `
CREATE INDEX IF NOT EXISTS idx_leads_last_seen
ON leads(last_seen);`, `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  mode TEXT NOT NULL,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  state TEXT NOT NULL,
  summary TEXT NOT NULL
);`, `
CREATE INDEX IF NOT EXISTS idx_runs_finished
ON runs(finished_at);`, `
CREATE TABLE IF NOT EXISTS enrichment_cache (
  domain TEXT PRIMARY KEY,
  payload BLOB NOT NULL,
  fetched_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS meta (
  key TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);`, `
INSERT OR IGNORE INTO meta(key, value) VALUES('generation', 0);`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}

	if !columnExists(tx, "leads", "last_run_id") {
		if _, err := tx.Exec(`ALTER TABLE leads ADD COLUMN last_run_id TEXT NOT NULL DEFAULT '';`); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
