package corpus

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"simdial/internal/generator"
)

// SQLiteSink appends finished dialogs to a single dialogs table, one row per
// dialog with the full turn list as JSON.
type SQLiteSink struct {
	db *sql.DB
}

const dialogSchema = `
CREATE TABLE IF NOT EXISTS dialogs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	domain TEXT NOT NULL,
	profile TEXT NOT NULL,
	idx INTEGER NOT NULL,
	turns INTEGER NOT NULL,
	reward REAL NOT NULL,
	json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dialogs_run ON dialogs(run_id);
CREATE INDEX IF NOT EXISTS idx_dialogs_domain ON dialogs(domain, profile);
`

// OpenSQLite opens (or creates) the sink database and ensures the schema.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open corpus db: %w", err)
	}
	if _, err := db.Exec(dialogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init corpus db schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// WriteCorpus stores every dialog of the corpus under the given run ID, in
// one transaction.
func (s *SQLiteSink) WriteCorpus(runID string, c *generator.Corpus) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("corpus db: begin: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO dialogs (run_id, domain, profile, idx, turns, reward, json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("corpus db: prepare: %w", err)
	}
	defer stmt.Close()

	for i, d := range c.Dialogs {
		blob, err := json.Marshal(d)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("corpus db: marshal dialog %d: %w", i, err)
		}
		if _, err := stmt.Exec(runID, c.Spec.Name, c.Profile, i, len(d), c.Rewards[i], string(blob)); err != nil {
			tx.Rollback()
			return fmt.Errorf("corpus db: insert dialog %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// CountDialogs reports how many dialogs a run wrote.
func (s *SQLiteSink) CountDialogs(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM dialogs WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("corpus db: count: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error { return s.db.Close() }
