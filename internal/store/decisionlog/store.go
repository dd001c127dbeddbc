// Package decisionlog persists the engine's decision audit trail for later
// inspection. It writes through database/sql on a dedicated SQLite file so
// audit volume never contends with the hot-path state store.
package decisionlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"solhelm/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.DecisionLog = (*Store)(nil)

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("decision log: empty database path")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decision_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trace_id TEXT NOT NULL,
			action TEXT NOT NULL,
			asset TEXT,
			symbol TEXT,
			amount REAL,
			reason TEXT,
			ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decision_log_ts ON decision_log(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_decision_log_trace ON decision_log(trace_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) AppendDecision(e store.DecisionEntry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO decision_log
		(trace_id, action, asset, symbol, amount, reason, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TraceID, e.Action, e.Asset, e.Symbol, e.Amount, e.Reason, ts.Unix())
	return err
}

func (s *Store) RecentDecisions(limit int) ([]store.DecisionEntry, error) {
	q := `SELECT trace_id, action, asset, symbol, amount, reason, ts
		FROM decision_log ORDER BY id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(q+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.DecisionEntry
	for rows.Next() {
		var e store.DecisionEntry
		var ts int64
		if err := rows.Scan(&e.TraceID, &e.Action, &e.Asset, &e.Symbol, &e.Amount, &e.Reason, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
