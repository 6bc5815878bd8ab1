package bench

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Kind tells which entry point produced a history row.
type Kind string

const (
	KindSuite   Kind = "suite"
	KindCompare Kind = "compare"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS bench_runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	pass       INTEGER NOT NULL,
	report     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bench_runs_created ON bench_runs(created_at);
`

// Entry is one stored benchmark run.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Pass      bool      `json:"pass"`
	Report    Report    `json:"report"`
	CreatedAt time.Time `json:"created_at"`
}

// History persists benchmark runs in SQLite.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// single writer; sqlite serialises anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &History{db: db, now: time.Now}, nil
}

// Close releases the database.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Append stores one run and returns its id.
func (h *History) Append(ctx context.Context, kind Kind, pass bool, report Report) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	id := uuid.NewString()
	passInt := 0
	if pass {
		passInt = 1
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO bench_runs (id, kind, pass, report, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(kind), passInt, string(data), h.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert bench run: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, kind, pass, report, created_at FROM bench_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query bench runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			kind    string
			passInt int
			report  string
			created string
		)
		if err := rows.Scan(&e.ID, &kind, &passInt, &report, &created); err != nil {
			return nil, fmt.Errorf("scan bench run: %w", err)
		}
		if err := json.Unmarshal([]byte(report), &e.Report); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", e.ID, err)
		}
		e.Kind = Kind(kind)
		e.Pass = passInt == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
