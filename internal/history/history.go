// Package history persists finished runs into a SQLite database so results
// can be compared across invocations.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ashavijit/swiftbench/internal/result"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	method TEXT NOT NULL,
	duration_sec REAL NOT NULL,
	connections INTEGER NOT NULL,
	rate INTEGER,
	requests_total INTEGER NOT NULL,
	requests_successful INTEGER NOT NULL,
	requests_failed INTEGER NOT NULL,
	rps REAL NOT NULL,
	p50_ms REAL NOT NULL,
	p99_ms REAL NOT NULL,
	max_ms REAL NOT NULL,
	record TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun records one finished run. The full record is kept as JSON next to
// the queryable columns.
func (s *Store) SaveRun(res *result.Result) error {
	record, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result record: %w", err)
	}
	var rate sql.NullInt64
	if res.Rate != nil {
		rate = sql.NullInt64{Int64: int64(*res.Rate), Valid: true}
	}
	_, err = s.db.Exec(`
		INSERT INTO runs
		(url, method, duration_sec, connections, rate, requests_total, requests_successful,
		 requests_failed, rps, p50_ms, p99_ms, max_ms, record, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.URL, res.Method, res.Duration, res.Connections, rate,
		res.Requests.Total, res.Requests.Successful, res.Requests.Failed,
		res.Throughput.RPS, res.Latency.P50, res.Latency.P99, res.Latency.Max,
		string(record), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Row is one saved run in list form.
type Row struct {
	ID        int64
	URL       string
	Method    string
	Requests  uint64
	Failed    uint64
	RPS       float64
	P50Ms     float64
	P99Ms     float64
	CreatedAt time.Time
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, url, method, requests_total, requests_failed, rps, p50_ms, p99_ms, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.URL, &r.Method, &r.Requests, &r.Failed,
			&r.RPS, &r.P50Ms, &r.P99Ms, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns the full result record of a saved run.
func (s *Store) GetRun(id int64) (*result.Result, error) {
	var record string
	err := s.db.QueryRow(`SELECT record FROM runs WHERE id = ?`, id).Scan(&record)
	if err != nil {
		return nil, err
	}
	var res result.Result
	if err := json.Unmarshal([]byte(record), &res); err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	return &res, nil
}
