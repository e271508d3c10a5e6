// Package store is the SQLite archive of completed evaluation reports.
// Live runs are never persisted; only finished results land here so they
// can be listed, fetched, and exported later.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mshevtsov/concilium/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		level TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		accuracy_percent REAL NOT NULL,
		method TEXT NOT NULL,
		justification TEXT NOT NULL DEFAULT '',
		recommendation TEXT NOT NULL DEFAULT '',
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_created_at
		ON evaluations(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record is one archived evaluation as listed without the full payload.
type Record struct {
	ID              string                 `json:"id"`
	CreatedAt       time.Time              `json:"createdAt"`
	Level           model.ExpertiseLevel   `json:"level"`
	Confidence      int                    `json:"confidence"`
	AccuracyPercent float64                `json:"accuracyPercent"`
	Method          model.EvaluationMethod `json:"method"`
}

// SaveResult archives a completed evaluation. The full payload is stored as
// JSON alongside the indexed verdict columns.
func (s *Store) SaveResult(res model.EvaluationResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO evaluations
		 (id, created_at, level, confidence, accuracy_percent, method, justification, recommendation, result_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.CreatedAt, string(res.ExpertiseLevel), res.Confidence,
		res.Summary.AccuracyPercent, string(res.EvaluationMethod),
		res.Justification, res.Recommendation, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// GetResult loads one archived evaluation by ID.
func (s *Store) GetResult(id string) (*model.EvaluationResult, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT result_json FROM evaluations WHERE id = ?`, id,
	).Scan(&payload)
	if err != nil {
		return nil, err
	}
	var res model.EvaluationResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("unmarshal result %s: %w", id, err)
	}
	return &res, nil
}

// ListRecords returns archive rows newest first.
func (s *Store) ListRecords() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, level, confidence, accuracy_percent, method
		 FROM evaluations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Level, &r.Confidence, &r.AccuracyPercent, &r.Method); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ExportAll loads every archived evaluation, oldest first.
func (s *Store) ExportAll() ([]model.EvaluationResult, error) {
	rows, err := s.db.Query(
		`SELECT result_json FROM evaluations ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.EvaluationResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var res model.EvaluationResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return nil, fmt.Errorf("unmarshal archived result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Count returns the number of archived evaluations.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM evaluations`).Scan(&n)
	return n, err
}
