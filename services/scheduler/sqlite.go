package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists jobs in a local SQLite database so job history
// survives restarts.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id             TEXT PRIMARY KEY,
	request        TEXT NOT NULL,
	status         TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	execution_time REAL,
	result         TEXT,
	error          TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// NewSQLiteStore opens (and if needed creates) the job database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, job *Job) error {
	request, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, request, status, created_at) VALUES (?, ?, ?, ?)`,
		job.ID, string(request), string(job.Status), job.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request, status, created_at, execution_time, result, error
		 FROM jobs WHERE id = ?`, id)

	var (
		job        Job
		request    string
		status     string
		createdMs  int64
		execTime   sql.NullFloat64
		resultJSON sql.NullString
		jobErr     sql.NullString
	)
	err := row.Scan(&job.ID, &request, &status, &createdMs, &execTime, &resultJSON, &jobErr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	job.Status = Status(status)
	job.CreatedAt = time.UnixMilli(createdMs).UTC()
	if err := json.Unmarshal([]byte(request), &job.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if execTime.Valid {
		job.ExecutionTime = &execTime.Float64
	}
	if resultJSON.Valid && resultJSON.String != "" {
		if err := json.Unmarshal([]byte(resultJSON.String), &job.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	if jobErr.Valid {
		job.Error = jobErr.String
	}
	return &job, nil
}

// UpdateStatus applies the transition only when the row's status still equals
// from; the WHERE clause makes the compare-and-swap a single statement.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, from, to Status, upd Update) error {
	var resultJSON any
	if upd.Result != nil {
		b, err := json.Marshal(upd.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		resultJSON = string(b)
	}

	var execTime any
	if upd.ExecutionTime != nil {
		execTime = *upd.ExecutionTime
	}

	var jobErr any
	if upd.Error != "" {
		jobErr = upd.Error
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET
			status = ?,
			execution_time = COALESCE(?, execution_time),
			result = COALESCE(?, result),
			error = COALESCE(?, error)
		 WHERE id = ? AND status = ?`,
		string(to), execTime, resultJSON, jobErr, id, string(from))
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a lost compare-and-swap.
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check job: %w", err)
		}
		return ErrStatusConflict
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
