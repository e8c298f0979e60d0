package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/civicaudit/groundtruth/internal/model"
)

// PostgresStore backs the registry boundary with Postgres. Result payloads
// are stored as jsonb next to the columns the dashboard queries on.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects and verifies the database
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing connection pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetProject implements Store
func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (*model.ProjectRef, error) {
	const q = `
SELECT id, name, latitude, longitude, status, start_date, end_date, department
FROM projects
WHERE id = $1;`

	row := s.db.QueryRowContext(ctx, q, projectID)

	var p model.ProjectRef
	var department sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Status,
		&p.StartDate, &p.EndDate, &department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	p.Department = department.String
	return &p, nil
}

// SaveAnalysisResult implements Store. Each run inserts a fresh row; the
// latest row per project supersedes earlier ones.
func (s *PostgresStore) SaveAnalysisResult(ctx context.Context, result *model.AnalysisResult) error {
	const q = `
INSERT INTO analysis_results
(id, project_id, detected_status, confidence, mismatch, severity, payload, produced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	var detected sql.NullString
	if result.DetectedStatus != nil {
		detected = sql.NullString{String: string(*result.DetectedStatus), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, q,
		result.ID, result.ProjectID, detected, result.Confidence,
		result.Mismatch, string(result.Severity), payload, result.ProducedAt,
	); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// RaiseRedFlag implements Store
func (s *PostgresStore) RaiseRedFlag(ctx context.Context, flag *model.RedFlag) error {
	const q = `
INSERT INTO red_flags
(id, flag_type, project_id, severity, description, detected_at)
VALUES ($1, $2, $3, $4, $5, $6);`

	if _, err := s.db.ExecContext(ctx, q,
		flag.ID, flag.FlagType, flag.ProjectID,
		string(flag.Severity), flag.Description, flag.DetectedAt,
	); err != nil {
		return fmt.Errorf("raise red flag: %w", err)
	}
	return nil
}

// LatestAnalysis implements Store
func (s *PostgresStore) LatestAnalysis(ctx context.Context, projectID string) (*model.AnalysisResult, error) {
	const q = `
SELECT payload
FROM analysis_results
WHERE project_id = $1
ORDER BY produced_at DESC
LIMIT 1;`

	var payload []byte
	if err := s.db.QueryRowContext(ctx, q, projectID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoAnalysis
		}
		return nil, fmt.Errorf("latest analysis: %w", err)
	}

	var result model.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode analysis payload: %w", err)
	}
	return &result, nil
}
