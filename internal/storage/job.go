package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// JobStorage persists report jobs
type JobStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *sqlx.DB, logger *slog.Logger) *JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

// Create inserts job and fills in the store-maintained timestamps
func (s *JobStorage) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO report_jobs (
			job_id, device_id, user_id, status, note, result, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowxContext(ctx, query,
		job.JobID,
		job.DeviceID,
		job.UserID,
		job.Status,
		job.Note,
		job.Result,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.String("device_id", job.DeviceID),
		slog.String("status", string(job.Status)),
	)

	return nil
}

// UpdateStatus moves a job to status and overwrites note/result when given.
// The update only applies while the stored status is one of status.Predecessors(),
// so a late writer can never move a job backwards or out of a terminal state.
func (s *JobStorage) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, update domain.JobUpdate) error {
	predecessors := status.Predecessors()
	if len(predecessors) == 0 {
		return fmt.Errorf("%w: cannot move to %s", domain.ErrStaleTransition, status)
	}

	allowed := make([]string, len(predecessors))
	for i, p := range predecessors {
		allowed[i] = string(p)
	}

	query := `
		UPDATE report_jobs
		SET status = $1,
			note = COALESCE($2, note),
			result = COALESCE($3, result),
			updated_at = NOW()
		WHERE job_id = $4
		  AND status = ANY($5)
	`

	res, err := s.db.ExecContext(ctx, query, status, update.Note, update.Result, jobID, pq.Array(allowed))
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		current, err := s.currentStatus(ctx, jobID)
		if err != nil {
			return err
		}
		s.logger.Warn("Job status update skipped",
			slog.String("job_id", jobID),
			slog.String("current", string(current)),
			slog.String("requested", string(status)),
		)
		return fmt.Errorf("%w: %s to %s", domain.ErrStaleTransition, current, status)
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", string(status)),
	)

	return nil
}

// GetByID retrieves a job by its ID
func (s *JobStorage) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT job_id, device_id, user_id, status, note, result, created_at, updated_at
		FROM report_jobs
		WHERE job_id = $1
	`

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// List returns up to filter.PageSize+1 jobs newest first; the extra row tells the caller
// whether another page exists. The result column is not loaded.
func (s *JobStorage) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	query := `
		SELECT job_id, device_id, user_id, status, note, created_at, updated_at
		FROM report_jobs
		WHERE 1=1
	`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}

	if filter.DeviceID != "" {
		query += fmt.Sprintf(" AND device_id = $%d", argIdx)
		args = append(args, filter.DeviceID)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

func (s *JobStorage) currentStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	var status domain.JobStatus
	err := s.db.GetContext(ctx, &status, `SELECT status FROM report_jobs WHERE job_id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrJobNotFound
		}
		return "", fmt.Errorf("failed to get job status: %w", err)
	}
	return status, nil
}
