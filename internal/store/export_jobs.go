package store

import (
	"context"
	"database/sql"

	"commerce-dashboard/internal/models"

	"github.com/go-faster/errors"
)

// ErrJobNotFound is returned when no export job has the requested id.
var ErrJobNotFound = errors.New("export job not found")

// CreateExportJob inserts a new job and fills in its timestamps
func (s *Store) CreateExportJob(ctx context.Context, job *models.ExportJob) error {
	query := `
		INSERT INTO export_jobs (id, view, status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query, job.ID, job.View, job.Status)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
		return errors.Wrap(err, "insert export job")
	}
	return nil
}

// GetExportJob retrieves a job by id
func (s *Store) GetExportJob(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	err := s.db.GetContext(ctx, &job,
		"SELECT id, view, status, rows, size_bytes, error, created_at, updated_at FROM export_jobs WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrJobNotFound, "id %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkExportReady records a rendered export
func (s *Store) MarkExportReady(ctx context.Context, id string, rows, sizeBytes int) error {
	return s.updateJob(ctx,
		"UPDATE export_jobs SET status = $1, rows = $2, size_bytes = $3, error = '', updated_at = NOW() WHERE id = $4",
		models.ExportStatusReady, rows, sizeBytes, id)
}

// MarkExportFailed records why an export could not be rendered
func (s *Store) MarkExportFailed(ctx context.Context, id, reason string) error {
	return s.updateJob(ctx,
		"UPDATE export_jobs SET status = $1, error = $2, updated_at = NOW() WHERE id = $3",
		models.ExportStatusFailed, reason, id)
}

func (s *Store) updateJob(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "update export job")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ListExportJobs returns the most recent jobs first
func (s *Store) ListExportJobs(ctx context.Context, limit int) ([]models.ExportJob, error) {
	jobs := []models.ExportJob{}
	err := s.db.SelectContext(ctx, &jobs,
		"SELECT id, view, status, rows, size_bytes, error, created_at, updated_at FROM export_jobs ORDER BY created_at DESC LIMIT $1", limit)
	return jobs, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
