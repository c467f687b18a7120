package service

import (
	"context"
	"time"

	"commerce-dashboard/internal/export"
	"commerce-dashboard/internal/models"
	"commerce-dashboard/internal/redisclient"
	"commerce-dashboard/internal/util"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxJobList = 100

var (
	// ErrExportNotReady is returned when downloading a job that has not rendered yet.
	ErrExportNotReady = errors.New("export not ready")
	// ErrExportExpired is returned when a rendered export has been evicted.
	ErrExportExpired = errors.New("export expired")
)

// TableBuilder renders the CSV table of an exportable view.
type TableBuilder interface {
	ExportTable(ctx context.Context, view string) (*export.Table, error)
}

// JobStore persists export jobs and processed event ids.
type JobStore interface {
	CreateExportJob(ctx context.Context, job *models.ExportJob) error
	GetExportJob(ctx context.Context, id string) (*models.ExportJob, error)
	MarkExportReady(ctx context.Context, id string, rows, sizeBytes int) error
	MarkExportFailed(ctx context.Context, id, reason string) error
	ListExportJobs(ctx context.Context, limit int) ([]models.ExportJob, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// BlobStore keeps rendered exports for a limited time.
type BlobStore interface {
	SaveExport(ctx context.Context, jobID string, data []byte, ttl time.Duration) error
	GetExport(ctx context.Context, jobID string) ([]byte, error)
}

// EventPublisher announces export lifecycle events.
type EventPublisher interface {
	PublishExportRequested(ctx context.Context, event *models.ExportRequestedEvent) error
	PublishExportCompleted(ctx context.Context, event *models.ExportCompletedEvent) error
	PublishExportFailed(ctx context.Context, event *models.ExportFailedEvent) error
}

// ExportService queues CSV exports and renders them in the background
type ExportService struct {
	tables    TableBuilder
	jobs      JobStore
	blobs     BlobStore
	publisher EventPublisher
	ttl       time.Duration
	logger    *zap.Logger
}

// NewExportService creates a new export service
func NewExportService(tables TableBuilder, jobs JobStore, blobs BlobStore, publisher EventPublisher, ttl time.Duration) *ExportService {
	return &ExportService{
		tables:    tables,
		jobs:      jobs,
		blobs:     blobs,
		publisher: publisher,
		ttl:       ttl,
		logger:    util.GetLogger(),
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// Request creates a pending job for view and queues it for rendering
func (s *ExportService) Request(ctx context.Context, view string) (*models.ExportJob, error) {
	ctx, span := util.StartSpan(ctx, "ExportService.Request")
	defer span.End()

	if !export.IsView(view) {
		return nil, errors.Wrapf(ErrUnknownView, "%q", view)
	}

	job := &models.ExportJob{
		ID:     uuid.New().String(),
		View:   view,
		Status: models.ExportStatusPending,
	}
	if err := s.jobs.CreateExportJob(ctx, job); err != nil {
		util.SpanError(span, err)
		return nil, errors.Wrap(err, "failed to create export job")
	}

	event := &models.ExportRequestedEvent{
		BaseEvent: newBaseEvent(models.EventTypeExportRequested),
		JobID:     job.ID,
		View:      view,
	}
	if err := s.publisher.PublishExportRequested(ctx, event); err != nil {
		util.SpanError(span, err)
		if markErr := s.jobs.MarkExportFailed(ctx, job.ID, "could not queue export"); markErr != nil {
			s.logger.Error("Failed to mark unqueued export", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, errors.Wrap(err, "failed to queue export")
	}

	util.ExportJobsTotal.WithLabelValues(view, "requested").Inc()
	s.logger.Info("Export requested", zap.String("job_id", job.ID), zap.String("view", view))
	return job, nil
}

// Get returns a job by id
func (s *ExportService) Get(ctx context.Context, id string) (*models.ExportJob, error) {
	ctx, span := util.StartSpan(ctx, "ExportService.Get")
	defer span.End()

	return s.jobs.GetExportJob(ctx, id)
}

// List returns the most recent jobs
func (s *ExportService) List(ctx context.Context, limit int) ([]models.ExportJob, error) {
	ctx, span := util.StartSpan(ctx, "ExportService.List")
	defer span.End()

	if limit <= 0 || limit > maxJobList {
		limit = maxJobList
	}
	return s.jobs.ListExportJobs(ctx, limit)
}

// Download returns a ready job together with its CSV bytes
func (s *ExportService) Download(ctx context.Context, id string) (*models.ExportJob, []byte, error) {
	ctx, span := util.StartSpan(ctx, "ExportService.Download")
	defer span.End()

	job, err := s.jobs.GetExportJob(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != models.ExportStatusReady {
		return job, nil, errors.Wrapf(ErrExportNotReady, "job %s is %s", id, job.Status)
	}

	data, err := s.blobs.GetExport(ctx, id)
	if errors.Is(err, redisclient.ErrExportNotFound) {
		return job, nil, errors.Wrapf(ErrExportExpired, "job %s", id)
	}
	if err != nil {
		return job, nil, err
	}
	return job, data, nil
}

// Process renders a requested export. Redelivered events are skipped. Render
// failures are recorded on the job; storage failures are returned so the event
// is retried.
func (s *ExportService) Process(ctx context.Context, event *models.ExportRequestedEvent) error {
	ctx, span := util.StartSpan(ctx, "ExportService.Process")
	defer span.End()

	processed, err := s.jobs.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return errors.Wrap(err, "failed to check processed event")
	}
	if processed {
		s.logger.Info("Export event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	start := time.Now()
	table, err := s.tables.ExportTable(ctx, event.View)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		util.SpanError(span, err)
		return s.fail(ctx, event, err)
	}

	data, err := table.Bytes()
	if err != nil {
		util.SpanError(span, err)
		return s.fail(ctx, event, err)
	}

	if err := s.blobs.SaveExport(ctx, event.JobID, data, s.ttl); err != nil {
		util.SpanError(span, err)
		return err
	}
	if err := s.jobs.MarkExportReady(ctx, event.JobID, len(table.Rows), len(data)); err != nil {
		util.SpanError(span, err)
		return errors.Wrap(err, "failed to mark export ready")
	}

	completed := &models.ExportCompletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeExportCompleted),
		JobID:     event.JobID,
		View:      event.View,
		Rows:      len(table.Rows),
		SizeBytes: len(data),
	}
	if err := s.publisher.PublishExportCompleted(ctx, completed); err != nil {
		s.logger.Warn("Failed to publish export completed", zap.String("job_id", event.JobID), zap.Error(err))
	}

	if err := s.jobs.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return errors.Wrap(err, "failed to mark event processed")
	}

	util.ExportJobsTotal.WithLabelValues(event.View, "ready").Inc()
	util.ExportSizeBytes.Observe(float64(len(data)))
	s.logger.Info("Export ready",
		zap.String("job_id", event.JobID),
		zap.String("view", event.View),
		zap.Int("rows", len(table.Rows)),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (s *ExportService) fail(ctx context.Context, event *models.ExportRequestedEvent, cause error) error {
	reason := cause.Error()
	s.logger.Warn("Export failed",
		zap.String("job_id", event.JobID),
		zap.String("view", event.View),
		zap.Error(cause))

	if err := s.jobs.MarkExportFailed(ctx, event.JobID, reason); err != nil {
		return errors.Wrap(err, "failed to mark export failed")
	}

	failed := &models.ExportFailedEvent{
		BaseEvent: newBaseEvent(models.EventTypeExportFailed),
		JobID:     event.JobID,
		View:      event.View,
		Reason:    reason,
	}
	if err := s.publisher.PublishExportFailed(ctx, failed); err != nil {
		s.logger.Warn("Failed to publish export failed", zap.String("job_id", event.JobID), zap.Error(err))
	}

	util.ExportJobsTotal.WithLabelValues(event.View, "failed").Inc()
	return s.jobs.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
