package models

import "time"

// Event types
const (
	EventTypeExportRequested = "EXPORT_REQUESTED"
	EventTypeExportCompleted = "EXPORT_COMPLETED"
	EventTypeExportFailed    = "EXPORT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportRequestedEvent published when a CSV export is queued
type ExportRequestedEvent struct {
	BaseEvent
	JobID string `json:"job_id"`
	View  string `json:"view"`
}

// ExportCompletedEvent published when the rendered CSV is stored
type ExportCompletedEvent struct {
	BaseEvent
	JobID     string `json:"job_id"`
	View      string `json:"view"`
	Rows      int    `json:"rows"`
	SizeBytes int    `json:"size_bytes"`
}

// ExportFailedEvent published when an export could not be rendered
type ExportFailedEvent struct {
	BaseEvent
	JobID  string `json:"job_id"`
	View   string `json:"view"`
	Reason string `json:"reason"`
}
