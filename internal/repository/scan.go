package repository

import (
	"context"

	"neuroscan/internal/domain"
)

// ScanRepository exposes persistence operations for MRI scan records.
type ScanRepository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, scan *domain.Scan) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Scan, error)
	// ListByPatient returns the patient's scans, most recent scan date first.
	ListByPatient(ctx context.Context, patientID int64) ([]domain.Scan, error)
	CountByPatient(ctx context.Context, patientID int64) (int, error)
	UpdateLabel(ctx context.Context, id int64, label string) error
	// DeleteByPatient removes all of the patient's scans and reports the
	// deleted row ids together with every file path the rows referenced.
	// Removing the files themselves is the caller's concern.
	DeleteByPatient(ctx context.Context, patientID int64) (ids []int64, paths []string, err error)
}

// ClassificationRepository manages the append-only prediction log.
type ClassificationRepository interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, c *domain.Classification) (int64, error)
	ListByPath(ctx context.Context, processedPath string) ([]domain.Classification, error)
	DeleteByPaths(ctx context.Context, processedPaths []string) (int64, error)
}

// QueryConsole runs ad-hoc read-only SQL for the admin console.
type QueryConsole interface {
	RunReadOnlyQuery(ctx context.Context, query string) (columns []string, rows []map[string]any, err error)
}
