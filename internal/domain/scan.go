package domain

import "time"

// Scan is one uploaded MRI image plus its derived metadata and the
// label of the most recent classification (nil until classified).
type Scan struct {
	ID            int64
	OriginalPath  string
	ProcessedPath string
	Label         *string
	OrigWidth     *int
	OrigHeight    *int
	ProcWidth     *int
	ProcHeight    *int
	MeanPixel     *float64
	StdPixel      *float64
	PatientID     int64
	Age           *int
	Gender        string
	HospitalUnit  string
	ScanDate      time.Time
	CreatedAt     time.Time
}

// Classification is one append-only prediction record produced against
// a scan. A scan may accumulate many of these; only the most recent is
// reflected in Scan.Label.
type Classification struct {
	ID             int64
	ProcessedPath  string
	PredictedLabel string
	Confidence     float64
	ModelName      string
	ClassifiedAt   time.Time
}
