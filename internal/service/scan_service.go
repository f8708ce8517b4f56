package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"neuroscan/internal/domain"
	"neuroscan/internal/imaging"
	"neuroscan/internal/predictor"
	"neuroscan/internal/repository"
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// IngestRequest carries one uploaded image plus optional metadata.
type IngestRequest struct {
	Filename     string
	File         io.Reader
	Age          *int
	Gender       string
	HospitalUnit string
}

// IngestResult reports the identities created for an accepted upload.
type IngestResult struct {
	PatientID int64
	Username  string
	ScanID    int64
	FilePath  string
}

// DeleteReport summarizes an administrative bulk delete.
type DeleteReport struct {
	DeletedCount int
	DeletedIDs   []int64
	RemovedFiles []string
}

// ScanService coordinates the ingestion and classification workflows.
type ScanService interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
	Classify(ctx context.Context, scanID int64) (*domain.Classification, error)
	GetScan(ctx context.Context, scanID int64) (*domain.Scan, error)
	ListByPatient(ctx context.Context, patientID int64) ([]domain.Scan, error)
	DeleteByPatient(ctx context.Context, patientID int64) (*DeleteReport, error)
}

type scanService struct {
	scans           repository.ScanRepository
	classifications repository.ClassificationRepository
	users           UserService
	predictor       predictor.Predictor
	uploadsDir      string
	modelName       string
	logger          *logrus.Logger
}

func NewScanService(
	scans repository.ScanRepository,
	classifications repository.ClassificationRepository,
	users UserService,
	pred predictor.Predictor,
	uploadsDir string,
	modelName string,
	logger *logrus.Logger,
) ScanService {
	return &scanService{
		scans:           scans,
		classifications: classifications,
		users:           users,
		predictor:       pred,
		uploadsDir:      uploadsDir,
		modelName:       modelName,
		logger:          logger,
	}
}

func (s *scanService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.File == nil || strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("%w: no file provided", domain.ErrInvalidUpload)
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: file type %q is not allowed", domain.ErrInvalidUpload, ext)
	}

	storedPath, err := s.storeUpload(req.Filename, req.File)
	if err != nil {
		return nil, err
	}

	scan := &domain.Scan{
		OriginalPath:  storedPath,
		ProcessedPath: storedPath,
		Gender:        req.Gender,
		HospitalUnit:  req.HospitalUnit,
		Age:           req.Age,
		ScanDate:      time.Now().UTC(),
	}

	// Image statistics are diagnostic only; a file the decoders cannot
	// read still produces a scan record with null stats.
	if stats, err := imaging.Analyze(storedPath); err != nil {
		s.logger.Warnf("image stats unavailable for %s: %v", storedPath, err)
	} else {
		scan.OrigWidth = &stats.Width
		scan.OrigHeight = &stats.Height
		scan.ProcWidth = &stats.Width
		scan.ProcHeight = &stats.Height
		scan.MeanPixel = &stats.Mean
		scan.StdPixel = &stats.Std
	}

	patientID, username, err := s.users.ProvisionPatient(ctx)
	if err != nil {
		return nil, err
	}
	scan.PatientID = patientID

	scanID, err := s.scans.Insert(ctx, scan)
	if err != nil {
		return nil, err
	}

	return &IngestResult{
		PatientID: patientID,
		Username:  username,
		ScanID:    scanID,
		FilePath:  PublicPath(storedPath),
	}, nil
}

func (s *scanService) storeUpload(filename string, file io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s", time.Now().UTC().UnixNano(), sanitizeFilename(filename))
	path := filepath.Join(s.uploadsDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

func (s *scanService) Classify(ctx context.Context, scanID int64) (*domain.Classification, error) {
	scan, err := s.scans.GetByID(ctx, scanID)
	if err != nil {
		return nil, err
	}

	label, confidence, err := s.predictor.Predict(ctx, scan.ProcessedPath)
	if err != nil {
		return nil, fmt.Errorf("predict scan %d: %w", scanID, err)
	}

	record := &domain.Classification{
		ProcessedPath:  scan.ProcessedPath,
		PredictedLabel: label,
		Confidence:     confidence,
		ModelName:      s.modelName,
		ClassifiedAt:   time.Now().UTC(),
	}
	if _, err := s.classifications.Append(ctx, record); err != nil {
		return nil, err
	}

	// The scan always carries the latest prediction; history lives only
	// in the classification log.
	if err := s.scans.UpdateLabel(ctx, scanID, label); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *scanService) GetScan(ctx context.Context, scanID int64) (*domain.Scan, error) {
	return s.scans.GetByID(ctx, scanID)
}

func (s *scanService) ListByPatient(ctx context.Context, patientID int64) ([]domain.Scan, error) {
	return s.scans.ListByPatient(ctx, patientID)
}

func (s *scanService) DeleteByPatient(ctx context.Context, patientID int64) (*DeleteReport, error) {
	ids, paths, err := s.scans.DeleteByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if _, err := s.classifications.DeleteByPaths(ctx, paths); err != nil {
		return nil, err
	}

	// File removal is best-effort: failures are reported only by
	// omission from the removed list.
	removed := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			continue
		}
		removed = append(removed, p)
	}

	return &DeleteReport{
		DeletedCount: len(ids),
		DeletedIDs:   ids,
		RemovedFiles: removed,
	}, nil
}

// PublicPath maps a stored file path to the URL it is served under.
func PublicPath(storedPath string) string {
	return "/uploads/" + filepath.Base(storedPath)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
