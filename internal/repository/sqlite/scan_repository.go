package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"neuroscan/internal/domain"
	"neuroscan/internal/repository"
)

const createScansTable = `
CREATE TABLE IF NOT EXISTS mri_scans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	original_path TEXT NOT NULL,
	processed_path TEXT NOT NULL,
	label TEXT NULL,
	orig_width INTEGER NULL,
	orig_height INTEGER NULL,
	proc_width INTEGER NULL,
	proc_height INTEGER NULL,
	mean_pixel REAL NULL,
	std_pixel REAL NULL,
	patient_id INTEGER NOT NULL,
	age INTEGER NULL,
	gender TEXT NOT NULL DEFAULT '',
	hospital_unit TEXT NOT NULL DEFAULT '',
	scan_date DATETIME NOT NULL,
	created_at DATETIME NOT NULL
);
`

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) repository.ScanRepository {
	return &ScanRepository{db: db}
}

func (r *ScanRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createScansTable); err != nil {
		return fmt.Errorf("create mri_scans table: %w", err)
	}
	return nil
}

func (r *ScanRepository) Insert(ctx context.Context, scan *domain.Scan) (int64, error) {
	now := time.Now().UTC()
	if scan.ScanDate.IsZero() {
		scan.ScanDate = now
	}
	scan.CreatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO mri_scans (original_path, processed_path, label, orig_width, orig_height, proc_width, proc_height, mean_pixel, std_pixel, patient_id, age, gender, hospital_unit, scan_date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.OriginalPath,
		scan.ProcessedPath,
		scan.Label,
		scan.OrigWidth,
		scan.OrigHeight,
		scan.ProcWidth,
		scan.ProcHeight,
		scan.MeanPixel,
		scan.StdPixel,
		scan.PatientID,
		scan.Age,
		scan.Gender,
		scan.HospitalUnit,
		scan.ScanDate,
		scan.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert scan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("scan last insert id: %w", err)
	}
	scan.ID = id
	return id, nil
}

const scanColumns = `id, original_path, processed_path, label, orig_width, orig_height, proc_width, proc_height, mean_pixel, std_pixel, patient_id, age, gender, hospital_unit, scan_date, created_at`

func (r *ScanRepository) GetByID(ctx context.Context, id int64) (*domain.Scan, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+scanColumns+`
FROM mri_scans
WHERE id = ?`,
		id,
	)
	return scanScan(row)
}

func (r *ScanRepository) ListByPatient(ctx context.Context, patientID int64) ([]domain.Scan, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+scanColumns+`
FROM mri_scans
WHERE patient_id = ?
ORDER BY scan_date DESC, id DESC`,
		patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scans by patient: %w", err)
	}
	defer rows.Close()

	var scans []domain.Scan
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return scans, nil
}

func (r *ScanRepository) CountByPatient(ctx context.Context, patientID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mri_scans WHERE patient_id = ?`, patientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scans by patient: %w", err)
	}
	return count, nil
}

func (r *ScanRepository) UpdateLabel(ctx context.Context, id int64, label string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mri_scans SET label = ? WHERE id = ?`, label, id,
	)
	if err != nil {
		return fmt.Errorf("update scan label: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ScanRepository) DeleteByPatient(ctx context.Context, patientID int64) ([]int64, []string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, original_path, processed_path FROM mri_scans WHERE patient_id = ?`, patientID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("select scans for delete: %w", err)
	}

	var (
		ids   []int64
		paths []string
		seen  = map[string]struct{}{}
	)
	for rows.Next() {
		var (
			id             int64
			original, proc string
		)
		if err := rows.Scan(&id, &original, &proc); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan delete candidates: %w", err)
		}
		ids = append(ids, id)
		for _, p := range []string{original, proc} {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, nil, fmt.Errorf("close delete candidates: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM mri_scans WHERE patient_id = ?`, patientID,
	); err != nil {
		return nil, nil, fmt.Errorf("delete scans by patient: %w", err)
	}
	return ids, paths, nil
}

func scanScan(row interface {
	Scan(dest ...any) error
}) (*domain.Scan, error) {
	var (
		scan      domain.Scan
		label     sql.NullString
		origW     sql.NullInt64
		origH     sql.NullInt64
		procW     sql.NullInt64
		procH     sql.NullInt64
		meanPixel sql.NullFloat64
		stdPixel  sql.NullFloat64
		age       sql.NullInt64
	)
	if err := row.Scan(
		&scan.ID,
		&scan.OriginalPath,
		&scan.ProcessedPath,
		&label,
		&origW,
		&origH,
		&procW,
		&procH,
		&meanPixel,
		&stdPixel,
		&scan.PatientID,
		&age,
		&scan.Gender,
		&scan.HospitalUnit,
		&scan.ScanDate,
		&scan.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan mri record: %w", err)
	}

	if label.Valid {
		scan.Label = &label.String
	}
	if origW.Valid {
		v := int(origW.Int64)
		scan.OrigWidth = &v
	}
	if origH.Valid {
		v := int(origH.Int64)
		scan.OrigHeight = &v
	}
	if procW.Valid {
		v := int(procW.Int64)
		scan.ProcWidth = &v
	}
	if procH.Valid {
		v := int(procH.Int64)
		scan.ProcHeight = &v
	}
	if meanPixel.Valid {
		scan.MeanPixel = &meanPixel.Float64
	}
	if stdPixel.Valid {
		scan.StdPixel = &stdPixel.Float64
	}
	if age.Valid {
		v := int(age.Int64)
		scan.Age = &v
	}
	return &scan, nil
}
