package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"neuroscan/internal/domain"
	"neuroscan/internal/repository"
)

const createClassificationsTable = `
CREATE TABLE IF NOT EXISTS tumor_classification (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	processed_path TEXT NOT NULL,
	predicted_label TEXT NOT NULL,
	confidence REAL NOT NULL,
	model_name TEXT NOT NULL,
	classified_at DATETIME NOT NULL
);
`

type ClassificationRepository struct {
	db *sql.DB
}

func NewClassificationRepository(db *sql.DB) repository.ClassificationRepository {
	return &ClassificationRepository{db: db}
}

func (r *ClassificationRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createClassificationsTable); err != nil {
		return fmt.Errorf("create tumor_classification table: %w", err)
	}
	return nil
}

func (r *ClassificationRepository) Append(ctx context.Context, c *domain.Classification) (int64, error) {
	if c.ClassifiedAt.IsZero() {
		c.ClassifiedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO tumor_classification (processed_path, predicted_label, confidence, model_name, classified_at)
VALUES (?, ?, ?, ?, ?)`,
		c.ProcessedPath,
		c.PredictedLabel,
		c.Confidence,
		c.ModelName,
		c.ClassifiedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert classification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("classification last insert id: %w", err)
	}
	c.ID = id
	return id, nil
}

func (r *ClassificationRepository) ListByPath(ctx context.Context, processedPath string) ([]domain.Classification, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, processed_path, predicted_label, confidence, model_name, classified_at
FROM tumor_classification
WHERE processed_path = ?
ORDER BY classified_at DESC, id DESC`,
		processedPath,
	)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	defer rows.Close()

	var records []domain.Classification
	for rows.Next() {
		var c domain.Classification
		if err := rows.Scan(
			&c.ID,
			&c.ProcessedPath,
			&c.PredictedLabel,
			&c.Confidence,
			&c.ModelName,
			&c.ClassifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classifications: %w", err)
	}
	return records, nil
}

func (r *ClassificationRepository) DeleteByPaths(ctx context.Context, processedPaths []string) (int64, error) {
	if len(processedPaths) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(processedPaths)), ", ")
	args := make([]any, len(processedPaths))
	for i, p := range processedPaths {
		args[i] = p
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tumor_classification WHERE processed_path IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete classifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("classification rows affected: %w", err)
	}
	return n, nil
}
