package repository

import (
	"context"
	"fmt"
	"time"

	"miniml-backend/core/models"
)

// DatasetRepository handles database operations for ingested datasets
type DatasetRepository struct {
	db *DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// UpsertDataset inserts a dataset or replaces the one with the same filename
func (r *DatasetRepository) UpsertDataset(ctx context.Context, ds *models.Dataset) error {
	query := `
		INSERT INTO datasets (
			filename, file_size, row_count, column_count, missing_percentage, uploaded_at, content
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (filename) DO UPDATE SET
			file_size = excluded.file_size,
			row_count = excluded.row_count,
			column_count = excluded.column_count,
			missing_percentage = excluded.missing_percentage,
			uploaded_at = excluded.uploaded_at,
			content = excluded.content
	`

	_, err := r.db.ExecContext(ctx, r.db.rebind(query),
		ds.Filename,
		ds.FileSize,
		ds.Rows,
		ds.Columns,
		ds.MissingPercentage,
		ds.UploadedAt.UTC().Format(time.RFC3339Nano),
		ds.Content,
	)
	return err
}

// DeleteDataset removes a dataset, reporting whether a row existed
func (r *DatasetRepository) DeleteDataset(ctx context.Context, filename string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.rebind(`DELETE FROM datasets WHERE filename = $1`), filename)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDatasets returns every stored dataset ordered by filename
func (r *DatasetRepository) ListDatasets(ctx context.Context) ([]*models.Dataset, error) {
	query := `
		SELECT filename, file_size, row_count, column_count, missing_percentage, uploaded_at, content
		FROM datasets
		ORDER BY filename
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []*models.Dataset
	for rows.Next() {
		var ds models.Dataset
		var uploadedAt string

		err := rows.Scan(
			&ds.Filename,
			&ds.FileSize,
			&ds.Rows,
			&ds.Columns,
			&ds.MissingPercentage,
			&uploadedAt,
			&ds.Content,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}

		ds.UploadedAt, err = time.Parse(time.RFC3339Nano, uploadedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid uploaded_at for %s: %w", ds.Filename, err)
		}
		datasets = append(datasets, &ds)
	}

	return datasets, rows.Err()
}
