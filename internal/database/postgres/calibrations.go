package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/engine"
)

// CalibrationRepository persists calibration runs as an append-only history.
type CalibrationRepository struct {
	pool *Pool
}

// NewCalibrationRepository creates a new PostgreSQL calibration repository.
func NewCalibrationRepository(pool *Pool) *CalibrationRepository {
	return &CalibrationRepository{pool: pool}
}

// SaveCalibration appends one calibration result to the history.
func (r *CalibrationRepository) SaveCalibration(ctx context.Context, result *engine.CalibrationResult) error {
	query := `
		INSERT INTO calibrations (
			created_at, distance_threshold, confidence_threshold, quality_threshold,
			detector_mode, embeddings_used, unique_identities,
			avg_intra_class, avg_inter_class, std_intra_class
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		result.Timestamp,
		result.DistanceThreshold,
		result.ConfidenceThreshold,
		result.QualityThreshold,
		string(result.DetectorMode),
		result.EmbeddingsUsed,
		result.UniqueIdentities,
		result.AvgIntraClass,
		result.AvgInterClass,
		result.StdIntraClass,
	)
	if err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	return nil
}

// LatestCalibration returns the most recent record, nil if none exists.
func (r *CalibrationRepository) LatestCalibration(ctx context.Context) (*database.CalibrationRecord, error) {
	var rec database.CalibrationRecord

	err := r.pool.QueryRow(ctx, `
		SELECT id, created_at, distance_threshold, confidence_threshold, quality_threshold,
		       detector_mode, embeddings_used, unique_identities,
		       avg_intra_class, avg_inter_class, std_intra_class
		FROM calibrations
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`).Scan(
		&rec.ID,
		&rec.Timestamp,
		&rec.DistanceThreshold,
		&rec.ConfidenceThreshold,
		&rec.QualityThreshold,
		&rec.DetectorMode,
		&rec.EmbeddingsUsed,
		&rec.UniqueIdentities,
		&rec.AvgIntraClass,
		&rec.AvgInterClass,
		&rec.StdIntraClass,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest calibration: %w", err)
	}
	return &rec, nil
}

// ListCalibrations returns records newest first, up to limit.
func (r *CalibrationRepository) ListCalibrations(ctx context.Context, limit int) ([]database.CalibrationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at, distance_threshold, confidence_threshold, quality_threshold,
		       detector_mode, embeddings_used, unique_identities,
		       avg_intra_class, avg_inter_class, std_intra_class
		FROM calibrations
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query calibrations: %w", err)
	}
	defer rows.Close()

	var out []database.CalibrationRecord
	for rows.Next() {
		var rec database.CalibrationRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.DistanceThreshold,
			&rec.ConfidenceThreshold,
			&rec.QualityThreshold,
			&rec.DetectorMode,
			&rec.EmbeddingsUsed,
			&rec.UniqueIdentities,
			&rec.AvgIntraClass,
			&rec.AvgInterClass,
			&rec.StdIntraClass,
		); err != nil {
			return nil, fmt.Errorf("scan calibration: %w", err)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calibrations: %w", err)
	}
	return out, nil
}

// Verify interface compliance
var _ database.CalibrationStore = (*CalibrationRepository)(nil)
var _ engine.CalibrationWriter = (*CalibrationRepository)(nil)
