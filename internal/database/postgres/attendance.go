package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attend/internal/database"
)

// AttendanceRepository records daily attendance in PostgreSQL.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkPresent records a sighting. The (roll, day) unique constraint makes
// the first sighting win; a conflicting insert returns the existing record.
func (r *AttendanceRepository) MarkPresent(ctx context.Context, rec database.AttendanceRecord) (*database.AttendanceRecord, bool, error) {
	query := `
		INSERT INTO attendance (id, roll, name, day, marked_at, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (roll, day) DO NOTHING
		RETURNING id
	`

	var insertedID string
	err := r.pool.QueryRow(ctx, query,
		rec.ID, rec.Roll, rec.Name, rec.Day, rec.MarkedAt, rec.Confidence,
	).Scan(&insertedID)
	if err == nil {
		return &rec, true, nil
	}

	// RETURNING yields no row when the insert conflicted; fetch what won.
	existing, ferr := r.getByRollAndDay(ctx, rec.Roll, rec.Day)
	if ferr != nil {
		return nil, false, ferr
	}
	if existing == nil {
		return nil, false, fmt.Errorf("mark present %s on %s: %w", rec.Roll, rec.Day, err)
	}
	return existing, false, nil
}

func (r *AttendanceRepository) getByRollAndDay(ctx context.Context, roll, day string) (*database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, roll, name, TO_CHAR(day, 'YYYY-MM-DD'), marked_at, confidence
		FROM attendance
		WHERE roll = $1 AND day = $2
	`, roll, day)
	if err != nil {
		return nil, fmt.Errorf("query attendance record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var rec database.AttendanceRecord
	if err := rows.Scan(&rec.ID, &rec.Roll, &rec.Name, &rec.Day, &rec.MarkedAt, &rec.Confidence); err != nil {
		return nil, fmt.Errorf("scan attendance record: %w", err)
	}
	return &rec, nil
}

// ListByDay returns all records for a day (YYYY-MM-DD), oldest first.
func (r *AttendanceRepository) ListByDay(ctx context.Context, day string) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, roll, name, TO_CHAR(day, 'YYYY-MM-DD'), marked_at, confidence
		FROM attendance
		WHERE day = $1
		ORDER BY marked_at
	`, day)
	if err != nil {
		return nil, fmt.Errorf("query attendance by day: %w", err)
	}
	defer rows.Close()

	var out []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.Roll, &rec.Name, &rec.Day, &rec.MarkedAt, &rec.Confidence); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return out, nil
}

// ClearDay removes all records for a day.
func (r *AttendanceRepository) ClearDay(ctx context.Context, day string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM attendance WHERE day = $1", day); err != nil {
		return fmt.Errorf("clear attendance for %s: %w", day, err)
	}
	return nil
}

// Verify interface compliance
var _ database.AttendanceStore = (*AttendanceRepository)(nil)
