package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/kozaktomas/face-attend/internal/database"
)

// Pool manages a MariaDB connection pool for the school records database.
// Attendance marked locally is pushed there so the existing reporting
// tooling keeps working.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// EnsureSchema creates the attendance table if it does not exist yet.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attendance (
			id         CHAR(36) NOT NULL PRIMARY KEY,
			roll       VARCHAR(64) NOT NULL,
			name       VARCHAR(255) NOT NULL,
			day        DATE NOT NULL,
			marked_at  DATETIME NOT NULL,
			confidence DOUBLE NOT NULL DEFAULT 0,
			UNIQUE KEY uniq_roll_day (roll, day)
		)
	`)
	if err != nil {
		return fmt.Errorf("create attendance table: %w", err)
	}
	return nil
}

// UpsertAttendance writes one attendance record. An existing (roll, day)
// row is left untouched so the first sighting stays authoritative.
func (p *Pool) UpsertAttendance(ctx context.Context, rec database.AttendanceRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO attendance (id, roll, name, day, marked_at, confidence)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = id
	`, rec.ID, rec.Roll, rec.Name, rec.Day, rec.MarkedAt, rec.Confidence)
	if err != nil {
		return fmt.Errorf("upsert attendance %s/%s: %w", rec.Roll, rec.Day, err)
	}
	return nil
}

// ExportDay pushes a day's attendance records. Returns the number of
// records written; already-present rows still count as exported.
func (p *Pool) ExportDay(ctx context.Context, records []database.AttendanceRecord) (int, error) {
	exported := 0
	for _, rec := range records {
		if err := p.UpsertAttendance(ctx, rec); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

// CountDay returns the number of attendance rows for one day (YYYY-MM-DD).
func (p *Pool) CountDay(ctx context.Context, day string) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance WHERE day = ?", day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attendance for %s: %w", day, err)
	}
	return count, nil
}
