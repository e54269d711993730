package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-attend/internal/database"
)

// IdentityRepository provides PostgreSQL-backed identity and encoding storage.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// LoadIdentities returns all identities with their encodings, ordered by
// roll with encodings in capture order.
func (r *IdentityRepository) LoadIdentities(ctx context.Context) ([]database.StoredIdentity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT roll, name, role, registration_date, created_at
		FROM students
		ORDER BY roll
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var out []database.StoredIdentity
	index := make(map[string]int)

	for rows.Next() {
		var id database.StoredIdentity
		if err := rows.Scan(&id.Roll, &id.Name, &id.Role, &id.RegistrationDate, &id.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		index[id.Roll] = len(out)
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	encRows, err := r.pool.Query(ctx, `
		SELECT roll, embedding, dim
		FROM encodings
		ORDER BY roll, capture_index
	`)
	if err != nil {
		return nil, fmt.Errorf("query encodings: %w", err)
	}
	defer encRows.Close()

	for encRows.Next() {
		var roll string
		var vec pgvector.Vector
		var dim int
		if err := encRows.Scan(&roll, &vec, &dim); err != nil {
			return nil, fmt.Errorf("scan encoding: %w", err)
		}
		i, ok := index[roll]
		if !ok {
			continue
		}
		out[i].Embeddings = append(out[i].Embeddings, vec.Slice())
		out[i].Dim = dim
	}

	if err := encRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encodings: %w", err)
	}
	return out, nil
}

// GetIdentity retrieves one identity by roll, returns nil if not found.
func (r *IdentityRepository) GetIdentity(ctx context.Context, roll string) (*database.StoredIdentity, error) {
	var id database.StoredIdentity

	err := r.pool.QueryRow(ctx, `
		SELECT roll, name, role, registration_date, created_at
		FROM students
		WHERE roll = $1
	`, roll).Scan(&id.Roll, &id.Name, &id.Role, &id.RegistrationDate, &id.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query identity: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT embedding, dim
		FROM encodings
		WHERE roll = $1
		ORDER BY capture_index
	`, roll)
	if err != nil {
		return nil, fmt.Errorf("query encodings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vec pgvector.Vector
		var dim int
		if err := rows.Scan(&vec, &dim); err != nil {
			return nil, fmt.Errorf("scan encoding: %w", err)
		}
		id.Embeddings = append(id.Embeddings, vec.Slice())
		id.Dim = dim
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encodings: %w", err)
	}
	return &id, nil
}

// FindByName retrieves identities whose name matches after stripping
// accents, case-insensitively.
func (r *IdentityRepository) FindByName(ctx context.Context, name string) ([]database.StoredIdentity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT roll, name, role, registration_date, created_at
		FROM students
		WHERE LOWER(unaccent(name)) = LOWER(unaccent($1))
		ORDER BY roll
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query identities by name: %w", err)
	}
	defer rows.Close()

	var out []database.StoredIdentity
	for rows.Next() {
		var id database.StoredIdentity
		if err := rows.Scan(&id.Roll, &id.Name, &id.Role, &id.RegistrationDate, &id.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

// CountIdentities returns the number of registered identities.
func (r *IdentityRepository) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// CountEncodings returns the total number of stored encodings.
func (r *IdentityRepository) CountEncodings(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM encodings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count encodings: %w", err)
	}
	return count, nil
}

// SaveIdentity stores an identity and its encodings in a single
// transaction, replacing any existing encodings for the same roll.
func (r *IdentityRepository) SaveIdentity(ctx context.Context, id database.StoredIdentity) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO students (roll, name, role, registration_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (roll) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			registration_date = EXCLUDED.registration_date
	`, id.Roll, id.Name, id.Role, id.RegistrationDate)
	if err != nil {
		return fmt.Errorf("save identity %s: %w", id.Roll, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM encodings WHERE roll = $1", id.Roll); err != nil {
		return fmt.Errorf("clear encodings for %s: %w", id.Roll, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO encodings (roll, capture_index, embedding, dim)
		VALUES ($1, $2, $3::vector, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare encoding insert: %w", err)
	}
	defer stmt.Close()

	for i, emb := range id.Embeddings {
		vec := pgvector.NewVector(emb)
		if _, err := stmt.ExecContext(ctx, id.Roll, i, vec, len(emb)); err != nil {
			return fmt.Errorf("insert encoding %d for %s: %w", i, id.Roll, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit identity %s: %w", id.Roll, err)
	}
	return nil
}

// DeleteIdentity removes an identity; its encodings go with it via cascade.
func (r *IdentityRepository) DeleteIdentity(ctx context.Context, roll string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM students WHERE roll = $1", roll); err != nil {
		return fmt.Errorf("delete identity %s: %w", roll, err)
	}
	return nil
}

// Verify interface compliance
var _ database.IdentityReader = (*IdentityRepository)(nil)
var _ database.IdentityWriter = (*IdentityRepository)(nil)
