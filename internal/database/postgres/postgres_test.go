//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/kozaktomas/face-attend/internal/config"
	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/engine"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testEmbedding(seed int) []float32 {
	emb := make([]float32, 128)
	for i := range emb {
		emb[i] = float32(i+seed) / 128.0
	}
	return emb
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	t.Run("SaveAndGet", func(t *testing.T) {
		id := database.StoredIdentity{
			Roll:             "2024001",
			Name:             "Alice Novak",
			Role:             "student",
			RegistrationDate: "2024-09-01",
			Embeddings:       [][]float32{testEmbedding(0), testEmbedding(1)},
			Dim:              128,
		}

		if err := repo.SaveIdentity(ctx, id); err != nil {
			t.Fatalf("Failed to save identity: %v", err)
		}

		got, err := repo.GetIdentity(ctx, "2024001")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if got == nil {
			t.Fatal("Expected identity, got nil")
		}
		if got.Name != "Alice Novak" {
			t.Errorf("Expected name 'Alice Novak', got '%s'", got.Name)
		}
		if len(got.Embeddings) != 2 {
			t.Fatalf("Expected 2 encodings, got %d", len(got.Embeddings))
		}
		if len(got.Embeddings[0]) != 128 {
			t.Errorf("Expected 128 dimensions, got %d", len(got.Embeddings[0]))
		}
	})

	t.Run("SaveReplacesEncodings", func(t *testing.T) {
		id := database.StoredIdentity{
			Roll:       "2024001",
			Name:       "Alice Novak",
			Role:       "student",
			Embeddings: [][]float32{testEmbedding(5)},
			Dim:        128,
		}
		if err := repo.SaveIdentity(ctx, id); err != nil {
			t.Fatalf("Failed to re-save identity: %v", err)
		}

		got, err := repo.GetIdentity(ctx, "2024001")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if len(got.Embeddings) != 1 {
			t.Errorf("Expected old encodings replaced, got %d encodings", len(got.Embeddings))
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetIdentity(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil for missing identity, got %+v", got)
		}
	})

	t.Run("LoadIdentities", func(t *testing.T) {
		second := database.StoredIdentity{
			Roll:       "2024002",
			Name:       "Bob Svoboda",
			Role:       "student",
			Embeddings: [][]float32{testEmbedding(10)},
			Dim:        128,
		}
		if err := repo.SaveIdentity(ctx, second); err != nil {
			t.Fatalf("Failed to save identity: %v", err)
		}

		all, err := repo.LoadIdentities(ctx)
		if err != nil {
			t.Fatalf("Failed to load identities: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("Expected 2 identities, got %d", len(all))
		}
		if all[0].Roll != "2024001" || all[1].Roll != "2024002" {
			t.Errorf("Expected roll order, got %s, %s", all[0].Roll, all[1].Roll)
		}
	})

	t.Run("FindByName", func(t *testing.T) {
		found, err := repo.FindByName(ctx, "alice novak")
		if err != nil {
			t.Fatalf("Failed to find by name: %v", err)
		}
		if len(found) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(found))
		}
		if found[0].Roll != "2024001" {
			t.Errorf("Expected roll '2024001', got '%s'", found[0].Roll)
		}
	})

	t.Run("Counts", func(t *testing.T) {
		identities, err := repo.CountIdentities(ctx)
		if err != nil {
			t.Fatalf("Failed to count identities: %v", err)
		}
		if identities != 2 {
			t.Errorf("Expected 2 identities, got %d", identities)
		}

		encodings, err := repo.CountEncodings(ctx)
		if err != nil {
			t.Fatalf("Failed to count encodings: %v", err)
		}
		if encodings != 2 {
			t.Errorf("Expected 2 encodings, got %d", encodings)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.DeleteIdentity(ctx, "2024002"); err != nil {
			t.Fatalf("Failed to delete identity: %v", err)
		}
		got, err := repo.GetIdentity(ctx, "2024002")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if got != nil {
			t.Error("Expected identity deleted")
		}

		encodings, err := repo.CountEncodings(ctx)
		if err != nil {
			t.Fatalf("Failed to count encodings: %v", err)
		}
		if encodings != 1 {
			t.Errorf("Expected cascade to remove encodings, got %d", encodings)
		}
	})
}

func TestCalibrationRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewCalibrationRepository(pool)

	t.Run("EmptyHistory", func(t *testing.T) {
		latest, err := repo.LatestCalibration(ctx)
		if err != nil {
			t.Fatalf("Failed to query latest: %v", err)
		}
		if latest != nil {
			t.Errorf("Expected nil latest, got %+v", latest)
		}
	})

	t.Run("SaveAndLatest", func(t *testing.T) {
		first := &engine.CalibrationResult{
			Timestamp:           time.Now().Add(-time.Hour).UTC(),
			DistanceThreshold:   0.45,
			ConfidenceThreshold: 0.45,
			QualityThreshold:    0.7,
			DetectorMode:        engine.DetectorFast,
			EmbeddingsUsed:      30,
			UniqueIdentities:    10,
			AvgIntraClass:       0.25,
			AvgInterClass:       0.8,
			StdIntraClass:       0.1,
		}
		second := &engine.CalibrationResult{
			Timestamp:           time.Now().UTC(),
			DistanceThreshold:   0.38,
			ConfidenceThreshold: 0.52,
			QualityThreshold:    0.7,
			DetectorMode:        engine.DetectorAccurate,
			EmbeddingsUsed:      60,
			UniqueIdentities:    20,
			AvgIntraClass:       0.2,
			AvgInterClass:       0.85,
			StdIntraClass:       0.09,
		}

		if err := repo.SaveCalibration(ctx, first); err != nil {
			t.Fatalf("Failed to save calibration: %v", err)
		}
		if err := repo.SaveCalibration(ctx, second); err != nil {
			t.Fatalf("Failed to save calibration: %v", err)
		}

		latest, err := repo.LatestCalibration(ctx)
		if err != nil {
			t.Fatalf("Failed to query latest: %v", err)
		}
		if latest == nil {
			t.Fatal("Expected latest calibration, got nil")
		}
		if latest.DistanceThreshold != 0.38 {
			t.Errorf("Expected latest distance threshold 0.38, got %f", latest.DistanceThreshold)
		}
		if latest.DetectorMode != "accurate" {
			t.Errorf("Expected detector mode 'accurate', got '%s'", latest.DetectorMode)
		}
	})

	t.Run("List", func(t *testing.T) {
		records, err := repo.ListCalibrations(ctx, 10)
		if err != nil {
			t.Fatalf("Failed to list calibrations: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}
		if records[0].Timestamp.Before(records[1].Timestamp) {
			t.Error("Expected newest first ordering")
		}

		limited, err := repo.ListCalibrations(ctx, 1)
		if err != nil {
			t.Fatalf("Failed to list calibrations: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("Expected 1 record with limit 1, got %d", len(limited))
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewAttendanceRepository(pool)

	day := "2025-03-14"

	t.Run("FirstSightingWins", func(t *testing.T) {
		first := database.AttendanceRecord{
			ID:         uuid.New().String(),
			Roll:       "2024001",
			Name:       "Alice Novak",
			Day:        day,
			MarkedAt:   time.Now().UTC(),
			Confidence: 0.91,
		}

		stored, created, err := repo.MarkPresent(ctx, first)
		if err != nil {
			t.Fatalf("Failed to mark present: %v", err)
		}
		if !created {
			t.Error("Expected first sighting to create a record")
		}
		if stored.ID != first.ID {
			t.Errorf("Expected stored ID '%s', got '%s'", first.ID, stored.ID)
		}

		duplicate := first
		duplicate.ID = uuid.New().String()
		duplicate.Confidence = 0.99

		stored, created, err = repo.MarkPresent(ctx, duplicate)
		if err != nil {
			t.Fatalf("Failed to mark duplicate: %v", err)
		}
		if created {
			t.Error("Expected duplicate sighting to be ignored")
		}
		if stored.ID != first.ID {
			t.Errorf("Expected original record to win, got ID '%s'", stored.ID)
		}
		if stored.Confidence != 0.91 {
			t.Errorf("Expected original confidence 0.91, got %f", stored.Confidence)
		}
	})

	t.Run("ListByDay", func(t *testing.T) {
		second := database.AttendanceRecord{
			ID:       uuid.New().String(),
			Roll:     "2024002",
			Name:     "Bob Svoboda",
			Day:      day,
			MarkedAt: time.Now().UTC().Add(time.Minute),
		}
		if _, _, err := repo.MarkPresent(ctx, second); err != nil {
			t.Fatalf("Failed to mark present: %v", err)
		}

		records, err := repo.ListByDay(ctx, day)
		if err != nil {
			t.Fatalf("Failed to list by day: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}
		if records[0].Roll != "2024001" {
			t.Errorf("Expected oldest first, got roll '%s'", records[0].Roll)
		}
		if records[0].Day != day {
			t.Errorf("Expected day '%s', got '%s'", day, records[0].Day)
		}

		empty, err := repo.ListByDay(ctx, "2025-03-15")
		if err != nil {
			t.Fatalf("Failed to list empty day: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("Expected no records for other day, got %d", len(empty))
		}
	})

	t.Run("ClearDay", func(t *testing.T) {
		if err := repo.ClearDay(ctx, day); err != nil {
			t.Fatalf("Failed to clear day: %v", err)
		}
		records, err := repo.ListByDay(ctx, day)
		if err != nil {
			t.Fatalf("Failed to list by day: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("Expected cleared day, got %d records", len(records))
		}
	})
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	applied, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expected := []string{"0001_init.sql"}
	if len(applied) != len(expected) {
		t.Fatalf("Expected %d migrations, got %d", len(expected), len(applied))
	}
	for i, want := range expected {
		if applied[i] != want {
			t.Errorf("Migration %d: expected '%s', got '%s'", i, want, applied[i])
		}
	}

	// Re-running must be a no-op.
	if err := pool.Migrate(ctx); err != nil {
		t.Fatalf("Re-running migrations failed: %v", err)
	}
}
