package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attend/internal/config"
	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/database/postgres"
	"github.com/kozaktomas/face-attend/internal/engine"
	"github.com/kozaktomas/face-attend/internal/roster"
)

// newEngine builds an engine from config with an optional calibration writer.
func newEngine(cfg *config.Config, calibrations engine.CalibrationWriter) *engine.Engine {
	return engine.New(engine.Options{
		Dim: cfg.Engine.Dim,
		Thresholds: engine.Thresholds{
			Distance:   cfg.Defaults.Thresholds.Distance,
			Confidence: cfg.Defaults.Thresholds.Confidence,
			Quality:    cfg.Defaults.Thresholds.Quality,
		},
		Quality: engine.QualityConfig{
			MinFaceSize:      cfg.Defaults.Quality.MinFaceSize,
			MaxFaceSize:      cfg.Defaults.Quality.MaxFaceSize,
			BlurThreshold:    cfg.Defaults.Quality.BlurThreshold,
			BrightnessMin:    cfg.Defaults.Quality.BrightnessMin,
			BrightnessMax:    cfg.Defaults.Quality.BrightnessMax,
			SizeWeight:       cfg.Defaults.Quality.Weights.Size,
			BlurWeight:       cfg.Defaults.Quality.Weights.Blur,
			BrightnessWeight: cfg.Defaults.Quality.Weights.Brightness,
			OrientWeight:     cfg.Defaults.Quality.Weights.Orientation,
		},
		DetectorMode: engine.DetectorMode(cfg.Engine.DetectorMode),
		Calibrations: calibrations,
		UseIndex:     cfg.Engine.UseIndex,
	})
}

// connectPostgres opens the PostgreSQL pool and applies pending migrations.
func connectPostgres(ctx context.Context, cfg *config.Config) (*postgres.Pool, error) {
	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pool, nil
}

// toEngineIdentity converts a stored identity to the engine representation.
func toEngineIdentity(stored database.StoredIdentity) engine.Identity {
	id := engine.Identity{
		Roll: stored.Roll,
		Meta: engine.Metadata{
			Name:             stored.Name,
			Role:             stored.Role,
			RegistrationDate: stored.RegistrationDate,
		},
	}
	for _, emb := range stored.Embeddings {
		id.Embeddings = append(id.Embeddings, engine.Embedding(emb))
	}
	return id
}

// loadIdentities loads the roster into engine identities. When a database
// is configured it is the source of truth; the JSON roster files are the
// fallback for database-less setups.
func loadIdentities(ctx context.Context, cfg *config.Config, reader database.IdentityReader) ([]engine.Identity, string, error) {
	if reader != nil {
		stored, err := reader.LoadIdentities(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load identities from database: %w", err)
		}
		identities := make([]engine.Identity, 0, len(stored))
		for _, s := range stored {
			if len(s.Embeddings) == 0 {
				continue
			}
			identities = append(identities, toEngineIdentity(s))
		}
		return identities, "database", nil
	}

	identities, err := roster.Load(cfg.Roster.StudentsFile, cfg.Roster.EncodingsFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load roster files: %w", err)
	}
	return identities, "roster files", nil
}
