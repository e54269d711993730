package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attend/internal/config"
	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/database/postgres"
	"github.com/kozaktomas/face-attend/internal/engine"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Derive matching thresholds from the enrolled embeddings",
	Long: `Run a calibration over the registered face embeddings and print the
derived thresholds. With DATABASE_URL set, identities come from
PostgreSQL and the result is appended to the calibration history.

Examples:
  # Calibrate from the roster JSON files
  face-attend calibrate

  # Calibrate from the database and show the previous runs
  DATABASE_URL=postgres://... face-attend calibrate --history 5`,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().Int("history", 0, "Also print the last N persisted calibration runs")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	var reader database.IdentityReader
	var calibrations *postgres.CalibrationRepository

	if cfg.Database.URL != "" {
		fmt.Println("Connecting to PostgreSQL...")
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		reader = postgres.NewIdentityRepository(pool)
		calibrations = postgres.NewCalibrationRepository(pool)
	}

	var eng *engine.Engine
	if calibrations != nil {
		eng = newEngine(cfg, calibrations)
	} else {
		eng = newEngine(cfg, nil)
	}

	identities, source, err := loadIdentities(ctx, cfg, reader)
	if err != nil {
		return err
	}
	eng.Load(identities)
	fmt.Printf("Loaded %d identities from %s\n", len(identities), source)

	result, err := eng.Calibrate(ctx)
	if errors.Is(err, engine.ErrInsufficientData) {
		return fmt.Errorf("not enough embeddings to calibrate (need at least 5 across 2 identities)")
	}
	if err != nil && result == nil {
		return fmt.Errorf("calibration failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Calibration result:")
	fmt.Printf("  Distance threshold:   %.4f\n", result.DistanceThreshold)
	fmt.Printf("  Confidence threshold: %.4f\n", result.ConfidenceThreshold)
	fmt.Printf("  Quality threshold:    %.4f\n", result.QualityThreshold)
	fmt.Printf("  Detector mode:        %s\n", result.DetectorMode)
	fmt.Printf("  Embeddings used:      %d (%d identities)\n", result.EmbeddingsUsed, result.UniqueIdentities)
	fmt.Printf("  Avg intra-class:      %.4f (std %.4f)\n", result.AvgIntraClass, result.StdIntraClass)
	fmt.Printf("  Avg inter-class:      %.4f\n", result.AvgInterClass)

	if err != nil {
		fmt.Printf("\nWarning: thresholds computed but not persisted: %v\n", err)
	}

	if n := mustGetInt(cmd, "history"); n > 0 {
		if calibrations == nil {
			fmt.Println("\nNo calibration history without DATABASE_URL")
			return nil
		}
		records, err := calibrations.ListCalibrations(ctx, n)
		if err != nil {
			return fmt.Errorf("failed to list calibrations: %w", err)
		}
		fmt.Printf("\nLast %d calibration runs:\n", len(records))
		for _, rec := range records {
			fmt.Printf("  %s  distance=%.4f confidence=%.4f embeddings=%d\n",
				rec.Timestamp.Format("2006-01-02 15:04:05"),
				rec.DistanceThreshold, rec.ConfidenceThreshold, rec.EmbeddingsUsed)
		}
	}
	return nil
}
