package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attend/internal/config"
	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/database/postgres"
	"github.com/kozaktomas/face-attend/internal/embedder"
	"github.com/kozaktomas/face-attend/internal/engine"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image.jpg>",
	Short: "Detect and identify faces in a frame",
	Long: `Send a frame to the embedding sidecar, match every detected face
against the registered identities and print the decisions.

With --mark and DATABASE_URL set, matched faces are recorded as present
for today. Repeat sightings on the same day are ignored.

Examples:
  # Identify faces in a snapshot
  face-attend recognize frame.jpg

  # Identify and mark attendance
  DATABASE_URL=postgres://... face-attend recognize --mark frame.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Bool("mark", false, "Mark matched faces as present for today")
	recognizeCmd.Flags().Bool("calibrate", true, "Calibrate thresholds before matching")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	frame, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read frame: %w", err)
	}

	var reader database.IdentityReader
	var attendance database.AttendanceStore

	if cfg.Database.URL != "" {
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		reader = postgres.NewIdentityRepository(pool)
		attendance = postgres.NewAttendanceRepository(pool)
	}

	eng := newEngine(cfg, nil)
	identities, source, err := loadIdentities(ctx, cfg, reader)
	if err != nil {
		return err
	}
	eng.Load(identities)
	fmt.Printf("Loaded %d identities from %s\n", len(identities), source)

	if mustGetBool(cmd, "calibrate") {
		if _, err := eng.Calibrate(ctx); err != nil {
			fmt.Printf("Calibration skipped: %v\n", err)
		}
	}

	client, err := embedder.NewClient(&cfg.Embedder)
	if err != nil {
		return err
	}

	start := time.Now()
	faces, err := client.Detect(ctx, frame, eng.DetectorMode())
	if err != nil {
		return fmt.Errorf("face detection failed: %w", err)
	}
	eng.ObserveDetection(time.Since(start))

	if len(faces) == 0 {
		fmt.Println("No faces detected")
		return nil
	}

	mark := mustGetBool(cmd, "mark")
	today := time.Now().Format("2006-01-02")

	for i, face := range faces {
		result := eng.Recognize(face.Box, face.Embedding, nil, false)
		if !result.Matched {
			fmt.Printf("Face %d: no match (distance %.4f)\n", i+1, result.Distance)
			continue
		}

		fmt.Printf("Face %d: %s (%s) confidence %.4f distance %.4f\n",
			i+1, result.Name, result.Roll, result.Confidence, result.Distance)

		if mark && attendance != nil {
			rec := database.AttendanceRecord{
				ID:         uuid.New().String(),
				Roll:       result.Roll,
				Name:       result.Name,
				Day:        today,
				MarkedAt:   time.Now(),
				Confidence: result.Confidence,
			}
			_, created, err := attendance.MarkPresent(ctx, rec)
			if err != nil {
				fmt.Printf("  Warning: failed to mark attendance: %v\n", err)
			} else if created {
				fmt.Printf("  Marked present for %s\n", today)
			} else {
				fmt.Printf("  Already marked present for %s\n", today)
			}
		}
	}

	printStats(eng)
	return nil
}

func printStats(eng *engine.Engine) {
	stats := eng.Stats()
	fmt.Println()
	fmt.Printf("Attempts: %d, successes: %d (rate %.2f)\n",
		stats.Attempts, stats.Successes, stats.RecognitionRate)
}
