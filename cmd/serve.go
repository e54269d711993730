package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attend/internal/config"
	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/database/postgres"
	"github.com/kozaktomas/face-attend/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recognition API server",
	Long: `Start the Face Attend API server.
The server exposes recognition, calibration, threshold, stats, identity
and attendance endpoints. With DATABASE_URL set, identities are loaded
from PostgreSQL and attendance marking is enabled; otherwise the roster
JSON files are used and results stay in memory.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Bool("calibrate", false, "Run a calibration before serving")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	var stores web.Stores
	var identityReader *postgres.IdentityRepository

	if cfg.Database.URL != "" {
		fmt.Println("Connecting to PostgreSQL...")
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		identityReader = postgres.NewIdentityRepository(pool)
		stores.Identities = identityReader
		stores.Calibrations = postgres.NewCalibrationRepository(pool)
		stores.Attendance = postgres.NewAttendanceRepository(pool)
		fmt.Println("Using PostgreSQL backend")
	} else {
		fmt.Println("DATABASE_URL not set, running in-memory with roster files")
	}

	eng := newEngine(cfg, stores.Calibrations)

	// A nil *IdentityRepository must stay a nil interface.
	var reader database.IdentityReader
	if identityReader != nil {
		reader = identityReader
	}

	identities, source, err := loadIdentities(ctx, cfg, reader)
	if err != nil {
		return err
	}
	eng.Load(identities)
	fmt.Printf("Loaded %d identities from %s\n", len(identities), source)

	if mustGetBool(cmd, "calibrate") {
		result, err := eng.Calibrate(ctx)
		if err != nil {
			fmt.Printf("Warning: startup calibration skipped: %v\n", err)
		} else {
			fmt.Printf("Calibrated: distance=%.3f confidence=%.3f\n",
				result.DistanceThreshold, result.ConfidenceThreshold)
		}
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, eng, stores, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attend API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
