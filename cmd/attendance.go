package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attend/internal/config"
	"github.com/kozaktomas/face-attend/internal/database/mariadb"
	"github.com/kozaktomas/face-attend/internal/database/postgres"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect and export attendance records",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records for a day",
	Long: `List the attendance records for one day (defaults to today).

Examples:
  face-attend attendance list
  face-attend attendance list --day 2025-03-14 --json`,
	RunE: runAttendanceList,
}

var attendanceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a day's attendance to the school MariaDB",
	Long: `Push a day's attendance records into the school records database.
Rows already present there are left untouched.`,
	RunE: runAttendanceExport,
}

var attendanceClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all attendance records for a day",
	RunE:  runAttendanceClear,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd)
	attendanceCmd.AddCommand(attendanceExportCmd)
	attendanceCmd.AddCommand(attendanceClearCmd)

	for _, c := range []*cobra.Command{attendanceListCmd, attendanceExportCmd, attendanceClearCmd} {
		c.Flags().String("day", "", "Day to operate on, YYYY-MM-DD (defaults to today)")
	}
	attendanceListCmd.Flags().Bool("json", false, "Output as JSON")
}

// resolveDay validates the --day flag, defaulting to today.
func resolveDay(cmd *cobra.Command) (string, error) {
	day := mustGetString(cmd, "day")
	if day == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", fmt.Errorf("invalid day %q, expected YYYY-MM-DD", day)
	}
	return day, nil
}

func attendanceRepo(ctx context.Context, cfg *config.Config) (*postgres.AttendanceRepository, func(), error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewAttendanceRepository(pool), func() { pool.Close() }, nil
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	day, err := resolveDay(cmd)
	if err != nil {
		return err
	}

	repo, cleanup, err := attendanceRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := repo.ListByDay(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}

	if mustGetBool(cmd, "json") {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		fmt.Printf("No attendance records for %s\n", day)
		return nil
	}

	fmt.Printf("Attendance for %s (%d present):\n", day, len(records))
	for _, rec := range records {
		fmt.Printf("  %s  %-10s %-25s confidence %.2f\n",
			rec.MarkedAt.Format("15:04:05"), rec.Roll, rec.Name, rec.Confidence)
	}
	return nil
}

func runAttendanceExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.MariaDB.DSN == "" {
		return errors.New("MARIADB_DSN environment variable is required")
	}

	day, err := resolveDay(cmd)
	if err != nil {
		return err
	}

	repo, cleanup, err := attendanceRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := repo.ListByDay(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}
	if len(records) == 0 {
		fmt.Printf("No attendance records for %s, nothing to export\n", day)
		return nil
	}

	fmt.Println("Connecting to MariaDB...")
	pool, err := mariadb.NewPool(cfg.MariaDB.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.EnsureSchema(ctx); err != nil {
		return err
	}

	exported, err := pool.ExportDay(ctx, records)
	if err != nil {
		return fmt.Errorf("export stopped after %d records: %w", exported, err)
	}

	count, err := pool.CountDay(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to verify export: %w", err)
	}
	fmt.Printf("Exported %d records, MariaDB now holds %d rows for %s\n", exported, count, day)
	return nil
}

func runAttendanceClear(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	day, err := resolveDay(cmd)
	if err != nil {
		return err
	}

	repo, cleanup, err := attendanceRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := repo.ClearDay(ctx, day); err != nil {
		return fmt.Errorf("failed to clear attendance: %w", err)
	}
	fmt.Printf("Cleared attendance for %s\n", day)
	return nil
}
