package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attend/internal/config"
	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/database/postgres"
	"github.com/kozaktomas/face-attend/internal/engine"
	"github.com/kozaktomas/face-attend/internal/roster"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the roster JSON files into PostgreSQL",
	Long: `Import students and their face encodings from the roster JSON files
into PostgreSQL. Existing identities with the same roll are replaced,
including their encodings.

The import can be re-run safely - it is an upsert per identity.

Examples:
  # Import with the configured roster paths
  DATABASE_URL=postgres://... face-attend import

  # Import from specific files
  face-attend import --students students.json --encodings encodings.json`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("students", "", "Path to the students JSON file (defaults to config)")
	importCmd.Flags().String("encodings", "", "Path to the encodings JSON file (defaults to config)")
	importCmd.Flags().Bool("dry-run", false, "Parse and report without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	studentsFile := mustGetString(cmd, "students")
	if studentsFile == "" {
		studentsFile = cfg.Roster.StudentsFile
	}
	encodingsFile := mustGetString(cmd, "encodings")
	if encodingsFile == "" {
		encodingsFile = cfg.Roster.EncodingsFile
	}

	identities, err := roster.Load(studentsFile, encodingsFile)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	if len(identities) == 0 {
		return errors.New("roster is empty, nothing to import")
	}

	total := 0
	for _, id := range identities {
		total += len(id.Embeddings)
	}
	fmt.Printf("Parsed %d identities with %d encodings\n", len(identities), total)

	if mustGetBool(cmd, "dry-run") {
		fmt.Println("Dry run, nothing written")
		return nil
	}

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Println("Connecting to PostgreSQL...")
	pool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewIdentityRepository(pool)

	bar := progressbar.Default(int64(len(identities)), "importing")
	imported := 0
	failed := 0

	for _, id := range identities {
		stored := database.StoredIdentity{
			Roll:             id.Roll,
			Name:             id.Meta.Name,
			Role:             id.Meta.Role,
			RegistrationDate: id.Meta.RegistrationDate,
			Dim:              pgDim(id),
		}
		for _, emb := range id.Embeddings {
			stored.Embeddings = append(stored.Embeddings, emb)
		}

		if err := repo.SaveIdentity(ctx, stored); err != nil {
			fmt.Printf("\nWarning: failed to import %s: %v\n", id.Roll, err)
			failed++
		} else {
			imported++
		}
		bar.Add(1)
	}

	fmt.Printf("\nImported %d identities", imported)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()

	count, err := repo.CountEncodings(ctx)
	if err == nil {
		fmt.Printf("Encodings in database: %d\n", count)
	}
	return nil
}

// pgDim returns the embedding dimension of one identity.
func pgDim(id engine.Identity) int {
	if len(id.Embeddings) == 0 {
		return 0
	}
	return len(id.Embeddings[0])
}
