package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/easeaico/adaptive-tutor/internal/config"
	"github.com/easeaico/adaptive-tutor/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the application tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "Dry run mode - no changes will be made")
				fmt.Fprintln(out, "  - Would install the vector extension")
				fmt.Fprintf(out, "  - Would migrate application tables (%s)\n", strings.Join(storage.Models, ", "))
				return nil
			}

			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintln(out, "Migrating application tables...")
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "  ✓ Application tables migrated")
			fmt.Fprintln(out, "\nMigration completed successfully!")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be migrated without executing")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var (
		file   string
		dir    string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Execute SQL migration files from the migrations directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			files, err := findMigrationFiles(dir, file)
			if err != nil {
				return fmt.Errorf("failed to find migration files: %w", err)
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "No migration files found")
				return nil
			}

			fmt.Fprintf(out, "Found %d migration file(s):\n", len(files))
			for _, f := range files {
				fmt.Fprintf(out, "  - %s\n", filepath.Base(f))
			}
			if dryRun {
				fmt.Fprintln(out, "\nDry run mode - no SQL will be executed")
				return nil
			}

			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintln(out, "\nExecuting migrations...")
			for _, f := range files {
				fmt.Fprintf(out, "  Running %s... ", filepath.Base(f))
				if err := executeSQLFile(store.DB().WithContext(cmd.Context()), f); err != nil {
					fmt.Fprintln(out, "✗")
					return fmt.Errorf("failed to execute %s: %w", f, err)
				}
				fmt.Fprintln(out, "✓")
			}
			fmt.Fprintln(out, "\nSchema migration completed successfully!")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Specific migration file to execute")
	cmd.Flags().StringVar(&dir, "dir", "migrations", "Directory containing migration files")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be executed without running")
	return cmd
}

// openStore connects with relaxed validation; operator commands only need DATABASE_URL.
func openStore(ctx context.Context) (*storage.Store, error) {
	cfg := config.LoadLax()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return store, nil
}

func findMigrationFiles(dir, specificFile string) ([]string, error) {
	if specificFile != "" {
		fullPath := filepath.Join(dir, specificFile)
		if _, err := os.Stat(fullPath); err != nil {
			return nil, fmt.Errorf("migration file not found: %s", fullPath)
		}
		return []string{fullPath}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func executeSQLFile(db *gorm.DB, filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := db.Exec(string(content)).Error; err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}
