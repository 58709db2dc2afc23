package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/observability"
)

var statusCommand = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Show a run's state, counters and jobs",
	Args:  cobra.ExactArgs(1),
	RunE:  statusCmd,
}

var statusDatabaseURL string

func init() {
	statusCommand.Flags().StringVar(&statusDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(statusCommand)
}

func statusCmd(_ *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	databaseURL := statusDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	jobs, err := database.ListJobs(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRun(run)
	printer.PrintJobs(jobs)
	return nil
}
