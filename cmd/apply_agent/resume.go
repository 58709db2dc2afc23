package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/config"
	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/observability"
	"github.com/jonathan/job-autopilot/internal/pipeline"
	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

var resumeCommand = &cobra.Command{
	Use:   "resume <job-id>",
	Short: "Resume a job that is awaiting human action",
	Long: `Re-enters the application strategy chain for a paused job at the strategy
that handed it to a human, after the blocking obstacle has been cleared.`,
	Args: cobra.ExactArgs(1),
	RunE: resumeJobCmd,
}

var (
	resumeConfigPath string
	resumeAbandon    bool
	resumeUseBrowser bool
)

func init() {
	resumeCommand.Flags().StringVar(&resumeConfigPath, "config", "", "Path to config.json file")
	resumeCommand.Flags().BoolVar(&resumeAbandon, "abandon", false, "Mark the job failed instead of re-attempting it")
	resumeCommand.Flags().BoolVar(&resumeUseBrowser, "use-browser", true, "Enable browser-driven strategies (requires Chrome)")
	rootCmd.AddCommand(resumeCommand)
}

func resumeJobCmd(cmd *cobra.Command, args []string) error {
	jobID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", args[0], err)
	}

	cfg, err := loadMergedConfig(resumeConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("use-browser") {
			cfg.UseBrowser = resumeUseBrowser
		} else if !cfg.UseBrowser {
			// Resumption usually re-enters a browser strategy.
			cfg.UseBrowser = true
		}
	})
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or database_url config is required")
	}
	if cfg.Applicant == nil {
		return fmt.Errorf("an applicant profile is required (via config file)")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	job, err := database.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}

	if resumeAbandon {
		if err := pipeline.AbandonJob(ctx, database, job); err != nil {
			return err
		}
		fmt.Printf("Job %s abandoned\n", jobID)
		return nil
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}
	var adapter sources.Adapter
	for _, a := range adapters {
		if a.Name() == job.Source {
			adapter = a
		}
	}

	out, err := pipeline.ResumeJob(ctx, database, job, adapter, buildAutomator(cfg), cfg.Applicant, buildRetryPolicy(cfg))
	if err != nil {
		return err
	}

	fmt.Printf("Job %s: %s via %s\n", jobID, out.Outcome, out.Strategy)
	if out.Outcome == types.OutcomeNeedsHuman {
		fmt.Printf("Still paused: %s\n", out.Reason)
	}

	attempts, err := database.ListAttempts(ctx, jobID)
	if err == nil {
		observability.NewPrinter(os.Stdout).PrintAttempts(job, attempts)
	}
	return nil
}
