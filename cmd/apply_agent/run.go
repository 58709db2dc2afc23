package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/config"
	"github.com/jonathan/job-autopilot/internal/content"
	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/llm"
	"github.com/jonathan/job-autopilot/internal/observability"
	"github.com/jonathan/job-autopilot/internal/pipeline"
	"github.com/jonathan/job-autopilot/internal/scoring"
	"github.com/jonathan/job-autopilot/internal/sources"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full search-to-apply pipeline end-to-end",
	Long: `Orchestrates one pipeline run: search -> score -> generate content -> apply.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runQuery       string
	runLocation    string
	runLimit       int
	runThreshold   float64
	runAutoApprove bool
	runWorkers     int
	runMaxRetries  int
	runUseBrowser  bool
	runVerbose     bool
	runAPIKey      string
	runDatabaseURL string
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runQuery, "query", "q", "", "Keywords to search on every source")
	runCommand.Flags().StringVarP(&runLocation, "location", "l", "", "Location filter passed to sources")
	runCommand.Flags().IntVar(&runLimit, "limit", 0, "Maximum postings per run (0 = no cap)")
	runCommand.Flags().Float64Var(&runThreshold, "threshold", 0, "Relevance score a job needs to become eligible (0-100)")
	runCommand.Flags().BoolVar(&runAutoApprove, "auto-approve", false, "Apply to eligible jobs without waiting for human approval")
	runCommand.Flags().IntVar(&runWorkers, "workers", 0, "Parallel apply workers (default 3)")
	runCommand.Flags().IntVar(&runMaxRetries, "max-retries", 0, "Tries per strategy before falling through (default 3)")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Enable browser-driven strategies (requires Chrome)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for run persistence; runs without it keep no history
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(runConfigPath, func(cfg *config.Config) {
		// Only override if the flag was explicitly set
		if cmd.Flags().Changed("query") {
			cfg.Query = runQuery
		}
		if cmd.Flags().Changed("location") {
			cfg.Location = runLocation
		}
		if cmd.Flags().Changed("limit") {
			cfg.Limit = runLimit
		}
		if cmd.Flags().Changed("threshold") {
			cfg.RelevanceThreshold = runThreshold
		}
		if cmd.Flags().Changed("auto-approve") {
			cfg.AutoApprove = runAutoApprove
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = runWorkers
		}
		if cmd.Flags().Changed("max-retries") {
			cfg.MaxRetries = runMaxRetries
		}
		if cmd.Flags().Changed("use-browser") {
			cfg.UseBrowser = runUseBrowser
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = runVerbose
		}
		if cmd.Flags().Changed("api-key") {
			cfg.APIKey = runAPIKey
		}
		if cmd.Flags().Changed("db-url") {
			cfg.DatabaseURL = runDatabaseURL
		}
	})
	if err != nil {
		return err
	}

	if cfg.Query == "" {
		return fmt.Errorf("--query must be provided (via flag or config)")
	}
	if cfg.Applicant == nil {
		return fmt.Errorf("an applicant profile is required (via config file)")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	// Persistence is optional for CLI runs; without it the run keeps no
	// history and paused jobs cannot be resumed later.
	var repo pipeline.Repository
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		repo = database
	} else if !cfg.AutoApprove {
		fmt.Fprintln(os.Stderr, "Warning: no database configured; jobs held for approval or human action are lost when this run ends")
	}

	opts := pipeline.Options{
		Adapters:           adapters,
		Scorer:             scoring.NewGeminiScorer(client, cfg.Applicant),
		Generator:          content.NewGeminiGenerator(client),
		Automator:          buildAutomator(cfg),
		Repo:               repo,
		Applicant:          cfg.Applicant,
		Query:              sources.Query{Keywords: cfg.Query, Location: cfg.Location, Limit: cfg.Limit},
		RelevanceThreshold: cfg.RelevanceThreshold,
		AutoApprove:        cfg.AutoApprove,
		Workers:            cfg.Workers,
		RetryPolicy:        buildRetryPolicy(cfg),
		Verbose:            cfg.Verbose,
	}
	if cfg.Verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			fmt.Printf("[%s] %s\n", event.Stage, event.Message)
		}
	}

	orch, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	run, jobs, err := orch.Run(ctx)

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRun(run)
	if cfg.Verbose {
		printer.PrintJobs(jobs)
	}

	if err != nil {
		return fmt.Errorf("run %s failed: %w", run.ID, err)
	}
	return nil
}
