package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes endpoints for starting runs, inspecting their jobs and attempts, streaming progress, and resuming paused jobs.`,
	RunE:  runServe,
}

var (
	servePort       int
	serveConfigPath string
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(serveConfigPath, nil)
	if err != nil {
		return err
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or database_url config is required")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or api_key config is required")
	}
	if cfg.Applicant == nil {
		return fmt.Errorf("an applicant profile is required (via config file)")
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:               servePort,
		DatabaseURL:        cfg.DatabaseURL,
		APIKey:             cfg.APIKey,
		Adapters:           adapters,
		Automator:          buildAutomator(cfg),
		Applicant:          cfg.Applicant,
		RelevanceThreshold: cfg.RelevanceThreshold,
		AutoApprove:        cfg.AutoApprove,
		Workers:            cfg.Workers,
		RetryPolicy:        buildRetryPolicy(cfg),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
