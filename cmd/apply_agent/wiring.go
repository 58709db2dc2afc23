package main

import (
	"fmt"
	"time"

	"github.com/jonathan/job-autopilot/internal/apply"
	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/config"
	"github.com/jonathan/job-autopilot/internal/sources"
)

// defaultBoardURLs are the base endpoints used when the config does not
// override them. The generic web board has no meaningful default and must
// be configured explicitly.
var defaultBoardURLs = map[string]string{
	"greenhouse": "https://boards-api.greenhouse.io/v1",
	"lever":      "https://jobs.lever.co",
}

// buildAdapters assembles the source adapters named in the config.
func buildAdapters(cfg config.Config) ([]sources.Adapter, error) {
	names := cfg.Sources
	if len(names) == 0 {
		names = []string{"greenhouse", "lever"}
	}

	boardURL := func(name string) string {
		if url, ok := cfg.BoardURLs[name]; ok && url != "" {
			return url
		}
		return defaultBoardURLs[name]
	}

	var adapters []sources.Adapter
	for _, name := range names {
		switch name {
		case "greenhouse":
			board := cfg.GreenhouseBoard
			if board == "" {
				return nil, fmt.Errorf("greenhouse source requires greenhouse_board in config")
			}
			adapters = append(adapters, sources.NewGreenhouseAdapter(boardURL(name), board))
		case "lever":
			org := cfg.LeverOrg
			if org == "" {
				return nil, fmt.Errorf("lever source requires lever_org in config")
			}
			adapters = append(adapters, sources.NewLeverAdapter(boardURL(name), org))
		case "webboard":
			url := boardURL(name)
			if url == "" {
				return nil, fmt.Errorf("webboard source requires a board_urls entry in config")
			}
			adapters = append(adapters, sources.NewWebBoardAdapter(url))
		default:
			return nil, fmt.Errorf("unknown source %q", name)
		}
	}
	return adapters, nil
}

// buildAutomator returns a chromedp automator when browser use is enabled,
// nil otherwise. A nil automator excludes browser-driven strategies from
// every chain.
func buildAutomator(cfg config.Config) browser.Automator {
	if !cfg.UseBrowser {
		return nil
	}
	return browser.NewChromeAutomator()
}

// buildRetryPolicy applies the configured per-strategy try budget on top
// of the default backoff curve.
func buildRetryPolicy(cfg config.Config) apply.RetryPolicy {
	policy := apply.DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	return policy
}

// loadMergedConfig loads the optional config file, layers environment
// defaults underneath, and validates the result.
func loadMergedConfig(path string, applyFlags func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if applyFlags != nil {
		applyFlags(&cfg)
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// runTimeout bounds one full pipeline run from the CLI.
const runTimeout = 2 * time.Hour
