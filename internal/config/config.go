// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags or environment variables.
type Config struct {
	// Search
	Query     string            `json:"query,omitempty"`
	Location  string            `json:"location,omitempty"`
	Limit     int               `json:"limit,omitempty" validate:"gte=0"`
	Sources   []string          `json:"sources,omitempty" validate:"dive,oneof=greenhouse lever webboard"`
	BoardURLs map[string]string `json:"board_urls,omitempty"` // Base URL per source name

	// Board identity
	GreenhouseBoard string `json:"greenhouse_board,omitempty"` // Greenhouse board token
	LeverOrg        string `json:"lever_org,omitempty"`        // Lever organization slug

	// Selection
	RelevanceThreshold float64 `json:"relevance_threshold,omitempty" validate:"gte=0,lte=100"`
	AutoApprove        bool    `json:"auto_approve,omitempty"` // Skip the human approval gate

	// Applying
	Workers    int  `json:"workers,omitempty" validate:"gte=0,lte=32"`
	MaxRetries int  `json:"max_retries,omitempty" validate:"gte=0,lte=10"`
	UseBrowser bool `json:"use_browser,omitempty"` // Enable chromedp-driven strategies

	// Applicant. Validated separately below so its failures carry a
	// dedicated message instead of the generic field one.
	Applicant *types.ApplicantProfile `json:"applicant,omitempty" validate:"omitempty,structonly"`

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	ServerAddr  string `json:"server_addr,omitempty"`  // HTTP API listen address
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: field %q failed %q validation", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Applicant != nil {
		if err := v.Struct(c.Applicant); err != nil {
			return fmt.Errorf("config error: invalid applicant profile: %w", err)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags, and environment variables as defaults for both.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Query == "" {
		result.Query = defaults.Query
	}
	if result.Location == "" {
		result.Location = defaults.Location
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ServerAddr == "" {
		result.ServerAddr = defaults.ServerAddr
	}

	// Composite fields: use default if unset
	if len(result.Sources) == 0 {
		result.Sources = defaults.Sources
	}
	if len(result.BoardURLs) == 0 {
		result.BoardURLs = defaults.BoardURLs
	}
	if result.GreenhouseBoard == "" {
		result.GreenhouseBoard = defaults.GreenhouseBoard
	}
	if result.LeverOrg == "" {
		result.LeverOrg = defaults.LeverOrg
	}
	if result.Applicant == nil {
		result.Applicant = defaults.Applicant
	}

	// Int fields: use default if zero
	if result.Limit == 0 {
		result.Limit = defaults.Limit
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}

	// Float fields
	if result.RelevanceThreshold == 0 {
		if defaults.RelevanceThreshold > 0 {
			result.RelevanceThreshold = defaults.RelevanceThreshold
		} else {
			result.RelevanceThreshold = 70 // Default eligibility cutoff
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// FromEnv returns a Config populated from environment variables, used as
// the lowest-priority default layer.
func FromEnv() Config {
	return Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ServerAddr:  os.Getenv("SERVER_ADDR"),
	}
}
