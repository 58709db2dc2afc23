package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig builds limiter configuration from environment variables,
// falling back to the default tiers.
func LoadConfig() *Config {
	if !envBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: envDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Exempt:          clientSet(os.Getenv("RATE_LIMIT_EXEMPT")),
		Blocked:         clientSet(os.Getenv("RATE_LIMIT_BLOCKED")),
		Tiers:           DefaultTiers(),
	}
}

// DefaultTiers sizes budgets by downstream cost. Reads fall through to the
// default limit; /health is always unlimited.
func DefaultTiers() []Tier {
	return []Tier{
		// A run start fans out into LLM calls and browser sessions, so
		// the budget is hourly with a tight burst.
		{Name: "run", Path: "/api/runs", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Name: "run", Path: "/api/runs/stream", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},

		// Resume and abandon touch external boards; one shared budget per
		// client regardless of which job ID is hit.
		{Name: "board", Path: "/api/jobs/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// clientSet parses a comma-separated client ID list into a set.
func clientSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = true
		}
	}
	return set
}
