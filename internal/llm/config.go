// Package llm provides the model client abstraction used by the scoring and
// content gateways. It centralizes model tier selection so callers never
// hardcode model names.
package llm

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierLite is for classification and scoring tasks.
	TierLite ModelTier = "lite"
	// TierStandard is for structured extraction and question answering.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form generation: summaries, cover letters.
	TierAdvanced ModelTier = "advanced"
)

// Config holds the model configuration.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a tier, falling back to the standard
// tier when the requested tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if m, ok := c.Models[tier]; ok {
		return m
	}
	return c.Models[TierStandard]
}
