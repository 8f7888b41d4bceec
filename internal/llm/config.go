// Package llm provides centralized LLM configuration and client abstractions.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short rewrites of a single field
	TierLite ModelTier = "lite"
	// TierStandard is for section content generation
	TierStandard ModelTier = "standard"
	// TierAdvanced is for job-match analysis returning structured JSON
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider, the only one implemented.
const ProviderGemini Provider = "gemini"

// Options tune a single generation call.
type Options struct {
	Tier        ModelTier
	Temperature float32
	// MaxOutputTokens of 0 leaves the provider default.
	MaxOutputTokens int32
}

// Config holds the model configuration for the application
type Config struct {
	Provider           Provider
	Models             map[ModelTier]string
	DefaultTemperature float32
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		DefaultTemperature: 0.4,
	}
}

// GetModel returns the model name for a tier, falling back to standard then lite.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok && model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of the config using model for tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{
		Provider:           c.Provider,
		Models:             make(map[ModelTier]string, len(c.Models)+1),
		DefaultTemperature: c.DefaultTemperature,
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}
