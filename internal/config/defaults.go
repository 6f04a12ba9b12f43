package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseDir: DefaultBaseDir(),

		GitHub: GitHubConfig{
			RateLimit:      0, // auto based on auth
			RequestTimeout: 30 * time.Second,
			CacheTTL:       time.Hour,
		},

		Classify: ClassifyConfig{
			AnthropicModel:  "claude-3-haiku-20240307",
			OpenAIModel:     "gpt-4o-mini",
			MaxContentChars: 8000,
		},

		Tier: DefaultTierConfig(),

		Archive: ArchiveConfig{
			BatchSize: 100,
		},

		Discovery: DiscoveryConfig{
			PageSize: 100,
			DedupTTL: 24 * time.Hour,
		},

		Queue: QueueConfig{
			BatchSize:   10,
			MaxAttempts: 5,
		},
	}
}

// DefaultTierConfig returns the production lifecycle thresholds.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		HotStars:     100,
		WarmStars:    25,
		CoolStars:    5,
		ArchiveStars: 5,

		HotAccessWindow:  7 * 24 * time.Hour,
		WarmAccessWindow: 30 * 24 * time.Hour,
		CoolAccessWindow: 90 * 24 * time.Hour,

		ArchiveAccessStaleness: 365 * 24 * time.Hour,
		ArchiveCommitStaleness: 2 * 365 * 24 * time.Hour,

		HotInterval:  6 * time.Hour,
		WarmInterval: 24 * time.Hour,
		CoolInterval: 3 * 24 * time.Hour,
		ColdInterval: 7 * 24 * time.Hour,

		PageSize: 500,
		MaxPages: 200,
	}
}
