// Package config handles application configuration management.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Base directory for all skillscat data (~/.skillscat)
	BaseDir string

	GitHub    GitHubConfig
	Classify  ClassifyConfig
	Tier      TierConfig
	Archive   ArchiveConfig
	Discovery DiscoveryConfig
	Queue     QueueConfig
}

// GitHubConfig holds source platform API settings.
type GitHubConfig struct {
	Token          string
	RateLimit      int           // requests per minute; 0 = auto based on auth
	RequestTimeout time.Duration // per-request timeout
	CacheTTL       time.Duration // response cache TTL
}

// ClassifyConfig holds remote classifier settings.
type ClassifyConfig struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	AnthropicModel  string
	OpenAIModel     string
	MaxContentChars int // manifest content is truncated to this length in prompts
}

// TierConfig names the lifecycle thresholds and windows. The values carry no
// documented rationale beyond matching production behavior; they are kept
// overridable rather than hard-coded.
type TierConfig struct {
	// Star thresholds
	HotStars     int
	WarmStars    int
	CoolStars    int
	ArchiveStars int // archived only below this

	// Access recency windows
	HotAccessWindow  time.Duration
	WarmAccessWindow time.Duration
	CoolAccessWindow time.Duration

	// Archive staleness windows
	ArchiveAccessStaleness time.Duration
	ArchiveCommitStaleness time.Duration

	// Re-index intervals per tier (archived = never)
	HotInterval  time.Duration
	WarmInterval time.Duration
	CoolInterval time.Duration
	ColdInterval time.Duration

	// Batch shape
	PageSize int
	MaxPages int // explicit iteration bound so a run always terminates
}

// ArchiveConfig holds archive engine settings.
type ArchiveConfig struct {
	BatchSize int // max candidates per run
}

// DiscoveryConfig holds event discovery settings.
type DiscoveryConfig struct {
	PageSize int
	DedupTTL time.Duration // per-event marker lifetime
}

// QueueConfig holds work queue settings.
type QueueConfig struct {
	BatchSize   int
	MaxAttempts int // redeliveries before an item is marked dead
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		cfg.Classify.AnthropicAPIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.Classify.OpenAIAPIKey = apiKey
	}
	if dir := os.Getenv("SKILLSCAT_BASE_DIR"); dir != "" {
		cfg.BaseDir = dir
	}
	if v := os.Getenv("SKILLSCAT_QUEUE_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Queue.MaxAttempts = n
		}
	}

	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ensureDirectories creates required directories if they don't exist.
func ensureDirectories(cfg *Config) error {
	dirs := []string{
		cfg.BaseDir,
		filepath.Join(cfg.BaseDir, "blobs"),
		filepath.Join(cfg.BaseDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
