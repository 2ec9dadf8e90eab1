package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"feedhistd/internal/infra/fetcher"
	"feedhistd/internal/usecase/history"
)

// RuntimeConfig holds the environment-tunable knobs the HTTP server needs
// beyond the security/JWT settings SecurityConfig already covers: history
// traversal bounds, the coalescing cache's bounded wait, the outbound
// fetcher's resilience settings, and where to listen.
//
// A struct of defaults, populated from environment variables with
// fallback, validated once at startup.
type RuntimeConfig struct {
	// ListenAddr is the address the HTTP server binds to. Default ":8080".
	ListenAddr string

	// History bounds the traversal engine (component B).
	History history.Config

	// CacheWait is Δ, the bounded wait the coalescing cache (component E)
	// allows before reporting an in-progress outcome. Default 1s.
	CacheWait time.Duration

	// Fetcher tunes the outbound HTTP client (component H).
	Fetcher fetcher.Config

	// StylesheetURL is embedded as an <?xml-stylesheet?> PI in rendered
	// Atom documents (component G). Empty omits the PI.
	StylesheetURL string
}

// LoadRuntimeConfig loads RuntimeConfig from environment variables, falling
// back to sensible defaults for anything unset.
func LoadRuntimeConfig() (*RuntimeConfig, error) {
	fetcherDefaults := fetcher.DefaultConfig()

	cfg := &RuntimeConfig{
		ListenAddr: getEnvOrDefault("LISTEN_ADDR", ":8080"),
		History: history.Config{
			MaxRedirects: getEnvInt("HISTORY_MAX_REDIRECTS", 10),
		},
		CacheWait: getEnvDuration("HISTORY_CACHE_WAIT", time.Second),
		Fetcher: fetcher.Config{
			Timeout:       getEnvDuration("FETCHER_TIMEOUT", fetcherDefaults.Timeout),
			RatePerSecond: getEnvFloat("FETCHER_RATE_PER_SECOND", fetcherDefaults.RatePerSecond),
			Burst:         getEnvInt("FETCHER_BURST", fetcherDefaults.Burst),
			FreshFor:      getEnvDuration("FETCHER_FRESH_FOR", fetcherDefaults.FreshFor),
			Breaker:       fetcherDefaults.Breaker,
			Retry:         fetcherDefaults.Retry,
		},
		StylesheetURL: getEnvOrDefault("ATOM_STYLESHEET_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runtime configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration correctness.
func (c *RuntimeConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR cannot be empty")
	}
	if c.History.MaxRedirects <= 0 {
		return fmt.Errorf("HISTORY_MAX_REDIRECTS must be positive")
	}
	if c.CacheWait <= 0 {
		return fmt.Errorf("HISTORY_CACHE_WAIT must be positive")
	}
	if c.Fetcher.Timeout <= 0 {
		return fmt.Errorf("FETCHER_TIMEOUT must be positive")
	}
	if c.Fetcher.RatePerSecond <= 0 {
		return fmt.Errorf("FETCHER_RATE_PER_SECOND must be positive")
	}
	if c.Fetcher.Burst <= 0 {
		return fmt.Errorf("FETCHER_BURST must be positive")
	}
	if c.Fetcher.FreshFor <= 0 {
		return fmt.Errorf("FETCHER_FRESH_FOR must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
