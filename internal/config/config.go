package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/teemow/morgenmcp/internal/cache"
	"github.com/teemow/morgenmcp/internal/morgen"
)

// Environment variable names. MORGEN_API_KEY is the only required one.
const (
	EnvAPIKey            = "MORGEN_API_KEY"
	EnvBaseURL           = "MORGEN_BASE_URL"
	EnvCacheSize         = "MORGEN_CACHE_SIZE"
	EnvRequestsPerSecond = "MORGEN_REQUESTS_PER_SECOND"
)

// Config is the top-level application configuration. It can be loaded
// from an optional YAML file; environment variables override file
// values, and the API key is only ever read from the environment so it
// never has to live on disk.
type Config struct {
	// APIKey is the Morgen API key. Environment only, never YAML.
	APIKey string `yaml:"-"`

	// BaseURL is the Morgen API endpoint.
	BaseURL string `yaml:"base_url"`

	// CacheSize bounds the number of cached responses.
	CacheSize int `yaml:"cache_size"`

	// RequestsPerSecond limits outbound calls to Morgen.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// MetricsAddr is the listen address for the Prometheus endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:           morgen.DefaultBaseURL,
		CacheSize:         cache.DefaultMaxSize,
		RequestsPerSecond: morgen.DefaultRequestsPerSecond,
		MetricsAddr:       ":9090",
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (if path is non-empty), then environment overrides. It fails
// when the API key is missing so a misconfigured server dies at startup
// instead of failing on the first tool call.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s environment variable is required; create a key at https://platform.morgen.so/developers-api", EnvAPIKey)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.APIKey = os.Getenv(EnvAPIKey)
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvCacheSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", EnvCacheSize, v)
		}
		c.CacheSize = n
	}
	if v := os.Getenv(EnvRequestsPerSecond); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive number", EnvRequestsPerSecond, v)
		}
		c.RequestsPerSecond = f
	}
	return nil
}
