// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Pinecone PineconeConfig `mapstructure:"pinecone"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Search   SearchConfig   `mapstructure:"search"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the search API server.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ScrapeConfig governs listing/detail scraping behavior.
type ScrapeConfig struct {
	ListingURL  string `mapstructure:"listing_url"`
	UserAgent   string `mapstructure:"user_agent"`
	MaxItems    int    `mapstructure:"max_items"`
	Concurrency int    `mapstructure:"concurrency"`
	DelayMs     int    `mapstructure:"delay_ms"`
	RenderJS    bool   `mapstructure:"render_js"`
}

// HTTPConfig configures HTTP client retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// OpenAIConfig holds embedding provider credentials and model selection.
type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// PineconeConfig holds vector index credentials and placement.
type PineconeConfig struct {
	APIKey    string `mapstructure:"api_key"`
	IndexName string `mapstructure:"index_name"`
	Cloud     string `mapstructure:"cloud"`
	Region    string `mapstructure:"region"`
}

// SnapshotConfig selects where the per-run article snapshot is written.
type SnapshotConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSObject string `mapstructure:"gcs_object"`
}

// SearchConfig bounds query-time result counts.
type SearchConfig struct {
	DefaultTopK int `mapstructure:"default_top_k"`
	MaxTopK     int `mapstructure:"max_top_k"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LKPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("scrape.listing_url", "https://www.linkoping.se/nyheter/")
	v.SetDefault("scrape.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	v.SetDefault("scrape.max_items", 5)
	v.SetDefault("scrape.concurrency", 2)
	v.SetDefault("scrape.delay_ms", 500)
	v.SetDefault("scrape.render_js", false)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "text-embedding-3-small")
	v.SetDefault("openai.dimensions", 1536)
	v.SetDefault("pinecone.api_key", "")
	v.SetDefault("pinecone.index_name", "linkoping")
	v.SetDefault("pinecone.cloud", "aws")
	v.SetDefault("pinecone.region", "eu-west-1")
	v.SetDefault("snapshot.backend", "local")
	v.SetDefault("snapshot.path", "data/news.json")
	v.SetDefault("snapshot.gcs_object", "news.json")
	v.SetDefault("search.default_top_k", 5)
	v.SetDefault("search.max_top_k", 20)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. Missing provider
// credentials are a startup-fatal configuration error, not a runtime one.
func (c Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key must be set (LKPG_OPENAI_API_KEY)")
	}
	if c.Pinecone.APIKey == "" {
		return fmt.Errorf("pinecone.api_key must be set (LKPG_PINECONE_API_KEY)")
	}
	if c.Pinecone.IndexName == "" {
		return fmt.Errorf("pinecone.index_name must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scrape.ListingURL == "" {
		return fmt.Errorf("scrape.listing_url must be set")
	}
	if c.Scrape.MaxItems <= 0 {
		return fmt.Errorf("scrape.max_items must be > 0")
	}
	if c.Scrape.Concurrency <= 0 {
		return fmt.Errorf("scrape.concurrency must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.OpenAI.Dimensions <= 0 {
		return fmt.Errorf("openai.dimensions must be > 0")
	}
	if c.Search.DefaultTopK <= 0 || c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k must be in (0, max_top_k]")
	}
	switch c.Snapshot.Backend {
	case "local":
		if c.Snapshot.Path == "" {
			return fmt.Errorf("snapshot.path must be set for the local backend")
		}
	case "gcs":
		if c.Snapshot.GCSBucket == "" {
			return fmt.Errorf("snapshot.gcs_bucket must be set for the gcs backend")
		}
	case "none":
	default:
		return fmt.Errorf("snapshot.backend must be one of local, gcs, none")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// FetchDelay is the politeness delay between requests to the site.
func (c Config) FetchDelay() time.Duration {
	return time.Duration(c.Scrape.DelayMs) * time.Millisecond
}

// FetchBackoffInitial is the first retry backoff step.
func (c Config) FetchBackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// FetchBackoffMax caps the retry backoff.
func (c Config) FetchBackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}
