package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/email-fraud-detector/")
	v.AddConfigPath("$HOME/.email-fraud-detector")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("FRAUD_DETECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Registration lookup defaults
	v.SetDefault("lookup.api_key", "")
	v.SetDefault("lookup.endpoint", "https://api.api-ninjas.com/v1/whois")
	v.SetDefault("lookup.timeout", "10s")
	v.SetDefault("lookup.rate_limit", 1.0)
	v.SetDefault("lookup.burst", 1)

	// Embedding provider defaults
	v.SetDefault("embedding.provider", "gemini")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "text-embedding-004")
	v.SetDefault("gemini.max_body_size", 4096)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "text-embedding-3-small")
	v.SetDefault("openai.max_body_size", 4096)

	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "amazon.titan-embed-text-v2:0")
	v.SetDefault("bedrock.max_body_size", 4096)

	// Vector index defaults
	v.SetDefault("index.provider", "vertex")
	v.SetDefault("index.sqlite_path", "/data/email_index.db")
	v.SetDefault("index.dataset_dir", "datasets")
	v.SetDefault("index.batch_size", 32)

	v.SetDefault("vertex.project", "")
	v.SetDefault("vertex.location", "us-central1")
	v.SetDefault("vertex.index_endpoint", "")
	v.SetDefault("vertex.deployed_index_id", "")
	v.SetDefault("vertex.api_endpoint", "")
	v.SetDefault("vertex.distance_is_similarity", true)

	// Similarity defaults
	v.SetDefault("similarity.k", 5)
	v.SetDefault("similarity.timeout", "10s")

	// Crawl defaults
	v.SetDefault("crawl.enabled", false)
	v.SetDefault("crawl.timeout", "10s")
	v.SetDefault("crawl.max_links", 3)
	v.SetDefault("crawl.excerpt_size", 500)

	// Fraud defaults
	v.SetDefault("fraud.trusted_domains", []string{})

	// Server defaults
	v.SetDefault("server.filter_type", "postfix")
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.headers.report_id", "X-Fraud-Report-ID")
	v.SetDefault("server.headers.credibility", "X-Fraud-Credibility")
	v.SetDefault("server.headers.similar", "X-Fraud-Similar")
	v.SetDefault("server.headers.error", "X-Fraud-Analysis-Error")
	v.SetDefault("server.postfix.enabled", true)
	v.SetDefault("server.postfix.address", "localhost")
	v.SetDefault("server.postfix.port", 10026)
	v.SetDefault("server.analysis_timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/registration_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/fraud_detector")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_paths", []string{"stderr"})
}

// Validate checks that the credentials required by the selected providers are set
func (c *Config) Validate() error {
	if c.GetString("lookup.api_key") == "" {
		return &core.ConfigurationError{Key: "lookup.api_key", Reason: "WHOIS API key is required"}
	}

	switch provider := c.GetString("embedding.provider"); provider {
	case "gemini":
		if c.GetString("gemini.api_key") == "" {
			return &core.ConfigurationError{Key: "gemini.api_key", Reason: "Gemini API key is required"}
		}
	case "openai":
		if c.GetString("openai.api_key") == "" {
			return &core.ConfigurationError{Key: "openai.api_key", Reason: "OpenAI API key is required"}
		}
	case "bedrock":
		if c.GetString("bedrock.region") == "" {
			return &core.ConfigurationError{Key: "bedrock.region", Reason: "AWS region is required"}
		}
	default:
		return &core.ConfigurationError{Key: "embedding.provider", Reason: fmt.Sprintf("unsupported embedding provider %q", provider)}
	}

	switch provider := c.GetString("index.provider"); provider {
	case "vertex":
		if c.GetString("vertex.index_endpoint") == "" {
			return &core.ConfigurationError{Key: "vertex.index_endpoint", Reason: "index endpoint is required"}
		}
		if c.GetString("vertex.deployed_index_id") == "" {
			return &core.ConfigurationError{Key: "vertex.deployed_index_id", Reason: "deployed index ID is required"}
		}
	case "sqlite":
		if c.GetString("index.sqlite_path") == "" {
			return &core.ConfigurationError{Key: "index.sqlite_path", Reason: "index path is required"}
		}
	case "memory":
		if c.GetString("index.dataset_dir") == "" {
			return &core.ConfigurationError{Key: "index.dataset_dir", Reason: "dataset directory is required"}
		}
	default:
		return &core.ConfigurationError{Key: "index.provider", Reason: fmt.Sprintf("unsupported index provider %q", provider)}
	}

	for _, key := range []string{"lookup.timeout", "similarity.timeout", "crawl.timeout", "cache.ttl", "cache.cleanup_frequency", "server.analysis_timeout"} {
		if _, err := c.GetDuration(key); err != nil {
			return &core.ConfigurationError{Key: key, Reason: err.Error()}
		}
	}

	return nil
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
