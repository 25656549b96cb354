package config

import "time"

// LookupConfig represents the configuration for the WHOIS lookup service
type LookupConfig struct {
	APIKey    string
	Endpoint  string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// EmbeddingConfig selects the embedding provider
type EmbeddingConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxBodySize int
}

// IndexConfig selects the vector index
type IndexConfig struct {
	Provider   string
	SQLitePath string
	DatasetDir string
	BatchSize  int
}

// VertexConfig represents the configuration for Vertex AI Vector Search
type VertexConfig struct {
	Project              string
	Location             string
	IndexEndpoint        string
	DeployedIndexID      string
	APIEndpoint          string
	DistanceIsSimilarity bool
}

// SimilarityConfig holds similarity retrieval settings
type SimilarityConfig struct {
	K       int
	Timeout time.Duration
}

// CrawlConfig holds linked-page crawl settings
type CrawlConfig struct {
	Enabled     bool
	Timeout     time.Duration
	MaxLinks    int
	ExcerptSize int
}

// CacheConfig holds registration cache settings
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// GetLookup returns the WHOIS lookup configuration
func (c *Config) GetLookup() LookupConfig {
	return LookupConfig{
		APIKey:    c.GetString("lookup.api_key"),
		Endpoint:  c.GetString("lookup.endpoint"),
		Timeout:   c.durationOr("lookup.timeout", 10*time.Second),
		RateLimit: c.GetFloat64("lookup.rate_limit"),
		Burst:     c.GetInt("lookup.burst"),
	}
}

// GetEmbedding returns the embedding provider selection
func (c *Config) GetEmbedding() EmbeddingConfig {
	return EmbeddingConfig{
		Provider: c.GetString("embedding.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetIndex returns the vector index selection
func (c *Config) GetIndex() IndexConfig {
	return IndexConfig{
		Provider:   c.GetString("index.provider"),
		SQLitePath: c.GetString("index.sqlite_path"),
		DatasetDir: c.GetString("index.dataset_dir"),
		BatchSize:  c.GetInt("index.batch_size"),
	}
}

// GetVertex returns the Vertex AI configuration
func (c *Config) GetVertex() VertexConfig {
	return VertexConfig{
		Project:              c.GetString("vertex.project"),
		Location:             c.GetString("vertex.location"),
		IndexEndpoint:        c.GetString("vertex.index_endpoint"),
		DeployedIndexID:      c.GetString("vertex.deployed_index_id"),
		APIEndpoint:          c.GetString("vertex.api_endpoint"),
		DistanceIsSimilarity: c.GetBool("vertex.distance_is_similarity"),
	}
}

// GetSimilarity returns the similarity retrieval configuration
func (c *Config) GetSimilarity() SimilarityConfig {
	return SimilarityConfig{
		K:       c.GetInt("similarity.k"),
		Timeout: c.durationOr("similarity.timeout", 10*time.Second),
	}
}

// GetCrawl returns the linked-page crawl configuration
func (c *Config) GetCrawl() CrawlConfig {
	return CrawlConfig{
		Enabled:     c.GetBool("crawl.enabled"),
		Timeout:     c.durationOr("crawl.timeout", 10*time.Second),
		MaxLinks:    c.GetInt("crawl.max_links"),
		ExcerptSize: c.GetInt("crawl.excerpt_size"),
	}
}

// GetCache returns the registration cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              c.durationOr("cache.ttl", 24*time.Hour),
		CleanupFrequency: c.durationOr("cache.cleanup_frequency", time.Hour),
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}
}

func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
