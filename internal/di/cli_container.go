package di

import (
	"flag"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Registration lookup flags
	LookupAPIKey string

	// Embedding provider flags
	Provider    string
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Index flags
	IndexProvider  string
	IndexPath      string
	DatasetDir     string
	VertexProject  string
	VertexLocation string
	VertexEndpoint string
	VertexDeployed string
	MatchCount     int
	TrustedDomains string
	CrawlLinks     bool

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.LookupAPIKey, "lookup-api-key", "", "API key for the WHOIS lookup service")

	// Embedding provider flags
	flag.StringVar(&flags.Provider, "provider", "gemini", "Embedding provider (gemini, openai, bedrock)")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum text size sent to the embedding provider")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "amazon.titan-embed-text-v2:0", "Bedrock embedding model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "text-embedding-004", "Gemini embedding model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "text-embedding-3-small", "OpenAI embedding model name")

	// Index flags
	flag.StringVar(&flags.IndexProvider, "index", "sqlite", "Vector index (vertex, sqlite, memory)")
	flag.StringVar(&flags.IndexPath, "index-path", "email_index.db", "Path of the local SQLite index")
	flag.StringVar(&flags.DatasetDir, "datasets", "datasets", "Dataset directory embedded by the memory index")
	flag.StringVar(&flags.VertexProject, "vertex-project", "", "Google Cloud project of the Vertex index")
	flag.StringVar(&flags.VertexLocation, "vertex-location", "us-central1", "Location of the Vertex index")
	flag.StringVar(&flags.VertexEndpoint, "vertex-endpoint", "", "Vertex index endpoint ID or resource name")
	flag.StringVar(&flags.VertexDeployed, "vertex-deployed-index", "", "Deployed index ID on the Vertex endpoint")
	flag.IntVar(&flags.MatchCount, "k", 5, "Number of similar emails to retrieve")
	flag.StringVar(&flags.TrustedDomains, "trusted", "", "Comma-separated list of trusted sender domains")
	flag.BoolVar(&flags.CrawlLinks, "crawl", false, "Fetch external links and attach page excerpts")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		var cfg *config.Config
		if flags.ConfigFile != "" {
			v := config.NewEmptyViper()
			v.SetConfigFile(flags.ConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
			v.Set("server.filter_type", "cli")
			v.Set("cli.verbose", flags.Verbose)
			cfg = config.NewFromViper(v)
			logger.Info("Loaded configuration from file", zap.String("file", v.ConfigFileUsed()))
		} else {
			cfg = createConfigFromFlags(flags)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)

	// The registration cache is not worth it for a single message
	v.Set("cache.enabled", false)

	v.Set("lookup.api_key", flags.LookupAPIKey)

	v.Set("embedding.provider", flags.Provider)
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	}

	v.Set("index.provider", flags.IndexProvider)
	v.Set("index.sqlite_path", flags.IndexPath)
	v.Set("index.dataset_dir", flags.DatasetDir)
	v.Set("vertex.project", flags.VertexProject)
	v.Set("vertex.location", flags.VertexLocation)
	v.Set("vertex.index_endpoint", flags.VertexEndpoint)
	v.Set("vertex.deployed_index_id", flags.VertexDeployed)
	v.Set("similarity.k", flags.MatchCount)
	v.Set("crawl.enabled", flags.CrawlLinks)

	if flags.TrustedDomains != "" {
		domains := strings.Split(flags.TrustedDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("fraud.trusted_domains", domains)
	}

	return config.NewFromViper(v)
}
