package factory

import (
	"fmt"

	"github.com/mikey/email-fraud-detector/internal/adapters/bedrock"
	"github.com/mikey/email-fraud-detector/internal/adapters/gemini"
	"github.com/mikey/email-fraud-detector/internal/adapters/openai"
	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// EmbedderFactory creates embedders
type EmbedderFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEmbedderFactory creates a new embedder factory
func NewEmbedderFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *EmbedderFactory {
	return &EmbedderFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbedder creates a new embedder based on the configuration
func (f *EmbedderFactory) CreateEmbedder() (core.Embedder, error) {
	provider := f.cfg.GetEmbedding().Provider

	switch provider {
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbedder()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbedder()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbedder()
	default:
		return nil, &core.ConfigurationError{
			Key:    "embedding.provider",
			Reason: fmt.Sprintf("unsupported embedding provider %q", provider),
		}
	}
}
