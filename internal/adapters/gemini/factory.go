package gemini

import (
	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// Factory creates new instances of the Gemini embedder
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini embedders
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbedder creates a new Gemini embedder
func (f *Factory) CreateEmbedder() (core.Embedder, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, &core.ConfigurationError{Key: "gemini.api_key", Reason: "Gemini API key is required"}
	}

	return NewEmbedder(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
