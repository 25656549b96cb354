package factory

import (
	"github.com/mikey/email-fraud-detector/internal/adapters/crawler"
	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/credibility"
	"github.com/mikey/email-fraud-detector/internal/mimeparse"
	"github.com/mikey/email-fraud-detector/internal/similarity"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"github.com/mikey/email-fraud-detector/internal/whitelist"
	"go.uber.org/zap"
)

// PipelineFactory creates the components of the detection pipeline that are
// not selected by provider
type PipelineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPipelineFactory creates a new pipeline factory
func NewPipelineFactory(cfg *config.Config, logger *zap.Logger) *PipelineFactory {
	return &PipelineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateParser creates the MIME parser
func (f *PipelineFactory) CreateParser(textProcessor *utils.TextProcessor) core.EmailParser {
	return mimeparse.NewParser(f.logger, textProcessor)
}

// CreateAssessor creates the credibility assessor
func (f *PipelineFactory) CreateAssessor() core.CredibilityAssessor {
	return credibility.NewAssessor(f.logger)
}

// CreateSearcher creates the similarity retriever
func (f *PipelineFactory) CreateSearcher(embedder core.Embedder, index core.VectorIndex) core.SimilaritySearcher {
	return similarity.NewRetriever(embedder, index, f.logger)
}

// CreatePageFetcher creates the linked-page fetcher, nil when crawling is off
func (f *PipelineFactory) CreatePageFetcher() core.PageFetcher {
	crawlCfg := f.cfg.GetCrawl()
	if !crawlCfg.Enabled {
		return nil
	}
	return crawler.NewFetcher(crawlCfg.Timeout, crawlCfg.ExcerptSize, f.logger)
}

// CreateTrustedChecker creates the trusted sender domain checker
func (f *PipelineFactory) CreateTrustedChecker() *whitelist.Checker {
	domains := f.cfg.GetStringSlice("fraud.trusted_domains")
	if len(domains) > 0 {
		f.logger.Info("Loaded trusted domains", zap.Strings("domains", domains))
	}
	return whitelist.NewChecker(domains, f.logger)
}

// ServiceSettings returns the pipeline tunables
func (f *PipelineFactory) ServiceSettings() core.ServiceSettings {
	lookupCfg := f.cfg.GetLookup()
	simCfg := f.cfg.GetSimilarity()
	crawlCfg := f.cfg.GetCrawl()

	settings := core.ServiceSettings{
		LookupTimeout:     lookupCfg.Timeout,
		SimilarityTimeout: simCfg.Timeout,
		CrawlTimeout:      crawlCfg.Timeout,
		MatchCount:        simCfg.K,
	}
	if crawlCfg.Enabled {
		settings.MaxCrawlLinks = crawlCfg.MaxLinks
	}
	return settings
}
