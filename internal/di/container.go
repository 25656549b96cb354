package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/factory"
	"github.com/mikey/email-fraud-detector/internal/logging"
	"github.com/mikey/email-fraud-detector/internal/ports"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"github.com/mikey/email-fraud-detector/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	return container, nil
}

// providePipeline registers everything from the factories to the email
// filter. The container must already provide *config.Config and *zap.Logger.
func providePipeline(container *dig.Container) error {
	// Register factories
	for _, ctor := range []interface{}{
		factory.NewEmbedderFactory,
		factory.NewIndexFactory,
		factory.NewCacheFactory,
		factory.NewLookupFactory,
		factory.NewPipelineFactory,
		factory.NewFilterFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return err
		}
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register boundary adapters
	if err := container.Provide(func(f *factory.EmbedderFactory) (core.Embedder, error) {
		return f.CreateEmbedder()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.IndexFactory, e core.Embedder) (core.VectorIndex, error) {
		return f.CreateVectorIndex(e)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.LookupFactory) (core.RegistrationLookup, error) {
		return f.CreateRegistrationLookup()
	}); err != nil {
		return err
	}

	// Register pipeline components
	if err := container.Provide(func(f *factory.PipelineFactory, tp *utils.TextProcessor) core.EmailParser {
		return f.CreateParser(tp)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.PipelineFactory) core.CredibilityAssessor {
		return f.CreateAssessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.PipelineFactory, e core.Embedder, i core.VectorIndex) core.SimilaritySearcher {
		return f.CreateSearcher(e, i)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.PipelineFactory) *whitelist.Checker {
		return f.CreateTrustedChecker()
	}); err != nil {
		return err
	}

	// Register fraud detection service
	if err := container.Provide(func(
		f *factory.PipelineFactory,
		parser core.EmailParser,
		lookup core.RegistrationLookup,
		assessor core.CredibilityAssessor,
		searcher core.SimilaritySearcher,
		trusted *whitelist.Checker,
		logger *zap.Logger,
	) *core.FraudDetectionService {
		return core.NewFraudDetectionService(
			parser,
			lookup,
			assessor,
			searcher,
			f.CreatePageFetcher(),
			trusted,
			logger,
			f.ServiceSettings(),
		)
	}); err != nil {
		return err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return err
	}

	return nil
}
