package factory

import (
	"github.com/mikey/email-fraud-detector/internal/adapters/cache"
	"github.com/mikey/email-fraud-detector/internal/adapters/whois"
	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/core"
	"go.uber.org/zap"
)

// LookupFactory creates the registration lookup, cached when enabled
type LookupFactory struct {
	cfg          *config.Config
	logger       *zap.Logger
	cacheFactory *CacheFactory
}

// NewLookupFactory creates a new lookup factory
func NewLookupFactory(cfg *config.Config, logger *zap.Logger, cacheFactory *CacheFactory) *LookupFactory {
	return &LookupFactory{
		cfg:          cfg,
		logger:       logger,
		cacheFactory: cacheFactory,
	}
}

// CreateRegistrationLookup creates the WHOIS lookup
func (f *LookupFactory) CreateRegistrationLookup() (core.RegistrationLookup, error) {
	lookupCfg := f.cfg.GetLookup()

	client, err := whois.NewClient(
		lookupCfg.Endpoint,
		lookupCfg.APIKey,
		lookupCfg.Timeout,
		lookupCfg.RateLimit,
		lookupCfg.Burst,
		f.logger,
	)
	if err != nil {
		return nil, err
	}

	if !f.cacheFactory.IsCacheEnabled() {
		return client, nil
	}

	repo, err := f.cacheFactory.CreateCacheRepository()
	if err != nil {
		f.logger.Warn("Registration cache unavailable, looking up without cache", zap.Error(err))
		return client, nil
	}

	lookup := cache.NewCachedLookup(client, repo, f.cacheFactory.GetCacheTTL(), f.logger)
	return lookup.WithKeyFunc(whois.RegistrableDomain), nil
}
