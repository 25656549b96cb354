package cache

import (
	"context"
	"time"

	"github.com/mikey/email-fraud-detector/internal/core"
	"go.uber.org/zap"
)

// CachedLookup decorates a RegistrationLookup with a CacheRepository. Cache
// failures are logged and never fail a lookup.
type CachedLookup struct {
	inner  core.RegistrationLookup
	repo   core.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
	key    func(string) string
}

// NewCachedLookup creates a caching registration lookup
func NewCachedLookup(inner core.RegistrationLookup, repo core.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{
		inner:  inner,
		repo:   repo,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
		key:    cacheKey,
	}
}

// WithKeyFunc sets the function mapping a domain to its cache key, so that
// several domains can share one entry
func (l *CachedLookup) WithKeyFunc(key func(string) string) *CachedLookup {
	l.key = func(domain string) string { return cacheKey(key(domain)) }
	return l
}

// Lookup returns the cached record of domain or asks the wrapped lookup
func (l *CachedLookup) Lookup(ctx context.Context, domain string) (*core.RegistrationRecord, error) {
	key := l.key(domain)

	entry, err := l.repo.Get(ctx, key)
	if err == nil && entry != nil && entry.Record != nil {
		l.logger.Debug("Using cached registration record", zap.String("domain", key))
		return entry.Record, nil
	}
	if err != nil && err != ErrNotFound && err != ErrExpired {
		l.logger.Warn("Failed to read registration cache", zap.String("domain", key), zap.Error(err))
	}

	record, err := l.inner.Lookup(ctx, domain)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	now := l.now()
	if err := l.repo.Set(ctx, &core.CacheEntry{
		Domain:    key,
		Record:    record,
		StoredAt:  now,
		ExpiresAt: now.Add(l.ttl),
	}); err != nil {
		l.logger.Warn("Failed to store registration record", zap.String("domain", key), zap.Error(err))
	}

	return record, nil
}

// Stop stops the background tasks of the cache repository
func (l *CachedLookup) Stop() {
	if stopper, ok := l.repo.(interface{ Stop() }); ok {
		stopper.Stop()
	}
}
