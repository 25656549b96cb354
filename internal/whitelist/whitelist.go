package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker reports whether a sender belongs to a trusted domain
type Checker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new trusted-domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make(map[string]struct{}, len(domains))
	names := make([]string, 0, len(domains))
	for _, domain := range domains {
		d := strings.ToLower(strings.TrimSpace(domain))
		if d == "" {
			continue
		}
		if _, ok := normalized[d]; !ok {
			normalized[d] = struct{}{}
			names = append(names, d)
		}
	}

	if len(names) > 0 && logger != nil {
		logger.Info("Initialized trusted domain checker", zap.Strings("domains", names))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsWhitelisted checks if the sender address belongs to a trusted domain
func (c *Checker) IsWhitelisted(sender string) bool {
	if len(c.domains) == 0 {
		return false
	}

	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return false
	}
	domain := strings.ToLower(sender[at+1:])

	if _, ok := c.domains[domain]; ok {
		if c.logger != nil {
			c.logger.Debug("Sender domain is trusted",
				zap.String("domain", domain),
				zap.String("sender", sender))
		}
		return true
	}

	return false
}
