package whois

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mikey/email-fraud-detector/internal/core"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the API Ninjas WHOIS endpoint
const DefaultEndpoint = "https://api.api-ninjas.com/v1/whois"

// maxResponseSize bounds the WHOIS response body that is read
const maxResponseSize = 1 << 20

// Client is an implementation of the RegistrationLookup interface using the
// API Ninjas WHOIS service
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a new WHOIS client. A missing API key is a configuration
// error. A non-positive rateLimit disables throttling.
func NewClient(
	endpoint string,
	apiKey string,
	timeout time.Duration,
	rateLimit float64,
	burst int,
	logger *zap.Logger,
) (*Client, error) {
	if apiKey == "" {
		return nil, &core.ConfigurationError{Key: "lookup.api_key", Reason: "WHOIS API key is required"}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}, nil
}

// RegistrableDomain returns the registered domain (eTLD+1) of a host name
func RegistrableDomain(domain string) string {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if registrable, err := publicsuffix.EffectiveTLDPlusOne(d); err == nil {
		return registrable
	}
	return d
}

// Lookup retrieves the registration record of the registrable part of domain
func (c *Client) Lookup(ctx context.Context, domain string) (*core.RegistrationRecord, error) {
	target := RegistrableDomain(domain)
	if target == "" {
		return nil, &core.LookupUnavailableError{Domain: domain, Err: core.ErrNoSenderDomain}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &core.LookupUnavailableError{Domain: target, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	reqURL := c.endpoint + "?" + url.Values{"domain": {target}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &core.LookupUnavailableError{Domain: target, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &core.LookupUnavailableError{Domain: target, Err: fmt.Errorf("WHOIS request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &core.LookupUnavailableError{Domain: target, Err: fmt.Errorf("failed to read WHOIS response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("WHOIS lookup rejected",
			zap.String("domain", target),
			zap.Int("status", resp.StatusCode))
		return nil, &core.LookupUnavailableError{Domain: target, Err: fmt.Errorf("WHOIS service returned status %d", resp.StatusCode)}
	}

	var record core.RegistrationRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, &core.LookupUnavailableError{Domain: target, Err: fmt.Errorf("failed to decode WHOIS response: %w", err)}
	}
	if record.DomainName == "" {
		return nil, &core.LookupUnavailableError{Domain: target, Err: core.ErrNotRegistered}
	}

	c.logger.Debug("WHOIS lookup succeeded",
		zap.String("domain", target),
		zap.String("registrar", record.Registrar))

	return &record, nil
}
