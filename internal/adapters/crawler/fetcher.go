// Package crawler fetches linked pages and extracts their visible text.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"go.uber.org/zap"
)

const (
	maxPageSize    = 2 << 20
	userAgent      = "email-fraud-detector/1.0"
	defaultExcerpt = 500
)

// Fetcher is an implementation of the PageFetcher interface over HTTP
type Fetcher struct {
	client      *http.Client
	excerptSize int
	logger      *zap.Logger
}

// NewFetcher creates a page fetcher. Redirects are followed up to five hops.
func NewFetcher(timeout time.Duration, excerptSize int, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if excerptSize <= 0 {
		excerptSize = defaultExcerpt
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		excerptSize: excerptSize,
		logger:      logger,
	}
}

// FetchText returns an excerpt of the visible text of the page at url
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxPageSize)
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "text/plain") {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("failed to read page: %w", err)
		}
		return utils.Excerpt(string(data), f.excerptSize), nil
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Find("script, style, noscript, template, svg").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Find("title").Text()
	}

	f.logger.Debug("Fetched linked page",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode))

	return utils.Excerpt(text, f.excerptSize), nil
}
