package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/email-fraud-detector/internal/whitelist"
	"go.uber.org/zap"
)

// DefaultMatchCount is the number of similarity matches requested per message
const DefaultMatchCount = 5

// ServiceSettings holds the tunables of the detection pipeline
type ServiceSettings struct {
	LookupTimeout     time.Duration
	SimilarityTimeout time.Duration
	CrawlTimeout      time.Duration
	MatchCount        int
	MaxCrawlLinks     int
}

// FraudDetectionService is the core service for fraud assessment
type FraudDetectionService struct {
	parser   EmailParser
	lookup   RegistrationLookup
	assessor CredibilityAssessor
	searcher SimilaritySearcher
	fetcher  PageFetcher
	trusted  *whitelist.Checker
	logger   *zap.Logger
	settings ServiceSettings
	now      func() time.Time
}

// NewFraudDetectionService creates a new fraud detection service. fetcher may
// be nil, in which case linked pages are not crawled.
func NewFraudDetectionService(
	parser EmailParser,
	lookup RegistrationLookup,
	assessor CredibilityAssessor,
	searcher SimilaritySearcher,
	fetcher PageFetcher,
	trusted *whitelist.Checker,
	logger *zap.Logger,
	settings ServiceSettings,
) *FraudDetectionService {
	if settings.MatchCount <= 0 {
		settings.MatchCount = DefaultMatchCount
	}
	if settings.LookupTimeout <= 0 {
		settings.LookupTimeout = 10 * time.Second
	}
	if settings.SimilarityTimeout <= 0 {
		settings.SimilarityTimeout = 10 * time.Second
	}
	if settings.CrawlTimeout <= 0 {
		settings.CrawlTimeout = 10 * time.Second
	}
	if trusted == nil {
		trusted = whitelist.NewChecker(nil, logger)
	}
	return &FraudDetectionService{
		parser:   parser,
		lookup:   lookup,
		assessor: assessor,
		searcher: searcher,
		fetcher:  fetcher,
		trusted:  trusted,
		logger:   logger,
		settings: settings,
		now:      time.Now,
	}
}

// Analyze parses a raw message and builds its fraud report. Only a parse
// failure is returned as an error; stage failures are reported in the report.
func (s *FraudDetectionService) Analyze(ctx context.Context, raw []byte) (*FraudReport, error) {
	email, err := s.parser.Parse(raw)
	if err != nil {
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			err = &ParseError{Err: err}
		}
		s.logger.Error("Failed to parse email", zap.Error(err))
		return nil, err
	}

	return s.AnalyzeParsed(ctx, email), nil
}

// AnalyzeParsed runs the credibility and similarity stages concurrently and
// aggregates whatever they produce within their timeouts.
func (s *FraudDetectionService) AnalyzeParsed(ctx context.Context, email *ParsedEmail) *FraudReport {
	start := s.now()

	var (
		credibility *CredibilityScore
		credErr     error
		matches     []SimilarityMatch
		simErr      error
		excerpts    map[string]string
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		credibility, credErr = s.assessCredibility(ctx, email.SenderDomain)
	}()
	go func() {
		defer wg.Done()
		matches, simErr = s.findSimilar(ctx, email)
	}()
	if s.fetcher != nil && s.settings.MaxCrawlLinks > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			excerpts = s.fetchExcerpts(ctx, email)
		}()
	}
	wg.Wait()

	if credErr != nil {
		s.logger.Warn("Credibility unavailable",
			zap.String("sender_domain", email.SenderDomain),
			zap.Error(credErr))
	}
	if simErr != nil {
		s.logger.Warn("Similarity unavailable",
			zap.String("sender", email.SenderAddress),
			zap.Error(simErr))
	}

	report := Aggregate(AggregateInput{
		Email:          email,
		Credibility:    credibility,
		CredibilityErr: credErr,
		Matches:        matches,
		SimilarityErr:  simErr,
		PageExcerpts:   excerpts,
		TrustedSender:  s.trusted.IsWhitelisted(email.SenderAddress),
	})
	report.ID = uuid.NewString()
	report.GeneratedAt = s.now()

	s.logger.Info("Analyzed email",
		zap.String("report_id", report.ID),
		zap.String("sender", email.SenderAddress),
		zap.String("sender_domain", email.SenderDomain),
		zap.String("credibility", report.CredibilityPercentage),
		zap.Int("matches", len(report.Matches)),
		zap.Int("links", len(email.Links)),
		zap.Duration("elapsed", s.now().Sub(start)))

	return report
}

type lookupResult struct {
	record *RegistrationRecord
	err    error
}

// assessCredibility looks the domain up and scores it within the lookup budget
func (s *FraudDetectionService) assessCredibility(ctx context.Context, domain string) (*CredibilityScore, error) {
	if domain == "" {
		return nil, &LookupUnavailableError{Err: ErrNoSenderDomain}
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.LookupTimeout)
	defer cancel()

	ch := make(chan lookupResult, 1)
	go func() {
		record, err := s.lookup.Lookup(ctx, domain)
		ch <- lookupResult{record: record, err: err}
	}()

	var res lookupResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, &LookupUnavailableError{Domain: domain, Err: ctx.Err()}
	}

	if res.err != nil {
		var unavailable *LookupUnavailableError
		if errors.As(res.err, &unavailable) {
			return nil, res.err
		}
		return nil, &LookupUnavailableError{Domain: domain, Err: res.err}
	}
	if res.record == nil {
		return nil, &LookupUnavailableError{Domain: domain, Err: ErrNotRegistered}
	}

	return s.assessor.Assess(domain, res.record), nil
}

type searchResult struct {
	matches []SimilarityMatch
	err     error
}

// findSimilar queries the similarity searcher within the similarity budget
func (s *FraudDetectionService) findSimilar(ctx context.Context, email *ParsedEmail) ([]SimilarityMatch, error) {
	query := strings.TrimSpace(email.Subject + "\n" + email.Body)

	ctx, cancel := context.WithTimeout(ctx, s.settings.SimilarityTimeout)
	defer cancel()

	ch := make(chan searchResult, 1)
	go func() {
		matches, err := s.searcher.Search(ctx, query, s.settings.MatchCount)
		ch <- searchResult{matches: matches, err: err}
	}()

	select {
	case res := <-ch:
		return res.matches, res.err
	case <-ctx.Done():
		return nil, &RetrievalError{Err: ctx.Err()}
	}
}

// fetchExcerpts crawls the first external links of the message
func (s *FraudDetectionService) fetchExcerpts(ctx context.Context, email *ParsedEmail) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, s.settings.CrawlTimeout)
	defer cancel()

	excerpts := make(map[string]string)
	attempted := 0
	for _, link := range email.Links {
		if attempted >= s.settings.MaxCrawlLinks || ctx.Err() != nil {
			break
		}
		if EvaluateLink(link, email.SenderDomain).Evaluation != LinkExternal {
			continue
		}
		attempted++
		text, err := s.fetcher.FetchText(ctx, link)
		if err != nil {
			s.logger.Debug("Failed to fetch linked page", zap.String("link", link), zap.Error(err))
			continue
		}
		excerpts[link] = text
	}
	return excerpts
}
