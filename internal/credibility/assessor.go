// Package credibility scores sender domains from their registration records.
//
// The score is the sum of five buckets, clamped to [0, 10]:
//
//	age          up to 4, linear between 1 and 10 years since first registration
//	dnssec       2 when the delegation is signed
//	attribution  1 for a named registrar, 1 for a named organization,
//	             neither behind a privacy service
//	contact      1 when at least one contact or abuse email is published
//	nameservers  1 for at least two distinct name servers
package credibility

import (
	"math"
	"strings"
	"time"

	"github.com/mikey/email-fraud-detector/internal/core"
	"go.uber.org/zap"
)

const (
	// MaxScore is the highest credibility score a domain can reach
	MaxScore = 10.0

	maxAgePoints     = 4.0
	fullAgeYears     = 10.0
	minAgeYears      = 1.0
	dnssecPoints     = 2.0
	registrarPoints  = 1.0
	orgPoints        = 1.0
	contactPoints    = 1.0
	nameServerPoints = 1.0

	hoursPerYear = 24 * 365.25
)

// privacyMarkers identify registrars and organizations that hide the registrant
var privacyMarkers = []string{
	"privacy",
	"private",
	"redacted",
	"proxy",
	"whoisguard",
	"withheld",
	"not disclosed",
	"data protected",
	"identity protect",
	"anonymous",
	"masked",
}

// Assessor implements core.CredibilityAssessor
type Assessor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewAssessor creates a new credibility assessor
func NewAssessor(logger *zap.Logger) *Assessor {
	return NewAssessorWithClock(logger, time.Now)
}

// NewAssessorWithClock creates an assessor that measures domain age against now
func NewAssessorWithClock(logger *zap.Logger, now func() time.Time) *Assessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assessor{
		logger: logger,
		now:    now,
	}
}

// Assess computes the credibility score of a domain. A nil record scores 0.
func (a *Assessor) Assess(domain string, record *core.RegistrationRecord) *core.CredibilityScore {
	result := &core.CredibilityScore{
		Domain: domain,
		Record: record,
	}
	if record == nil {
		return result
	}

	b := core.CredibilityBreakdown{
		Age:         a.agePoints(record),
		DNSSEC:      dnssecScore(record.DNSSECStatus),
		Attribution: attributionScore(record),
		Contact:     contactScore(record),
		NameServers: nameServerScore(record),
	}
	total := b.Age + b.DNSSEC + b.Attribution + b.Contact + b.NameServers

	result.Breakdown = b
	result.Score = math.Round(clamp(total, 0, MaxScore)*100) / 100

	a.logger.Debug("Assessed domain credibility",
		zap.String("domain", domain),
		zap.Float64("score", result.Score),
		zap.Float64("age", b.Age),
		zap.Float64("dnssec", b.DNSSEC),
		zap.Float64("attribution", b.Attribution),
		zap.Float64("contact", b.Contact),
		zap.Float64("name_servers", b.NameServers))

	return result
}

// CreationReference is the earliest known registration of the domain
func CreationReference(record *core.RegistrationRecord) (time.Time, bool) {
	return record.CreationDate.Earliest()
}

// LastUpdateReference is the most recent change to the registration
func LastUpdateReference(record *core.RegistrationRecord) (time.Time, bool) {
	return record.UpdatedDate.Latest()
}

// ExpirationReference is the furthest known expiration of the registration
func ExpirationReference(record *core.RegistrationRecord) (time.Time, bool) {
	return record.ExpirationDate.Latest()
}

func (a *Assessor) agePoints(record *core.RegistrationRecord) float64 {
	created, ok := CreationReference(record)
	now := a.now()
	if !ok || created.After(now) {
		return 0
	}
	years := now.Sub(created).Hours() / hoursPerYear
	if years < minAgeYears {
		return 0
	}
	if years >= fullAgeYears {
		return maxAgePoints
	}
	return maxAgePoints * years / fullAgeYears
}

func dnssecScore(status string) float64 {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case s == "", strings.Contains(s, "unsigned"), strings.Contains(s, "not signed"):
		return 0
	case strings.Contains(s, "signed"):
		return dnssecPoints
	}
	switch s {
	case "yes", "true", "active", "enabled":
		return dnssecPoints
	}
	return 0
}

func attributionScore(record *core.RegistrationRecord) float64 {
	var points float64
	if isAttributable(record.Registrar) {
		points += registrarPoints
	}
	if isAttributable(record.Org) {
		points += orgPoints
	}
	return points
}

func isAttributable(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, marker := range privacyMarkers {
		if strings.Contains(n, marker) {
			return false
		}
	}
	return true
}

func contactScore(record *core.RegistrationRecord) float64 {
	for _, email := range record.Emails {
		if strings.Contains(email, "@") {
			return contactPoints
		}
	}
	return 0
}

func nameServerScore(record *core.RegistrationRecord) float64 {
	distinct := make(map[string]struct{}, len(record.NameServers))
	for _, ns := range record.NameServers {
		n := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(ns)), ".")
		if n != "" {
			distinct[n] = struct{}{}
		}
	}
	if len(distinct) >= 2 {
		return nameServerPoints
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
