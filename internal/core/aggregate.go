package core

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// AggregateInput holds the outputs of the analytical stages
type AggregateInput struct {
	Email          *ParsedEmail
	Credibility    *CredibilityScore
	CredibilityErr error
	Matches        []SimilarityMatch
	SimilarityErr  error
	PageExcerpts   map[string]string
	TrustedSender  bool
}

// Aggregate combines the stage outputs into a FraudReport. A nil Credibility
// or a non-nil stage error marks the section unavailable.
func Aggregate(in AggregateInput) *FraudReport {
	report := &FraudReport{
		Email:                 in.Email,
		TrustedSender:         in.TrustedSender,
		CredibilityStatus:     StatusUnavailable,
		CredibilityPercentage: CredibilityUnknown,
		SimilarityStatus:      StatusUnavailable,
		Matches:               []SimilarityMatch{},
		LinkEvaluations:       []LinkEvaluation{},
	}

	if in.CredibilityErr == nil && in.Credibility != nil {
		report.CredibilityStatus = StatusComputed
		report.Credibility = in.Credibility
		report.CredibilityPercentage = FormatPercentage(in.Credibility.Score)
	} else if in.CredibilityErr != nil {
		report.CredibilityError = in.CredibilityErr.Error()
	}

	if in.SimilarityErr == nil {
		report.SimilarityStatus = StatusComputed
		report.Matches = append(report.Matches, in.Matches...)
	} else {
		report.SimilarityError = in.SimilarityErr.Error()
	}

	if in.Email != nil {
		for _, link := range in.Email.Links {
			eval := EvaluateLink(link, in.Email.SenderDomain)
			eval.PageExcerpt = in.PageExcerpts[link]
			report.LinkEvaluations = append(report.LinkEvaluations, eval)
		}
	}

	return report
}

// FormatPercentage renders a 0-10 score as a percentage string
func FormatPercentage(score float64) string {
	pct := math.Round(score*10*10) / 10
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

// EvaluateLink tags a link as internal when it points at the sender domain
func EvaluateLink(link, senderDomain string) LinkEvaluation {
	origin := LinkOrigin(link)
	evaluation := LinkExternal
	if origin != "" && senderDomain != "" && strings.EqualFold(origin, senderDomain) {
		evaluation = LinkInternal
	}
	return LinkEvaluation{
		Link:       link,
		Origin:     origin,
		Evaluation: evaluation,
	}
}

// LinkOrigin returns the host name a link points to
func LinkOrigin(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
