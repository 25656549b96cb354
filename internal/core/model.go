package core

import (
	"time"
)

// ParsedEmail represents the structured view of an inbound message
type ParsedEmail struct {
	SenderAddress string   `json:"sender_address"`
	SenderDomain  string   `json:"sender_domain"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	Links         []string `json:"links"`
	Headers       []string `json:"headers"`
}

// RegistrationRecord represents the registration data published for a domain
type RegistrationRecord struct {
	DomainName     string     `json:"domain_name"`
	Registrar      string     `json:"registrar,omitempty"`
	RegistrarURL   string     `json:"registrar_url,omitempty"`
	WhoisServer    string     `json:"whois_server,omitempty"`
	CreationDate   DateField  `json:"creation_date"`
	UpdatedDate    DateField  `json:"updated_date"`
	ExpirationDate DateField  `json:"expiration_date"`
	NameServers    StringList `json:"name_servers,omitempty"`
	Emails         StringList `json:"emails,omitempty"`
	DNSSECStatus   string     `json:"dnssec,omitempty"`
	Org            string     `json:"org,omitempty"`
	Country        string     `json:"country,omitempty"`
}

// CredibilityBreakdown holds the contribution of each scoring bucket
type CredibilityBreakdown struct {
	Age         float64 `json:"age"`
	DNSSEC      float64 `json:"dnssec"`
	Attribution float64 `json:"attribution"`
	Contact     float64 `json:"contact"`
	NameServers float64 `json:"name_servers"`
}

// CredibilityScore is the 0-10 credibility estimate for a sender domain
type CredibilityScore struct {
	Domain    string               `json:"domain"`
	Score     float64              `json:"score"`
	Breakdown CredibilityBreakdown `json:"breakdown"`
	Record    *RegistrationRecord  `json:"record,omitempty"`
}

// MatchMetadata describes the labeled sample behind a similarity match
type MatchMetadata struct {
	Sender      string `json:"sender,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Label       string `json:"label,omitempty"`
	URLCount    int    `json:"url_count"`
	BodyExcerpt string `json:"body_excerpt,omitempty"`
}

// SimilarityMatch is a single nearest-neighbor result
type SimilarityMatch struct {
	ID       string        `json:"id"`
	Distance float64       `json:"distance"`
	Metadata MatchMetadata `json:"metadata"`
}

// Link evaluation tags
const (
	LinkInternal = "internal"
	LinkExternal = "external"
)

// LinkEvaluation describes where a link in the message points to
type LinkEvaluation struct {
	Link        string `json:"link"`
	Origin      string `json:"origin"`
	Evaluation  string `json:"evaluation"`
	PageExcerpt string `json:"page_excerpt,omitempty"`
}

// SectionStatus tells whether a report section holds real data
type SectionStatus string

const (
	StatusComputed    SectionStatus = "computed"
	StatusUnavailable SectionStatus = "unavailable"
)

// CredibilityUnknown is reported when no credibility score could be computed
const CredibilityUnknown = "unknown"

// FraudReport is the aggregated result handed to the reasoning layer
type FraudReport struct {
	ID                    string            `json:"id"`
	GeneratedAt           time.Time         `json:"generated_at"`
	Email                 *ParsedEmail      `json:"email"`
	TrustedSender         bool              `json:"trusted_sender"`
	CredibilityStatus     SectionStatus     `json:"credibility_status"`
	CredibilityError      string            `json:"credibility_error,omitempty"`
	Credibility           *CredibilityScore `json:"credibility,omitempty"`
	CredibilityPercentage string            `json:"credibility_percentage"`
	SimilarityStatus      SectionStatus     `json:"similarity_status"`
	SimilarityError       string            `json:"similarity_error,omitempty"`
	Matches               []SimilarityMatch `json:"matches"`
	LinkEvaluations       []LinkEvaluation  `json:"link_evaluations"`
}

// CacheEntry is a cached registration lookup
type CacheEntry struct {
	Domain    string
	Record    *RegistrationRecord
	StoredAt  time.Time
	ExpiresAt time.Time
}
