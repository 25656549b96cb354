package credibility

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func newTestAssessor() *Assessor {
	return NewAssessorWithClock(nil, func() time.Time { return fixedNow })
}

func yearsAgo(years float64) time.Time {
	return fixedNow.Add(-time.Duration(years * hoursPerYear * float64(time.Hour)))
}

func TestAssess_NilRecordScoresZero(t *testing.T) {
	score := newTestAssessor().Assess("nowhere.example", nil)

	require.NotNil(t, score)
	assert.Equal(t, 0.0, score.Score)
	assert.Equal(t, "nowhere.example", score.Domain)
	assert.Nil(t, score.Record)
}

func TestAssess_OnlyAgeContributes(t *testing.T) {
	record := &core.RegistrationRecord{
		DomainName: "old.example",
		CreationDate: core.SequenceDate(
			time.Unix(874306800, 0).UTC(),
			time.Unix(874296000, 0).UTC(),
		),
		DNSSECStatus: "unsigned",
	}

	score := newTestAssessor().Assess("old.example", record)

	assert.Equal(t, 4.0, score.Score)
	assert.Equal(t, core.CredibilityBreakdown{Age: 4}, score.Breakdown)
}

func TestAssess_FullRecord(t *testing.T) {
	record := &core.RegistrationRecord{
		DomainName:   "google.com",
		Registrar:    "MarkMonitor, Inc.",
		CreationDate: core.SingleDate(yearsAgo(26)),
		DNSSECStatus: "signedDelegation",
		Org:          "Google LLC",
		Emails:       core.StringList{"abusecomplaints@markmonitor.com"},
		NameServers:  core.StringList{"NS1.GOOGLE.COM", "ns2.google.com."},
	}

	score := newTestAssessor().Assess("google.com", record)

	assert.Equal(t, 10.0, score.Score)
	assert.Equal(t, core.CredibilityBreakdown{
		Age:         4,
		DNSSEC:      2,
		Attribution: 2,
		Contact:     1,
		NameServers: 1,
	}, score.Breakdown)
}

func TestAssess_AgeIsLinearBetweenOneAndTenYears(t *testing.T) {
	a := newTestAssessor()

	cases := []struct {
		years float64
		want  float64
	}{
		{0.5, 0},
		{5, 2},
		{7.5, 3},
		{12, 4},
	}
	for _, c := range cases {
		record := &core.RegistrationRecord{CreationDate: core.SingleDate(yearsAgo(c.years))}
		assert.InDelta(t, c.want, a.Assess("d.example", record).Breakdown.Age, 0.01, "years=%v", c.years)
	}
}

func TestAssess_PrivacyShieldedAttribution(t *testing.T) {
	record := &core.RegistrationRecord{
		Registrar: "Domains By Proxy, LLC",
		Org:       "REDACTED FOR PRIVACY",
	}
	assert.Equal(t, 0.0, newTestAssessor().Assess("hidden.example", record).Breakdown.Attribution)

	record.Org = "Example Corp"
	assert.Equal(t, 1.0, newTestAssessor().Assess("hidden.example", record).Breakdown.Attribution)
}

func TestAssess_DuplicateNameServersCountOnce(t *testing.T) {
	record := &core.RegistrationRecord{NameServers: core.StringList{"ns1.example", "NS1.EXAMPLE."}}
	assert.Equal(t, 0.0, newTestAssessor().Assess("d.example", record).Breakdown.NameServers)
}

func TestDNSSECScore(t *testing.T) {
	assert.Equal(t, 2.0, dnssecScore("signedDelegation"))
	assert.Equal(t, 2.0, dnssecScore("yes"))
	assert.Equal(t, 0.0, dnssecScore("unsigned"))
	assert.Equal(t, 0.0, dnssecScore("Unsigned delegation"))
	assert.Equal(t, 0.0, dnssecScore(""))
	assert.Equal(t, 0.0, dnssecScore("unknown"))
}

func TestReferences(t *testing.T) {
	record := &core.RegistrationRecord{
		CreationDate: core.SequenceDate(time.Unix(300, 0), time.Unix(100, 0), time.Unix(200, 0)),
		UpdatedDate:  core.SequenceDate(time.Unix(10, 0), time.Unix(30, 0)),
	}

	created, ok := CreationReference(record)
	require.True(t, ok)
	assert.Equal(t, int64(100), created.Unix())

	updated, ok := LastUpdateReference(record)
	require.True(t, ok)
	assert.Equal(t, int64(30), updated.Unix())

	_, ok = ExpirationReference(record)
	assert.False(t, ok)
}

func TestAssess_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	a := newTestAssessor()

	properties.Property("score stays within bounds", prop.ForAll(
		func(age float64, dnssec, registrar string, servers int) bool {
			ns := make(core.StringList, servers)
			for i := range ns {
				ns[i] = string(rune('a'+i)) + ".ns.example"
			}
			record := &core.RegistrationRecord{
				CreationDate: core.SingleDate(yearsAgo(age)),
				DNSSECStatus: dnssec,
				Registrar:    registrar,
				Org:          registrar,
				Emails:       core.StringList{"abuse@registrar.example"},
				NameServers:  ns,
			}
			score := a.Assess("d.example", record).Score
			return score >= 0 && score <= MaxScore
		},
		gen.Float64Range(-5, 80),
		gen.OneConstOf("", "unsigned", "signedDelegation", "yes", "garbage"),
		gen.OneConstOf("", "MarkMonitor Inc.", "Privacy Protect, LLC"),
		gen.IntRange(0, 6),
	))

	properties.Property("single creation date is its own reference", prop.ForAll(
		func(secs int64) bool {
			ts := time.Unix(secs, 0).UTC()
			ref, ok := CreationReference(&core.RegistrationRecord{CreationDate: core.SingleDate(ts)})
			return ok && ref.Equal(ts)
		},
		gen.Int64Range(1, 4000000000),
	))

	properties.Property("creation reference of a sequence is its minimum", prop.ForAll(
		func(first int64, rest []int64) bool {
			lowest := first
			values := []time.Time{time.Unix(first, 0)}
			for _, v := range rest {
				values = append(values, time.Unix(v, 0))
				if v < lowest {
					lowest = v
				}
			}
			ref, ok := CreationReference(&core.RegistrationRecord{CreationDate: core.SequenceDate(values...)})
			return ok && ref.Unix() == lowest
		},
		gen.Int64Range(1, 4000000000),
		gen.SliceOf(gen.Int64Range(1, 4000000000)),
	))

	properties.TestingRun(t)
}

func TestAssess_MalformedCreationDatesEarnNoAge(t *testing.T) {
	for _, body := range []string{
		`{"domain_name":"x.example","creation_date":"NaN"}`,
		`{"domain_name":"x.example","creation_date":"Inf"}`,
		`{"domain_name":"x.example","creation_date":1e30}`,
	} {
		var record core.RegistrationRecord
		require.NoError(t, json.Unmarshal([]byte(body), &record), body)

		score := newTestAssessor().Assess("x.example", &record)
		assert.Equal(t, 0.0, score.Breakdown.Age, body)
		assert.Equal(t, 0.0, score.Score, body)
	}

	// the bogus entry must not become the earliest registration
	var record core.RegistrationRecord
	require.NoError(t, json.Unmarshal([]byte(`{"domain_name":"x.example","creation_date":[1e30, 1600000000]}`), &record))

	created, ok := CreationReference(&record)
	require.True(t, ok)
	assert.Equal(t, int64(1600000000), created.Unix())

	years := fixedNow.Sub(time.Unix(1600000000, 0)).Hours() / hoursPerYear
	assert.InDelta(t, maxAgePoints*years/fullAgeYears, newTestAssessor().Assess("x.example", &record).Breakdown.Age, 0.01)
}

func TestAssess_FutureCreationDateEarnsNoAge(t *testing.T) {
	record := &core.RegistrationRecord{CreationDate: core.SingleDate(fixedNow.AddDate(50, 0, 0))}

	assert.Equal(t, 0.0, newTestAssessor().Assess("x.example", record).Breakdown.Age)
}
