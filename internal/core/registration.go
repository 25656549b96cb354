package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateKind tags the shape a registration date arrived in
type DateKind int

const (
	DateAbsent DateKind = iota
	DateSingle
	DateSequence
)

// DateField is a registration date that is either a single timestamp or a
// sequence of historical timestamps. Sequences are not sorted.
type DateField struct {
	Kind   DateKind
	Values []time.Time
}

// SingleDate builds a DateField holding one timestamp
func SingleDate(t time.Time) DateField {
	return DateField{Kind: DateSingle, Values: []time.Time{t}}
}

// SequenceDate builds a DateField holding historical timestamps in source order
func SequenceDate(ts ...time.Time) DateField {
	if len(ts) == 0 {
		return DateField{}
	}
	return DateField{Kind: DateSequence, Values: ts}
}

// Earliest returns the oldest timestamp in the field
func (d DateField) Earliest() (time.Time, bool) {
	if len(d.Values) == 0 {
		return time.Time{}, false
	}
	earliest := d.Values[0]
	for _, v := range d.Values[1:] {
		if v.Before(earliest) {
			earliest = v
		}
	}
	return earliest, true
}

// Latest returns the most recent timestamp in the field
func (d DateField) Latest() (time.Time, bool) {
	if len(d.Values) == 0 {
		return time.Time{}, false
	}
	latest := d.Values[0]
	for _, v := range d.Values[1:] {
		if v.After(latest) {
			latest = v
		}
	}
	return latest, true
}

// dateLayouts lists the textual formats seen in registration data
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"02-Jan-2006",
}

// UnmarshalJSON accepts a number, a string or an array of those. Values that
// cannot be read as dates are dropped instead of failing the record.
func (d *DateField) UnmarshalJSON(data []byte) error {
	*d = DateField{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		values := make([]time.Time, 0, len(raw))
		for _, r := range raw {
			if t, ok := parseDateValue(r); ok {
				values = append(values, t)
			}
		}
		if len(values) > 0 {
			*d = DateField{Kind: DateSequence, Values: values}
		}
		return nil
	}

	if t, ok := parseDateValue(data); ok {
		*d = SingleDate(t)
	}
	return nil
}

// MarshalJSON writes unix seconds, as a list when the field is a sequence
func (d DateField) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DateSingle:
		if len(d.Values) == 0 {
			return []byte("null"), nil
		}
		return json.Marshal(d.Values[0].Unix())
	case DateSequence:
		out := make([]int64, len(d.Values))
		for i, v := range d.Values {
			out[i] = v.Unix()
		}
		return json.Marshal(out)
	default:
		return []byte("null"), nil
	}
}

func parseDateValue(raw json.RawMessage) (time.Time, bool) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return unixValue(string(num))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := unixValue(s); ok {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// maxUnixSeconds is the last second of year 9999
const maxUnixSeconds = 253402300799

func unixValue(s string) (time.Time, bool) {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 || secs > maxUnixSeconds {
		return time.Time{}, false
	}
	return time.Unix(int64(secs), 0).UTC(), true
}

// StringList decodes from either a single string or a list of strings
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return nil
		}
		*l = values
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return nil
	}
	if value != "" {
		*l = StringList{value}
	}
	return nil
}

// UnmarshalJSON decodes a registration record. Text fields that arrive as a
// list of values keep the first non-empty one.
func (r *RegistrationRecord) UnmarshalJSON(data []byte) error {
	type plain RegistrationRecord
	var raw struct {
		plain
		DomainName   json.RawMessage `json:"domain_name"`
		Registrar    json.RawMessage `json:"registrar"`
		RegistrarURL json.RawMessage `json:"registrar_url"`
		WhoisServer  json.RawMessage `json:"whois_server"`
		DNSSECStatus json.RawMessage `json:"dnssec"`
		Org          json.RawMessage `json:"org"`
		Country      json.RawMessage `json:"country"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = RegistrationRecord(raw.plain)
	r.DomainName = firstString(raw.DomainName)
	r.Registrar = firstString(raw.Registrar)
	r.RegistrarURL = firstString(raw.RegistrarURL)
	r.WhoisServer = firstString(raw.WhoisServer)
	r.DNSSECStatus = firstString(raw.DNSSECStatus)
	r.Org = firstString(raw.Org)
	r.Country = firstString(raw.Country)
	return nil
}

func firstString(raw json.RawMessage) string {
	var list StringList
	_ = list.UnmarshalJSON(raw)
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
