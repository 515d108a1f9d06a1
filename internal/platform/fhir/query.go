package fhir

import (
	"net/url"
	"regexp"
	"strings"
)

// SearchParams accumulates FHIR search parameters for an outbound query
// string. Empty values are skipped so optional tool arguments can be passed
// straight through.
type SearchParams struct {
	values url.Values
}

// NewSearchParams creates an empty parameter set.
func NewSearchParams() *SearchParams {
	return &SearchParams{values: url.Values{}}
}

// Set adds a search parameter, skipping empty values.
func (p *SearchParams) Set(name, value string) *SearchParams {
	if value != "" {
		p.values.Set(name, value)
	}
	return p
}

// SetDate adds a date search parameter normalised to instant precision via
// FormatSearchDate.
func (p *SearchParams) SetDate(name, value string) *SearchParams {
	if value != "" {
		p.values.Set(name, FormatSearchDate(value))
	}
	return p
}

// IsEmpty reports whether no parameters have been set.
func (p *SearchParams) IsEmpty() bool {
	return len(p.values) == 0
}

// Values returns the accumulated parameters.
func (p *SearchParams) Values() url.Values {
	return p.values
}

// Encode returns the URL-encoded query string in sorted key order.
func (p *SearchParams) Encode() string {
	return p.values.Encode()
}

// searchDatePattern matches a bare FHIR date with an optional comparison
// prefix (ge2024-01-15, 2024-01-15, ...).
var searchDatePattern = regexp.MustCompile(`^(ge|le|gt|lt|eq|ne|sa|eb|ap)?(\d{4}-\d{2}-\d{2})$`)

// FormatSearchDate widens a bare date to instant precision as some servers
// require for Appointment searches: ge2024-01-15 becomes
// ge2024-01-15T00:00:00.000Z. Values that already carry a time component, or
// that do not look like a prefixed date, pass through unchanged.
func FormatSearchDate(value string) string {
	if strings.Contains(value, "T") {
		return value
	}
	m := searchDatePattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	return m[1] + m[2] + "T00:00:00.000Z"
}
