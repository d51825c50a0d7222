// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"time"
)

// EnrichmentRecord holds the geolocation and ownership details of a single
// validated IPv4 address.
type EnrichmentRecord struct {
	Address          string `json:"ip"`
	Hostname         Attr   `json:"hostname"`
	City             Attr   `json:"city"`
	Region           Attr   `json:"region"`
	Country          Attr   `json:"country"`
	Coordinates      Attr   `json:"coordinates"` // "lat,lon"
	Organization     Attr   `json:"organization"`
	PostalCode       Attr   `json:"postal_code"`
	Timezone         Attr   `json:"timezone"`
	AutonomousSystem Attr   `json:"autonomous_system"`
}

// Field is a named record attribute, as rendered into reports.
type Field struct {
	Name  string
	Value Attr
}

// Fields returns the record attributes in report order, starting with the
// address itself.
func (r EnrichmentRecord) Fields() []Field {
	return []Field{
		{Name: "ip", Value: Known(r.Address)},
		{Name: "hostname", Value: r.Hostname},
		{Name: "city", Value: r.City},
		{Name: "region", Value: r.Region},
		{Name: "country", Value: r.Country},
		{Name: "coordinates", Value: r.Coordinates},
		{Name: "organization", Value: r.Organization},
		{Name: "postal_code", Value: r.PostalCode},
		{Name: "timezone", Value: r.Timezone},
		{Name: "autonomous_system", Value: r.AutonomousSystem},
	}
}

// Coordinates returns the textual "lat,lon" attribute, where a missing part
// reads “N/A”. If both parts are missing, the attribute is not available.
func Coordinates(lat, lon *string) Attr {
	if lat == nil && lon == nil {
		return NotAvailable
	}
	return Known(Maybe(lat).String() + "," + Maybe(lon).String())
}

// ResultSet is the ordered list of records a pipeline run produced, in
// lookup issuance order.
type ResultSet []EnrichmentRecord

// RunMetadata describes the scheduling and lookup phase of a pipeline run.
type RunMetadata struct {
	Started   time.Time     `json:"started"`
	Elapsed   time.Duration `json:"elapsed"`   // including cooldown pauses
	Attempted int           `json:"attempted"` // number of lookups issued
	Failed    int           `json:"failed"`    // lookups without a record
	Pauses    int           `json:"pauses"`    // number of cooldown pauses
}

// Seconds returns the elapsed time in seconds, rounded to two decimals.
func (m RunMetadata) Seconds() float64 {
	return RoundSeconds(m.Elapsed)
}
