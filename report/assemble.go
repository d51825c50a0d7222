// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package report

import (
	"time"

	"github.com/siemens/ipreport/addrset"
	"github.com/siemens/ipreport/types"
)

// Report is the outcome of a run as presented to users.
type Report struct {
	Results        types.ResultSet `json:"results"`
	Invalid        []string        `json:"invalid"`
	ProcessingTime float64         `json:"processing_time"` // seconds, two decimals
	Requested      int             `json:"requested"`       // number of valid addresses
	Enriched       int             `json:"enriched"`
	Failed         int             `json:"failed"`
	Pauses         int             `json:"pauses"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Artifact       string          `json:"artifact,omitempty"`
}

// Assemble a report from the normalized address set, the records of the run
// and its metadata. The records are taken as they are.
func Assemble(set addrset.AddressSet, results types.ResultSet, meta types.RunMetadata) Report {
	invalid := set.Invalid
	if invalid == nil {
		invalid = []string{}
	}
	if results == nil {
		results = types.ResultSet{}
	}
	return Report{
		Results:        results,
		Invalid:        invalid,
		ProcessingTime: meta.Seconds(),
		Requested:      len(set.Valid),
		Enriched:       len(results),
		Failed:         meta.Failed,
		Pauses:         meta.Pauses,
		GeneratedAt:    meta.Started.Add(meta.Elapsed),
	}
}

// HasWarnings returns true if some of the input wasn't looked up because it
// didn't validate.
func (r Report) HasWarnings() bool {
	return len(r.Invalid) > 0
}
