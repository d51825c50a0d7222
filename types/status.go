// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"fmt"
	"math"
	"time"
)

// AddressStatus indicates where a validated address is in its lookup
// lifecycle.
type AddressStatus int

// The lookup states of an address.
const (
	Pending   AddressStatus = iota // address scheduled, but not yet looked up.
	LookingUp                      // lookup in flight.
	Failed                         // lookup yielded no record.
	Enriched                       // lookup yielded a record.
)

// String returns the clear-text representation of an AddressStatus value.
func (s AddressStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case LookingUp:
		return "looking up"
	case Failed:
		return "failed"
	case Enriched:
		return "enriched"
	}
	return fmt.Sprintf("AddressStatus(%d)", s)
}

// IsFinal returns true if the address has either been successfully or
// unsuccessfully looked up.
func (s AddressStatus) IsFinal() bool {
	switch s {
	case Failed, Enriched:
		return true
	default:
		return false
	}
}

// AddressUpdate reports a status change of an address during a run. Index is
// the address' position in the run's lookup order.
type AddressUpdate struct {
	Index   int
	Address string
	Status  AddressStatus
	Err     error // optional failure reason for Failed
}

// RoundSeconds returns a duration in seconds, rounded to two decimals.
func RoundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
