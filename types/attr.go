// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "encoding/json"

// NotAvailableText is the textual representation of a missing attribute.
const NotAvailableText = "N/A"

// Attr is a single record attribute which is either a resolved value or not
// available. The zero value is not available.
type Attr struct {
	value string
	known bool
}

// NotAvailable is the attribute sentinel for data the lookup service did not
// provide.
var NotAvailable = Attr{}

// Known returns an attribute with the specified resolved value. An empty value
// is still a resolved value.
func Known(value string) Attr {
	return Attr{value: value, known: true}
}

// Maybe returns a resolved attribute if value is non-nil, otherwise
// NotAvailable.
func Maybe(value *string) Attr {
	if value == nil {
		return NotAvailable
	}
	return Known(*value)
}

// IsAvailable returns true if the attribute carries a resolved value.
func (a Attr) IsAvailable() bool { return a.known }

// Value returns the resolved value and true, or "" and false.
func (a Attr) Value() (string, bool) { return a.value, a.known }

// String returns the resolved value, or “N/A” if not available.
func (a Attr) String() string {
	if !a.known {
		return NotAvailableText
	}
	return a.value
}

// MarshalJSON renders the attribute in its textual representation.
func (a Attr) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}
