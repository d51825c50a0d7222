// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package addrset

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyInput signals that the input didn't contain any address tokens at
// all.
var ErrEmptyInput = errors.New("no IP addresses provided")

// ErrNoValidAddresses signals that the input contained address tokens, but
// none of them is a valid IPv4 address.
var ErrNoValidAddresses = errors.New("no valid IP addresses provided")

// RawInput is the unstructured user input of a single run: free text and the
// lines of an optionally uploaded file.
type RawInput struct {
	Text      string
	FileLines []string
}

// AddressSet is the deduplicated set of address tokens of a run, partitioned
// into valid and invalid addresses.
type AddressSet struct {
	Valid   []string `json:"valid"`   // in order of first appearance
	Invalid []string `json:"invalid"` // a set; sorted only for stable display
}

// Len returns the number of distinct address tokens.
func (s AddressSet) Len() int { return len(s.Valid) + len(s.Invalid) }

// Normalize splits the uploaded file lines and the free text on commas, trims
// the resulting tokens, drops empty ones, and then deduplicates and validates
// the tokens. Tokens from the uploaded file come first.
//
// Normalize returns ErrEmptyInput if there are no tokens at all, and
// ErrNoValidAddresses together with the (all invalid) set if none of the
// tokens is a valid address.
func Normalize(in RawInput) (AddressSet, error) {
	tokens := []string{}
	for _, line := range in.FileLines {
		tokens = appendTokens(tokens, line)
	}
	tokens = appendTokens(tokens, in.Text)
	if len(tokens) == 0 {
		return AddressSet{}, ErrEmptyInput
	}

	set := AddressSet{Valid: []string{}, Invalid: []string{}}
	seen := map[string]struct{}{}
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		if Validate(token) {
			set.Valid = append(set.Valid, token)
			continue
		}
		set.Invalid = append(set.Invalid, token)
	}
	sort.Strings(set.Invalid)
	if len(set.Valid) == 0 {
		return set, ErrNoValidAddresses
	}
	return set, nil
}

// appendTokens appends the non-empty, trimmed, comma-separated tokens of s.
func appendTokens(tokens []string, s string) []string {
	for _, token := range strings.Split(s, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
