// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package addrset

import (
	"strings"
	"unicode"
)

// Validate returns true if addr consists of exactly four dot-separated parts,
// each of which parses as a base-10 integer in the range [0..255].
//
// Parts are parsed the lenient way: surrounding whitespace, a single leading
// sign, leading zeros, and single underscores between digits are all fine.
// Digits from other scripts count as well, so "١.2.3.4" is valid too.
// "01.+2. 3.4_0" thus counts as valid; this is observable behavior callers
// might rely upon, so don't "fix" it.
func Validate(addr string) bool {
	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		octet, ok := parseInt(part)
		if !ok || octet < 0 || octet > 255 {
			return false
		}
	}
	return true
}

// parseInt leniently parses a base-10 integer. As we're only interested in
// octets, anything beyond a handful of digits is rejected early instead of
// risking an overflow.
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" || s[0] == '_' || s[len(s)-1] == '_' || strings.Contains(s, "__") {
		return 0, false
	}
	value := 0
	digits := 0
	for _, r := range s {
		if r == '_' {
			continue
		}
		digit, ok := digitValue(r)
		if !ok {
			return 0, false
		}
		value = value*10 + digit
		// Leading zeros don't count, so "0000000001" remains fine.
		if value > 0 {
			digits++
		}
		if digits > 4 {
			return 0, false
		}
	}
	if neg {
		value = -value
	}
	return value, true
}

// digitValue returns the value of a decimal digit from any script. Unicode
// encodes decimal digits in contiguous runs of complete zero-to-nine sets,
// so the value is the offset from the start of the run modulo ten.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if !unicode.IsDigit(r) {
		return 0, false
	}
	zero := r
	for unicode.IsDigit(zero - 1) {
		zero--
	}
	return int(r-zero) % 10, true
}
