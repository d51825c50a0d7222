/*
Package addrset turns raw user input into a deduplicated set of candidate IPv4
address strings, partitioned into valid and invalid addresses.

Input comes from free text as well as from the lines of an optionally uploaded
plain-text file; in both cases addresses are separated by commas.

	in := addrset.RawInput{Text: "1.2.3.4, 999.1.1.1"}
	set, err := addrset.Normalize(in)
	// set.Valid: [1.2.3.4], set.Invalid: [999.1.1.1]

Address validation is deliberately permissive: an address consists of exactly
four dot-separated parts, each of which must parse as a base-10 integer in the
range [0..255]. Leading zeros, signs, and whitespace around a part are thus
accepted, much to the surprise of the unsuspecting reader.
*/
package addrset
