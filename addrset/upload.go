// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package addrset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxUploadSize limits the size of uploaded address files.
const MaxUploadSize = 8 << 20

// ErrUploadTooLarge signals an uploaded file exceeding MaxUploadSize.
var ErrUploadTooLarge = errors.New("uploaded file too large")

// Accepted returns true if an uploaded file of the specified name qualifies as
// an address list. Only a plain ".txt" suffix counts.
func Accepted(filename string) bool {
	return strings.HasSuffix(filename, ".txt")
}

// ReadUpload reads the lines of an uploaded address file. Files not Accepted
// are silently ignored: ReadUpload then neither reads from r nor returns an
// error, but reports false.
//
// The upload is slurped into an in-memory buffer that is released when
// ReadUpload returns, regardless of the outcome.
func ReadUpload(filename string, r io.Reader) (lines []string, accepted bool, err error) {
	if !Accepted(filename) {
		return nil, false, nil
	}
	var buff bytes.Buffer
	defer buff.Reset()
	n, err := buff.ReadFrom(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, true, fmt.Errorf("cannot read uploaded file %q: %w", filename, err)
	}
	if n > MaxUploadSize {
		return nil, true, fmt.Errorf("%w: %q exceeds %d bytes", ErrUploadTooLarge, filename, MaxUploadSize)
	}
	scanner := bufio.NewScanner(&buff)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxUploadSize)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, true, fmt.Errorf("cannot split uploaded file %q into lines: %w", filename, err)
	}
	return lines, true, nil
}
