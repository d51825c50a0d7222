// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/siemens/ipreport/types"
)

//go:generate mockgen -destination=../scheduler/mocks_test.go -package=scheduler github.com/siemens/ipreport/lookup Client

// Client enriches a single validated IPv4 address. Implementations must be
// safe for concurrent use.
type Client interface {
	Lookup(ctx context.Context, addr string) (types.EnrichmentRecord, error)
}

var (
	// ErrServiceFailure signals that the lookup service explicitly reported
	// a failed lookup.
	ErrServiceFailure = errors.New("lookup service reported failure")
	// ErrTransport signals that the lookup service could not be asked, or
	// didn't answer properly.
	ErrTransport = errors.New("lookup transport failure")
	// ErrNotFound signals that there is no data about the address.
	ErrNotFound = errors.New("no lookup data")
)

// Error is a failed lookup of a single address.
type Error struct {
	Address string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lookup of %s failed: %s", e.Address, e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

// newError returns a lookup error for addr wrapping kind, with optional
// details given by cause.
func newError(addr string, kind error, cause error) *Error {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &Error{Address: addr, Err: err}
}
