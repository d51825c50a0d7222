// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"errors"
	"fmt"
)

// Provider names a lookup provider.
type Provider string

const (
	IPAPIProvider Provider = "ip-api"
	GeoDBProvider Provider = "geodb"
)

// ListProviders returns all known providers.
func ListProviders() []Provider {
	return []Provider{
		IPAPIProvider,
		GeoDBProvider,
	}
}

var ErrUnknownProvider = errors.New("unknown lookup provider")

// ValidateProvider returns an error for unknown providers.
func ValidateProvider(provider Provider) error {
	for _, possible := range ListProviders() {
		if provider == possible {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
}
