// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/oschwald/maxminddb-golang"
	"github.com/siemens/ipreport/types"
	"github.com/thediveo/lxkns/log"
)

// HostnameResolver reverse resolves IP addresses into host names, such as
// [github.com/siemens/ipreport/rdns.Pool].
type HostnameResolver interface {
	LookupAddr(ctx context.Context, addr string) (string, error)
}

// GeoDB looks up addresses offline in MaxMind MMDB databases: a mandatory
// GeoLite2-City (or compatible) database and an optional GeoLite2-ASN (or
// compatible) database.
type GeoDB struct {
	city     *maxminddb.Reader
	asn      *maxminddb.Reader // optional
	resolver HostnameResolver  // optional
}

// GeoDBOption can be passed to OpenGeoDB.
type GeoDBOption func(*GeoDB)

// WithHostnameResolver sets the resolver for filling in host names; without a
// resolver host names are not available.
func WithHostnameResolver(resolver HostnameResolver) GeoDBOption {
	return func(g *GeoDB) {
		g.resolver = resolver
	}
}

// OpenGeoDB opens the city database at citypath and, unless asnpath is empty,
// the ASN database at asnpath.
func OpenGeoDB(citypath, asnpath string, options ...GeoDBOption) (*GeoDB, error) {
	city, err := maxminddb.Open(citypath)
	if err != nil {
		return nil, fmt.Errorf("cannot open city database: %w", err)
	}
	g := &GeoDB{city: city}
	if asnpath != "" {
		asn, err := maxminddb.Open(asnpath)
		if err != nil {
			city.Close()
			return nil, fmt.Errorf("cannot open ASN database: %w", err)
		}
		g.asn = asn
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// cityRecord is the subset of a GeoLite2-City record we're interested in.
type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Subdivisions []struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Country struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
		TimeZone  string   `maxminddb:"time_zone"`
	} `maxminddb:"location"`
	Postal struct {
		Code string `maxminddb:"code"`
	} `maxminddb:"postal"`
}

// asnRecord represents the structure of a GeoLite2-ASN record.
type asnRecord struct {
	AutonomousSystemNumber       uint   `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

// Lookup the specified address; see also [Client].
func (g *GeoDB) Lookup(ctx context.Context, addr string) (types.EnrichmentRecord, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		// Our permissive address validation lets pass things like
		// "001.2.3.4" that net.ParseIP refuses.
		return types.EnrichmentRecord{}, newError(addr, ErrNotFound, errors.New("not a canonical IP address"))
	}
	var city cityRecord
	_, ok, err := g.city.LookupNetwork(ip, &city)
	if err != nil {
		return types.EnrichmentRecord{}, newError(addr, ErrTransport, err)
	}
	if !ok {
		return types.EnrichmentRecord{}, newError(addr, ErrNotFound, nil)
	}
	var asn *asnRecord
	if g.asn != nil {
		var rec asnRecord
		if _, ok, err := g.asn.LookupNetwork(ip, &rec); err == nil && ok {
			asn = &rec
		}
	}
	hostname := types.NotAvailable
	if g.resolver != nil {
		name, err := g.resolver.LookupAddr(ctx, addr)
		if err == nil {
			hostname = types.Known(name)
		} else {
			log.Debugf("no host name for IP %s: %s", addr, err.Error())
		}
	}
	return geoRecord(addr, hostname, &city, asn), nil
}

// Close the underlying databases.
func (g *GeoDB) Close() error {
	err := g.city.Close()
	if g.asn != nil {
		err = errors.Join(err, g.asn.Close())
	}
	return err
}

// geoRecord maps database records into an enrichment record, preferring
// English names.
func geoRecord(addr string, hostname types.Attr, city *cityRecord, asn *asnRecord) types.EnrichmentRecord {
	rec := types.EnrichmentRecord{
		Address:          addr,
		Hostname:         hostname,
		City:             name(city.City.Names),
		Region:           types.NotAvailable,
		Country:          name(city.Country.Names),
		Coordinates:      types.Coordinates(floatText(city.Location.Latitude), floatText(city.Location.Longitude)),
		Organization:     types.NotAvailable,
		PostalCode:       nonEmpty(city.Postal.Code),
		Timezone:         nonEmpty(city.Location.TimeZone),
		AutonomousSystem: types.NotAvailable,
	}
	if len(city.Subdivisions) > 0 {
		rec.Region = name(city.Subdivisions[0].Names)
	}
	if asn != nil && asn.AutonomousSystemNumber != 0 {
		// Mimic the "AS15169 Google LLC" format of online services.
		as := "AS" + strconv.FormatUint(uint64(asn.AutonomousSystemNumber), 10)
		if asn.AutonomousSystemOrganization != "" {
			as += " " + asn.AutonomousSystemOrganization
			rec.Organization = types.Known(asn.AutonomousSystemOrganization)
		}
		rec.AutonomousSystem = types.Known(as)
	}
	return rec
}

func name(names map[string]string) types.Attr {
	if n, ok := names["en"]; ok {
		return types.Known(n)
	}
	return types.NotAvailable
}

// nonEmpty maps MMDB's "zero value for missing" strings to N/A.
func nonEmpty(s string) types.Attr {
	if s == "" {
		return types.NotAvailable
	}
	return types.Known(s)
}

func floatText(f *float64) *string {
	if f == nil {
		return nil
	}
	s := strconv.FormatFloat(*f, 'f', -1, 64)
	return &s
}
