// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/siemens/ipreport/types"
	"github.com/thediveo/lxkns/log"
)

// DefaultIPAPIURL is the base URL of the public ip-api.com JSON service.
const DefaultIPAPIURL = "http://ip-api.com/json/"

// ipapiFields lists the response fields requested from the service; "reverse"
// isn't part of the service's default field set.
const ipapiFields = "status,message,reverse,city,regionName,country,lat,lon,isp,zip,timezone,as"

// IPAPI looks up addresses using an ip-api.com compatible JSON service: one
// HTTP GET per address.
type IPAPI struct {
	baseURL string
	client  *http.Client
	fields  bool
}

// IPAPIOption can be passed to NewIPAPI when creating new IPAPI clients.
type IPAPIOption func(*IPAPI)

// NewIPAPI returns a new IPAPI client querying the service at the specified
// base URL; the address to look up gets appended to the base URL path. The
// client defaults to a request timeout of 10s, where an expired timeout counts
// as a transport failure.
func NewIPAPI(baseURL string, options ...IPAPIOption) *IPAPI {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &IPAPI{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		fields:  true,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) IPAPIOption {
	return func(c *IPAPI) {
		c.client.Timeout = timeout
	}
}

// WithHTTPClient makes the IPAPI client use the specified HTTP client,
// including its timeout.
func WithHTTPClient(client *http.Client) IPAPIOption {
	return func(c *IPAPI) {
		c.client = client
	}
}

// WithDefaultFields tells the IPAPI client to not explicitly request the field
// set, leaving it to the service's defaults. Host names then typically end up
// not available.
func WithDefaultFields() IPAPIOption {
	return func(c *IPAPI) {
		c.fields = false
	}
}

// ipapiResponse is the service's JSON response; absent fields stay nil.
// Latitude and longitude keep their literal number text.
type ipapiResponse struct {
	Status     string       `json:"status"`
	Message    string       `json:"message"`
	Reverse    *string      `json:"reverse"`
	City       *string      `json:"city"`
	RegionName *string      `json:"regionName"`
	Country    *string      `json:"country"`
	Lat        *json.Number `json:"lat"`
	Lon        *json.Number `json:"lon"`
	ISP        *string      `json:"isp"`
	Zip        *string      `json:"zip"`
	Timezone   *string      `json:"timezone"`
	AS         *string      `json:"as"`
}

// Lookup the specified address; see also [Client].
func (c *IPAPI) Lookup(ctx context.Context, addr string) (types.EnrichmentRecord, error) {
	u := c.baseURL + url.PathEscape(addr)
	if c.fields {
		u += "?fields=" + ipapiFields
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.EnrichmentRecord{}, newError(addr, ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warnf("error fetching data for IP %s: %s", addr, err.Error())
		return types.EnrichmentRecord{}, newError(addr, ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection might get reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		err := fmt.Errorf("unexpected HTTP status %s", resp.Status)
		log.Warnf("error fetching data for IP %s: %s", addr, err.Error())
		return types.EnrichmentRecord{}, newError(addr, ErrTransport, err)
	}
	var data ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Warnf("error decoding data for IP %s: %s", addr, err.Error())
		return types.EnrichmentRecord{}, newError(addr, ErrTransport, err)
	}
	if data.Status == "fail" {
		log.Debugf("no data for IP %s: %s", addr, data.Message)
		var cause error
		if data.Message != "" {
			cause = fmt.Errorf("%s", data.Message)
		}
		return types.EnrichmentRecord{}, newError(addr, ErrServiceFailure, cause)
	}
	return data.record(addr), nil
}

// record maps the service response into an enrichment record.
func (r *ipapiResponse) record(addr string) types.EnrichmentRecord {
	return types.EnrichmentRecord{
		Address:          addr,
		Hostname:         types.Maybe(r.Reverse),
		City:             types.Maybe(r.City),
		Region:           types.Maybe(r.RegionName),
		Country:          types.Maybe(r.Country),
		Coordinates:      types.Coordinates(numberText(r.Lat), numberText(r.Lon)),
		Organization:     types.Maybe(r.ISP),
		PostalCode:       types.Maybe(r.Zip),
		Timezone:         types.Maybe(r.Timezone),
		AutonomousSystem: types.Maybe(r.AS),
	}
}

func numberText(n *json.Number) *string {
	if n == nil {
		return nil
	}
	s := n.String()
	return &s
}
