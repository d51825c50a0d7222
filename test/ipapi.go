// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// GoogleDNS is a canned, complete ip-api.com response for 8.8.8.8.
const GoogleDNS = `{
	"status": "success",
	"reverse": "dns.google",
	"city": "Ashburn",
	"regionName": "Virginia",
	"country": "United States",
	"lat": 39.03,
	"lon": -77.5,
	"isp": "Google LLC",
	"zip": "20149",
	"timezone": "America/New_York",
	"as": "AS15169 Google LLC"
}`

// Sparse is a canned successful response lacking most fields, with an empty
// host name.
const Sparse = `{"status": "success", "reverse": "", "country": "Zürich-Land", "lat": 47.5}`

// Fail is a canned failure response, such as for private address ranges.
const Fail = `{"status": "fail", "message": "private range"}`

// FakeIPAPI is an in-process ip-api.com look-alike serving canned responses
// per address. Addresses without a canned response get a 500 status.
type FakeIPAPI struct {
	*httptest.Server
	mu        sync.Mutex
	responses map[string]string
	requests  []string
}

// NewFakeIPAPI starts a new FakeIPAPI serving the specified canned responses,
// mapping addresses to JSON bodies. Callers must Close it.
func NewFakeIPAPI(responses map[string]string) *FakeIPAPI {
	f := &FakeIPAPI{responses: responses}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// BaseURL returns the base URL to configure lookup clients with.
func (f *FakeIPAPI) BaseURL() string {
	return f.URL + "/json/"
}

// Requests returns the addresses looked up so far, in order.
func (f *FakeIPAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *FakeIPAPI) serve(w http.ResponseWriter, r *http.Request) {
	addr := strings.TrimPrefix(r.URL.Path, "/json/")
	f.mu.Lock()
	f.requests = append(f.requests, addr)
	body, ok := f.responses[addr]
	f.mu.Unlock()
	if !ok {
		http.Error(w, "kaputt", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
