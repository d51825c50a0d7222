/*
Package lookup implements the enrichment of single IPv4 addresses with
geolocation and ownership details, using pluggable lookup providers behind the
[Client] interface.

A lookup either results in an [types.EnrichmentRecord] or in an [*Error]; the
latter is never fatal to a pipeline run, the address then simply yields no
record. Errors wrap one of [ErrServiceFailure], [ErrTransport], or
[ErrNotFound], so callers can tell apart why an address came up empty.

Providers:
  - [IPAPI] queries an ip-api.com compatible JSON service via HTTP GET.
  - [GeoDB] looks up addresses offline in MaxMind MMDB databases, with
    optional reverse DNS for host names.
*/
package lookup
