/*
Package rdns implements a simple limiting reverse DNS (PTR) lookup pool. The
offline geolocation provider uses a [Pool] of “reverse DNS workers” to fill in
host names, as geolocation databases don't carry them.

Usage

	dnsclnt := dns.Client{Net: "udp"}
	pool, err := rdns.New(
	    context.Background(),
	    4,                   // number of parallel DNS connections and thus workers
	    &dnsclnt,            // DNS client
	    "127.0.0.53:53",     // address of server/resolver
	)
	pool.ResolveAddr(ctx, "8.8.8.8", func(names []string, err error) {
	    // do something with names, unless there's an error reported
	})
	name, err := pool.LookupAddr(ctx, "1.1.1.1") // ...blocks until resolved.
	pool.StopWait()

# Acknowledgements

Under its hood, [Pool] leverages [gammazero/workerpool] as the limiting
goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package rdns
