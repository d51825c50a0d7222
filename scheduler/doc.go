/*
Package scheduler drives the lookups of a pipeline run over an ordered list of
validated addresses, under the control of a [pacing.Policy].

	         +-----------+
	addrs--->| Scheduler |--> ResultSet, RunMetadata
	         +-----+-----+
	               |
	               +-->ch AddressUpdate (optional)

Lookups are issued strictly in address order; before issuing a lookup the
scheduler asks the pacing policy for a slot, which might suspend the whole run
for a cooldown. Failed lookups are never fatal: the address simply yields no
record. Only if no address at all yields a record, the run ends with
[ErrNoDataRetrieved].

By default, a Scheduler looks up one address after another. With
[WithWorkers] lookups are carried out by a goroutine-limited worker pool, while
dispatching (and thus pacing) still happens in address order from a single
loop; the results stay in address order.

A [Board] consumes the optional news stream of [types.AddressUpdate] progress
events and keeps an ordered, concurrency-safe snapshot of where each address
is, such as for rendering progress information.

# Acknowledgements

Under its hood, the worker mode leverages [gammazero/workerpool] as the
limiting goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package scheduler
